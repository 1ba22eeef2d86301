package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"extensions.GO/config"
	"extensions.GO/manager"
)

var jobName string

var cronStartCmd = &cobra.Command{
	Use:   "cron:start",
	Short: "Run scheduled hooks without the HTTP server, or run one hook's jobs by name",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		h, err := bootstrap(ctx, func(cfg *config.Config) { cfg.ServeApp = false })
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			h.close(shutdownCtx)
		}()

		if jobName != "" {
			if err := h.manager.Initialize(ctx, manager.Options{Schedule: false}); err != nil {
				return err
			}
			n, err := h.manager.RunScheduled(ctx, jobName)
			fmt.Fprintf(cmd.OutOrStdout(), "Ran %d scheduled hook(s) of %s\n", n, jobName)
			return err
		}

		if err := h.manager.Initialize(ctx, manager.Options{Schedule: true}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cron scheduler started with %d hook binding(s). Press Ctrl+C to exit.\n", h.manager.HookCount())
		<-ctx.Done()
		return nil
	},
}

func init() {
	cronStartCmd.Flags().StringVarP(&jobName, "job", "j", "", "Run the scheduled hooks of one extension now and exit")
	rootCmd.AddCommand(cronStartCmd)
}
