package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"extensions.GO/config"
	"extensions.GO/manager"
)

var eventPayload string

var eventsEmitCmd = &cobra.Command{
	Use:   "events:emit <event>",
	Short: "Load hooks and emit one event on the bus",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := map[string]any{}
		if eventPayload != "" {
			if err := json.Unmarshal([]byte(eventPayload), &payload); err != nil {
				return fmt.Errorf("--payload: %w", err)
			}
		}

		ctx := context.Background()
		h, err := bootstrap(ctx, func(cfg *config.Config) { cfg.ServeApp = false })
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			h.close(shutdownCtx)
		}()

		if err := h.manager.Initialize(ctx, manager.Options{Schedule: false}); err != nil {
			return err
		}
		subscribed := h.manager.Bus().Count(args[0])
		ok := h.manager.Bus().Emit(ctx, args[0], payload)
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d handler(s) succeeded\n", args[0], ok, subscribed)
		return nil
	},
}

func init() {
	eventsEmitCmd.Flags().StringVarP(&eventPayload, "payload", "p", "", "JSON object passed to handlers")
	rootCmd.AddCommand(eventsEmitCmd)
}
