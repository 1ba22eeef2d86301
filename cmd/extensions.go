package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"extensions.GO/config"
	"extensions.GO/extension"
	"extensions.GO/manager"
)

var listType string

var extensionsListCmd = &cobra.Command{
	Use:   "extensions:list",
	Short: "List extensions found in the extensions folder",
	RunE: func(cmd *cobra.Command, args []string) error {
		var filter extension.Type
		if listType != "" {
			t, ok := extension.ParseType(listType)
			if !ok {
				return fmt.Errorf("unknown extension type %q", listType)
			}
			filter = t
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log, err := config.NewLogger(cfg.Debug)
		if err != nil {
			return err
		}
		defer log.Sync()
		exts, err := extension.Discover(extension.NewFS(log), cfg.ExtensionsPath, extension.AllTypes, log)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTYPE\tSOURCE\tPATH")
		for _, ext := range exts {
			if filter != "" && ext.Type != filter {
				continue
			}
			source := "package"
			if ext.Local {
				source = "local"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ext.Name, ext.Type, source, ext.EntrypointPath())
		}
		return w.Flush()
	},
}

var extensionsInstallCmd = &cobra.Command{
	Use:   "extensions:install <name>",
	Short: "Install an extension package from the registry and signal running instances to reload",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		h, err := bootstrap(ctx, func(cfg *config.Config) { cfg.ServeApp = false })
		if err != nil {
			return err
		}
		defer closeSoon(h)
		if err := h.manager.Initialize(ctx, manager.Options{Schedule: false}); err != nil {
			return err
		}
		if !h.manager.Install(ctx, args[0]) {
			return fmt.Errorf("couldn't install %s", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Installed %s\n", args[0])
		return nil
	},
}

func closeSoon(h *host) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	h.close(ctx)
}

func init() {
	extensionsListCmd.Flags().StringVarP(&listType, "type", "t", "", "Only list extensions of this type")
	rootCmd.AddCommand(extensionsListCmd, extensionsInstallCmd)
}
