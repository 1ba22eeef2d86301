package cmd

import (
	"github.com/spf13/cobra"

	"extensions.GO/core/registry"
)

// Register queues a command contributed by a compiled-in extension package. Call it from
// init(); it panics once Apply has run.
func Register(c *cobra.Command) {
	queued := registry.GlobalRegistry.Update(registry.KeyRegistryCmd, func(current any) any {
		list, _ := current.([]*cobra.Command)
		return append(list, c)
	})
	if !queued {
		panic("cmd: " + c.Name() + " registered after Apply")
	}
}

// Apply adds the queued commands to the root command and locks the queue.
// Later calls do nothing.
func Apply() {
	if registry.GlobalRegistry.IsLocked(registry.KeyRegistryCmd) {
		return
	}
	registry.GlobalRegistry.Lock(registry.KeyRegistryCmd)
	v, _ := registry.GlobalRegistry.GetGlobal(registry.KeyRegistryCmd)
	list, _ := v.([]*cobra.Command)
	rootCmd.AddCommand(list...)
}

// Root applies queued commands and returns the root command.
func Root() *cobra.Command {
	Apply()
	return rootCmd
}
