// Package custom holds compiled-in extensions. An extension folder selects one with
// "entrypoint: native:<id>" in its extension.yaml.
package custom

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"extensions.GO/cmd"
	"extensions.GO/core/loader"
	"extensions.GO/sdk"
)

func init() {
	// Endpoint: GET <base>/ping/ and GET <base>/ping/schema
	loader.RegisterNative("ping", func() loader.Export {
		return loader.Named{Register: func(r sdk.Router, caps sdk.Capabilities) error {
			r.GET("", func(c sdk.Context) error {
				return c.JSON(http.StatusOK, map[string]string{"pong": "ok"})
			})
			r.GET("/schema", func(c sdk.Context) error {
				schema, err := caps.GetSchema(c.Request().Context())
				if err != nil {
					return caps.Exceptions.ServiceUnavailable(err.Error())
				}
				return c.JSON(http.StatusOK, schema)
			})
			return nil
		}}
	})

	// Hook: logs a heartbeat every minute and every created item.
	loader.RegisterNative("heartbeat", func() loader.Export {
		return loader.Hook{Register: func(caps sdk.Capabilities) ([]sdk.Binding, error) {
			return []sdk.Binding{
				sdk.Schedule("@every 1m", func(context.Context) error {
					caps.Logger.Info("heartbeat", zap.Time("at", time.Now()))
					return nil
				}),
				sdk.On("items.create", func(_ context.Context, payload map[string]any) error {
					caps.Logger.Info("item created", zap.Any("collection", payload["collection"]))
					return nil
				}),
			}, nil
		}}
	})

	// CLI command
	cmd.Register(&cobra.Command{
		Use:   "extensions:natives",
		Short: "List compiled-in extension modules",
		Run: func(c *cobra.Command, args []string) {
			for _, id := range loader.NativeIDs() {
				fmt.Fprintln(c.OutOrStdout(), "native:"+id)
			}
		},
	})
}
