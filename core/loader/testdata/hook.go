package main

import (
	"context"

	"extensions.GO/sdk"
)

func Register(caps sdk.Capabilities) ([]sdk.Binding, error) {
	return []sdk.Binding{
		sdk.On("items.create", func(ctx context.Context, payload map[string]any) error {
			payload["seen"] = true
			return nil
		}),
		sdk.Schedule("*/5 * * * *", func(ctx context.Context) error {
			return nil
		}),
	}, nil
}
