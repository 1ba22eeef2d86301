package status

import (
	"net/http"

	"extensions.GO/sdk"
)

func Register(r sdk.Router, caps sdk.Capabilities) error {
	r.GET("/health", func(c sdk.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	return nil
}
