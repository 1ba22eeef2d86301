package main

import (
	"net/http"

	"extensions.GO/sdk"
)

var Endpoint = sdk.Endpoint{
	ID: "greetings",
	Handler: func(r sdk.Router, caps sdk.Capabilities) error {
		r.GET("/hello", func(c sdk.Context) error {
			return c.String(http.StatusOK, "hello from "+caps.Env["APP_NAME"])
		})
		return nil
	},
}
