// Package sdk is the surface extension code is written against.
//
// A hook extension exports
//
//	func Register(caps sdk.Capabilities) ([]sdk.Binding, error)
//
// returning scheduled and event bindings. An endpoint extension exports either
//
//	func Register(r sdk.Router, caps sdk.Capabilities) error
//
// which is mounted under the extension's own name, or
//
//	var Endpoint = sdk.Endpoint{ID: "mount-name", Handler: ...}
//
// which is mounted under ID.
package sdk

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Router is the sub-router an endpoint extension registers its routes on.
type Router = *echo.Group

// Context is the request context handed to endpoint handlers.
type Context = echo.Context

// Capabilities is the fixed set of host objects injected into every registration call.
type Capabilities struct {
	Services   Services
	Exceptions Exceptions
	Env        map[string]string
	Database   *gorm.DB
	Logger     *zap.Logger
	GetSchema  func(ctx context.Context) (*SchemaOverview, error)
}

// HookFunc is the registration function of a hook extension.
type HookFunc func(caps Capabilities) ([]Binding, error)

// EndpointFunc is the registration function of an endpoint extension.
type EndpointFunc func(r Router, caps Capabilities) error

// Endpoint is the scoped export of an endpoint extension: routes mount under ID.
type Endpoint struct {
	ID      string
	Handler EndpointFunc
}
