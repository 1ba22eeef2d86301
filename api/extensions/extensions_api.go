// Package extensions is the management API for the extension host.
package extensions

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"extensions.GO/extension"
	entity "extensions.GO/model/entity"
)

// Manager is the part of the lifecycle manager the API drives.
type Manager interface {
	ListExtensions(t extension.Type) []string
	Bundle(t extension.Type) (string, bool)
	Reload(ctx context.Context) error
	Install(ctx context.Context, name string) bool
}

// InstallLister reads install records. May be nil when no database is configured.
type InstallLister interface {
	FetchAll(ctx context.Context) ([]entity.ExtensionInstall, error)
}

// RegisterExtensionRoutes mounts the /extensions routes on e, guarded by mw.
//
//	GET  /extensions                 all names
//	GET  /extensions/installed       install records
//	GET  /extensions/:type           names of one type
//	GET  /extensions/:type/index.js  compiled app bundle (public)
//	POST /extensions/reload
//	POST /extensions/install         {"name": "..."}
func RegisterExtensionRoutes(e *echo.Echo, m Manager, installs InstallLister, mw ...echo.MiddlewareFunc) {
	g := e.Group("/extensions", mw...)

	g.GET("", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"data": m.ListExtensions("")})
	})

	g.GET("/installed", func(c echo.Context) error {
		if installs == nil {
			return c.JSON(http.StatusOK, echo.Map{"data": []entity.ExtensionInstall{}})
		}
		recs, err := installs.FetchAll(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, echo.Map{"data": recs})
	})

	g.GET("/:type", func(c echo.Context) error {
		t, ok := extension.ParseType(c.Param("type"))
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown extension type " + c.Param("type")})
		}
		return c.JSON(http.StatusOK, echo.Map{"data": m.ListExtensions(t)})
	})

	g.GET("/:type/index.js", func(c echo.Context) error {
		t, ok := extension.ParseType(c.Param("type"))
		if !ok || !t.IsApp() {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		code, ok := m.Bundle(t)
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
		return c.Blob(http.StatusOK, "application/javascript; charset=utf-8", []byte(code))
	})

	g.POST("/reload", func(c echo.Context) error {
		if err := m.Reload(c.Request().Context()); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
		}
		return c.NoContent(http.StatusNoContent)
	})

	g.POST("/install", func(c echo.Context) error {
		var body struct {
			Name string `json:"name"`
		}
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		if err := extension.ValidateName(body.Name); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		if !m.Install(c.Request().Context(), body.Name) {
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "couldn't install " + body.Name})
		}
		return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{"name": body.Name, "installed": true}})
	})
}
