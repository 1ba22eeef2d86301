// Package api holds the HTTP surfaces: the shared router endpoint extensions mount on,
// and the extensions management controller.
package api

import (
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
)

// Router is the shared router endpoint extensions are mounted on. Each mount is a
// sub-router under "/<name>". Mounts are built on a Generation that no request can see,
// then published with Swap. The live echo instance is never written to.
type Router struct {
	mu     sync.RWMutex
	e      *echo.Echo
	mounts map[string]bool
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{e: newEcho(), mounts: make(map[string]bool)}
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return e
}

// Generation is the next set of mounts, staged until Router.Swap.
type Generation struct {
	e      *echo.Echo
	mounts map[string]bool
}

// Next starts an empty generation.
func (r *Router) Next() *Generation {
	return &Generation{e: newEcho(), mounts: make(map[string]bool)}
}

// Mount creates the sub-router for name at "/<name>". The name is not listed in Mounts
// until Commit.
func (g *Generation) Mount(name string) *echo.Group {
	return g.e.Group("/" + strings.Trim(name, "/"))
}

// Commit records name as mounted. Routes added to a group that is never committed stay
// in the generation's echo instance but are not listed.
func (g *Generation) Commit(name string) {
	g.mounts[strings.Trim(name, "/")] = true
}

// Swap makes g the live generation in one step.
func (r *Router) Swap(g *Generation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.e = g.e
	r.mounts = g.mounts
}

// Reset clears every mount. Requests in flight finish on the old routes.
func (r *Router) Reset() {
	r.Swap(r.Next())
}

// Mounts lists mount names, sorted.
func (r *Router) Mounts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.mounts))
	for name := range r.mounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Routes returns the routes currently registered by all mounts.
func (r *Router) Routes() []*echo.Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.e.Routes()
}

// ServeHTTP dispatches to the current mounts.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.RLock()
	e := r.e
	r.mu.RUnlock()
	e.ServeHTTP(w, req)
}

// MountOn attaches router to e under basePath.
func MountOn(e *echo.Echo, basePath string, router http.Handler) {
	basePath = "/" + strings.Trim(basePath, "/")
	h := echo.WrapHandler(http.StripPrefix(basePath, router))
	e.Any(basePath+"/*", h)
}
