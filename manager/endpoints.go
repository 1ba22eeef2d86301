package manager

import (
	"fmt"

	"go.uber.org/zap"

	"extensions.GO/api"
	"extensions.GO/core/loader"
	"extensions.GO/extension"
	"extensions.GO/sdk"
)

// registeredEndpoint records a mounted endpoint extension. The routes themselves live in
// the shared router and are cleared wholesale; path is the module teardown evicts.
type registeredEndpoint struct {
	extension string
	path      string
}

// registerEndpoints mounts every endpoint extension on a staged generation and publishes
// it once all of them ran, so requests never see a half-built router.
func (m *Manager) registerEndpoints(store *extension.Store) {
	gen := m.router.Next()
	for _, ext := range store.ByType(extension.TypeEndpoint) {
		if err := m.registerEndpoint(gen, ext); err != nil {
			m.log.Warn("couldn't register endpoint", zap.String("extension", ext.Name), zap.Error(err))
		}
	}
	m.router.Swap(gen)
}

func (m *Manager) registerEndpoint(gen *api.Generation, ext extension.Extension) (err error) {
	path := ext.EntrypointPath()
	mod, err := m.loader.Load(path)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			m.loader.Unload(path)
		}
	}()

	var (
		mount    string
		register sdk.EndpointFunc
	)
	switch exp := mod.Export.(type) {
	case loader.Named:
		mount, register = ext.Name, exp.Register
	case loader.Scoped:
		mount, register = exp.ID, exp.Register
	default:
		return fmt.Errorf("%s does not export an endpoint", path)
	}
	if register == nil || mount == "" {
		return fmt.Errorf("%s exports an incomplete endpoint", path)
	}

	if err := callEndpoint(register, gen.Mount(mount), m.capabilitiesFor(ext)); err != nil {
		return err
	}
	gen.Commit(mount)
	m.endpoints = append(m.endpoints, registeredEndpoint{extension: ext.Name, path: path})
	m.log.Debug("endpoint mounted", zap.String("extension", ext.Name), zap.String("mount", "/"+mount))
	return nil
}

func callEndpoint(register sdk.EndpointFunc, r sdk.Router, caps sdk.Capabilities) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("register panicked: %v", rec)
		}
	}()
	return register(r, caps)
}
