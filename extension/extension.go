// Package extension describes discovered extensions and how they are found on disk.
package extension

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"
)

// Type is the closed set of extension kinds.
type Type string

const (
	TypeHook     Type = "hook"
	TypeEndpoint Type = "endpoint"

	TypeInterface Type = "interface"
	TypeDisplay   Type = "display"
	TypeLayout    Type = "layout"
	TypeModule    Type = "module"
	TypePanel     Type = "panel"
)

// APITypes run inside the server process.
var APITypes = []Type{TypeHook, TypeEndpoint}

// AppTypes are compiled into browser bundles.
var AppTypes = []Type{TypeInterface, TypeDisplay, TypeLayout, TypeModule, TypePanel}

// AllTypes lists every known type, API types first.
var AllTypes = append(append([]Type{}, APITypes...), AppTypes...)

// NativePrefix marks an entrypoint served by a compiled-in module.
const NativePrefix = "native:"

// ErrInvalidName is returned for names that are not installable package names.
var ErrInvalidName = errors.New("invalid extension name")

var namePattern = regexp.MustCompile(`^(@[a-z0-9][a-z0-9._-]*/)?[a-z0-9][a-z0-9._-]*$`)

// Extension is one discovered unit of pluggable code. Values are immutable once discovered.
type Extension struct {
	Name       string `json:"name"`
	Type       Type   `json:"type"`
	Path       string `json:"path"`
	Entrypoint string `json:"entrypoint"`
	Version    string `json:"version,omitempty"`
	Local      bool   `json:"local"`
}

// EntrypointPath is the resolved module path, the key the loader caches by.
func (e Extension) EntrypointPath() string {
	if strings.HasPrefix(e.Entrypoint, NativePrefix) {
		return e.Entrypoint
	}
	entry := e.Entrypoint
	if entry == "" {
		entry = DefaultEntrypoint(e.Type)
	}
	if filepath.IsAbs(entry) {
		return filepath.Clean(entry)
	}
	return filepath.Join(e.Path, entry)
}

// DefaultEntrypoint is the conventional entry file for a type.
func DefaultEntrypoint(t Type) string {
	if t.IsApp() {
		return "index.js"
	}
	return "main.go"
}

// ParseType validates a type name.
func ParseType(s string) (Type, bool) {
	for _, t := range AllTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// IsApp reports whether t is a browser-facing type.
func (t Type) IsApp() bool {
	for _, a := range AppTypes {
		if a == t {
			return true
		}
	}
	return false
}

// Plural is the folder name used for local extensions of this type.
func (t Type) Plural() string {
	return string(t) + "s"
}

// EnabledTypes returns the types active for the given mode.
func EnabledTypes(serveApp bool) []Type {
	if serveApp {
		return AllTypes
	}
	return APITypes
}

// ValidateName checks name against the installable package pattern.
func ValidateName(name string) error {
	if len(name) == 0 || len(name) > 214 || !namePattern.MatchString(name) {
		return ErrInvalidName
	}
	return nil
}

func containsType(types []Type, t Type) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}
