package extension

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the descriptor file an extension folder may carry.
const ManifestFile = "extension.yaml"

// PackagesDir holds installed package extensions under the extensions root.
const PackagesDir = "packages"

// Manifest is the on-disk description of an extension.
type Manifest struct {
	Name       string `yaml:"name" json:"name"`
	Type       Type   `yaml:"type" json:"type"`
	Entrypoint string `yaml:"entrypoint,omitempty" json:"entrypoint,omitempty"`
	Version    string `yaml:"version,omitempty" json:"version,omitempty"`
}

// ReadManifest parses dir/extension.yaml. fs.ErrNotExist is returned as-is when absent.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ManifestFile, err)
	}
	return &m, nil
}

// Discoverer enumerates extensions. Failures are returned to the caller.
type Discoverer interface {
	EnsureDirs(root string, types []Type) error
	PackageExtensions(root string, types []Type) ([]Extension, error)
	LocalExtensions(root string, types []Type) ([]Extension, error)
}

// FS discovers extensions on the local filesystem.
type FS struct {
	Logger *zap.Logger
}

// NewFS returns a filesystem discoverer.
func NewFS(logger *zap.Logger) *FS {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FS{Logger: logger}
}

// EnsureDirs creates the root, one folder per type and the packages folder.
func (d *FS) EnsureDirs(root string, types []Type) error {
	dirs := []string{root, filepath.Join(root, PackagesDir)}
	for _, t := range types {
		dirs = append(dirs, filepath.Join(root, t.Plural()))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure %s: %w", dir, err)
		}
	}
	return nil
}

// PackageExtensions reads installed packages (root/packages/<name> or root/packages/@scope/<name>).
func (d *FS) PackageExtensions(root string, types []Type) ([]Extension, error) {
	base := filepath.Join(root, PackagesDir)
	dirs, err := packageDirs(base)
	if err != nil {
		return nil, err
	}

	var out []Extension
	for _, dir := range dirs {
		m, err := ReadManifest(dir)
		if err != nil {
			d.Logger.Warn("skipping package without a readable manifest", zap.String("path", dir), zap.Error(err))
			continue
		}
		name := m.Name
		if name == "" {
			rel, _ := filepath.Rel(base, dir)
			name = filepath.ToSlash(rel)
		}
		if err := ValidateName(name); err != nil {
			d.Logger.Warn("skipping package with invalid name", zap.String("extension", name))
			continue
		}
		if !containsType(types, m.Type) {
			d.Logger.Debug("skipping package of disabled type", zap.String("extension", name), zap.String("type", string(m.Type)))
			continue
		}
		entry := m.Entrypoint
		if entry == "" {
			entry = DefaultEntrypoint(m.Type)
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, err
		}
		out = append(out, Extension{
			Name:       name,
			Type:       m.Type,
			Path:       abs,
			Entrypoint: entry,
			Version:    m.Version,
		})
	}
	return out, nil
}

func packageDirs(base string) ([]string, error) {
	entries, err := os.ReadDir(base)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", base, err)
	}
	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dir := filepath.Join(base, entry.Name())
		if !strings.HasPrefix(entry.Name(), "@") {
			dirs = append(dirs, dir)
			continue
		}
		scoped, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", dir, err)
		}
		for _, s := range scoped {
			if s.IsDir() {
				dirs = append(dirs, filepath.Join(dir, s.Name()))
			}
		}
	}
	return dirs, nil
}

// LocalExtensions reads root/<type>s/<name> folders. The folder name is the extension name.
func (d *FS) LocalExtensions(root string, types []Type) ([]Extension, error) {
	var out []Extension
	for _, t := range types {
		typeDir := filepath.Join(root, t.Plural())
		entries, err := os.ReadDir(typeDir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", typeDir, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			dir := filepath.Join(typeDir, entry.Name())
			abs, err := filepath.Abs(dir)
			if err != nil {
				return nil, err
			}
			ext := Extension{
				Name:       entry.Name(),
				Type:       t,
				Path:       abs,
				Entrypoint: DefaultEntrypoint(t),
				Local:      true,
			}
			m, err := ReadManifest(dir)
			switch {
			case err == nil:
				if m.Entrypoint != "" {
					ext.Entrypoint = m.Entrypoint
				}
				ext.Version = m.Version
			case !errors.Is(err, fs.ErrNotExist):
				d.Logger.Warn("ignoring unreadable manifest", zap.String("extension", ext.Name), zap.Error(err))
			}
			out = append(out, ext)
		}
	}
	return out, nil
}

// Discover runs the full discovery pass: ensure folders, then packages, then local folders.
// A name seen twice keeps its first occurrence.
func Discover(d Discoverer, root string, types []Type, logger *zap.Logger) ([]Extension, error) {
	if err := d.EnsureDirs(root, types); err != nil {
		return nil, err
	}
	packages, err := d.PackageExtensions(root, types)
	if err != nil {
		return nil, err
	}
	local, err := d.LocalExtensions(root, types)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	out := make([]Extension, 0, len(packages)+len(local))
	for _, ext := range append(packages, local...) {
		if seen[ext.Name] {
			if logger != nil {
				logger.Warn("duplicate extension name, keeping the first", zap.String("extension", ext.Name), zap.String("path", ext.Path))
			}
			continue
		}
		seen[ext.Name] = true
		out = append(out, ext)
	}
	return out, nil
}
