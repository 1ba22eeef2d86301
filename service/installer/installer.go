// Package installer fetches extension packages from a registry into the packages folder.
package installer

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"extensions.GO/extension"
	entity "extensions.GO/model/entity"
)

var (
	// ErrNotFound is returned when the registry has no package under the name.
	ErrNotFound = errors.New("package not found in registry")
	// ErrNoRegistry is returned when no registry URL is configured.
	ErrNoRegistry = errors.New("no extensions registry configured")
)

// MaxPackageSize bounds the number of bytes extracted from one archive.
const MaxPackageSize = 64 << 20

// Recorder persists install records.
type Recorder interface {
	Upsert(ctx context.Context, rec *entity.ExtensionInstall) error
}

// Installer downloads <registry>/<escaped-name>.tar.gz and unpacks it into <root>/packages/<name>.
type Installer struct {
	RegistryURL string
	Root        string
	Client      *http.Client
	Records     Recorder
	Logger      *zap.Logger
}

// New returns an installer. records may be nil.
func New(registryURL, root string, records Recorder, logger *zap.Logger) *Installer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Installer{
		RegistryURL: strings.TrimRight(registryURL, "/"),
		Root:        root,
		Client:      &http.Client{Timeout: 60 * time.Second},
		Records:     records,
		Logger:      logger,
	}
}

// Install fetches and unpacks name. The target folder is only replaced once the archive
// has been extracted and its manifest checked.
func (i *Installer) Install(ctx context.Context, name string) error {
	if err := extension.ValidateName(name); err != nil {
		return err
	}
	if i.RegistryURL == "" {
		return ErrNoRegistry
	}

	body, err := i.download(ctx, name)
	if err != nil {
		return err
	}
	defer body.Close()

	packages := filepath.Join(i.Root, extension.PackagesDir)
	if err := os.MkdirAll(packages, 0o755); err != nil {
		return err
	}
	tmp, err := os.MkdirTemp(packages, ".install-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	if err := Extract(body, tmp); err != nil {
		return fmt.Errorf("extract %s: %w", name, err)
	}

	m, err := extension.ReadManifest(tmp)
	if err != nil {
		return fmt.Errorf("package %s: %w", name, err)
	}
	if m.Name == "" {
		m.Name = name
	}
	if m.Name != name {
		return fmt.Errorf("package %s: manifest names %q", name, m.Name)
	}
	if _, ok := extension.ParseType(string(m.Type)); !ok {
		return fmt.Errorf("package %s: unknown extension type %q", name, m.Type)
	}

	dest := filepath.Join(packages, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	if err := os.RemoveAll(dest); err != nil {
		return err
	}
	if err := os.Rename(tmp, dest); err != nil {
		return err
	}
	i.Logger.Info("installed extension package", zap.String("extension", name), zap.String("version", m.Version))

	if i.Records == nil {
		return nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return i.Records.Upsert(ctx, &entity.ExtensionInstall{
		Name:     name,
		Version:  m.Version,
		Type:     string(m.Type),
		Path:     dest,
		Manifest: datatypes.JSON(raw),
	})
}

func (i *Installer) download(ctx context.Context, name string) (io.ReadCloser, error) {
	u := i.RegistryURL + "/" + url.PathEscape(name) + ".tar.gz"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := i.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", name, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("download %s: registry returned %s", name, resp.Status)
	}
	return resp.Body, nil
}

// Extract unpacks a gzipped tarball into dest. A leading "package/" folder is stripped.
// Entries escaping dest, links and devices are rejected.
func Extract(r io.Reader, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return err
	}
	defer gz.Close()

	root, err := filepath.Abs(dest)
	if err != nil {
		return err
	}
	tr := tar.NewReader(gz)
	var written int64
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		name := strings.TrimPrefix(filepath.ToSlash(hdr.Name), "./")
		name = strings.TrimPrefix(name, "package/")
		if name == "" || name == "package" {
			continue
		}
		target := filepath.Join(root, filepath.FromSlash(name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return fmt.Errorf("illegal path in archive: %s", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if written+hdr.Size > MaxPackageSize {
				return fmt.Errorf("archive exceeds %d bytes", MaxPackageSize)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if err != nil {
				return err
			}
			n, err := io.Copy(f, io.LimitReader(tr, hdr.Size))
			f.Close()
			if err != nil {
				return err
			}
			written += n
		case tar.TypeXGlobalHeader:
		default:
			return fmt.Errorf("unsupported entry %s in archive", hdr.Name)
		}
	}
}
