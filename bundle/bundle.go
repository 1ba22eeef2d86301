// Package bundle compiles app extensions into one browser bundle per extension type.
package bundle

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"extensions.GO/extension"
)

// Generator builds the bundle map for all app extension types.
type Generator struct {
	Bundler   Bundler
	AssetsDir string
	PublicURL string
	Shared    []string
	Logger    *zap.Logger
}

// NewGenerator returns a generator using esbuild and the default shared dependencies.
func NewGenerator(assetsDir, publicURL string, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		Bundler:   ESBuild{},
		AssetsDir: assetsDir,
		PublicURL: publicURL,
		Shared:    SharedDeps,
		Logger:    logger,
	}
}

// Generate compiles one bundle per app type. A failure on any type fails the whole pass
// and no map is returned.
func (g *Generator) Generate(ctx context.Context, store *extension.Store) (map[extension.Type]string, error) {
	aliases := ResolveShared(g.AssetsDir, g.PublicURL, g.Shared, g.Logger)

	var mu sync.Mutex
	out := make(map[extension.Type]string, len(extension.AppTypes))
	eg, ctx := errgroup.WithContext(ctx)
	for _, t := range extension.AppTypes {
		t := t
		exts := store.ByType(t)
		eg.Go(func() error {
			code, err := g.Bundler.Bundle(ctx, Entry{
				Name:       string(t),
				Contents:   EntrySource(exts),
				ResolveDir: g.AssetsDir,
				Shared:     g.Shared,
				Aliases:    aliases,
			})
			if err != nil {
				return fmt.Errorf("bundle %s extensions: %w", t, err)
			}
			mu.Lock()
			out[t] = code
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// EntrySource is the virtual module importing every extension and exporting them as a list.
func EntrySource(exts []extension.Extension) string {
	var b strings.Builder
	names := make([]string, len(exts))
	for i, ext := range exts {
		names[i] = "e" + strconv.Itoa(i)
		fmt.Fprintf(&b, "import %s from %s;\n", names[i], strconv.Quote(filepath.ToSlash(ext.EntrypointPath())))
	}
	fmt.Fprintf(&b, "export default [%s];\n", strings.Join(names, ", "))
	return b.String()
}
