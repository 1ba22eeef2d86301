package bundle

import (
	"net/url"
	"os"
	"strings"

	"go.uber.org/zap"
)

// SharedDeps are provided by the host app. Bundles import them from the hosted
// assets instead of inlining a copy.
var SharedDeps = []string{"@extensions/sdk", "vue", "vue-router", "vue-i18n", "pinia"}

// Slug is the file-name form of a dependency: "@scope/name" becomes "scope_name".
func Slug(dep string) string {
	return strings.ReplaceAll(strings.TrimPrefix(dep, "@"), "/", "_")
}

// ResolveShared maps each dependency to the public URL of its pre-built asset in
// assetsDir. A file matches when its name up to the first dot equals the slug, so
// hashed names like vue.3f2a1b.js are found. Missing assets are logged and left out.
func ResolveShared(assetsDir, publicURL string, deps []string, logger *zap.Logger) map[string]string {
	if logger == nil {
		logger = zap.NewNop()
	}
	files := map[string]string{}
	entries, err := os.ReadDir(assetsDir)
	if err != nil {
		logger.Warn("couldn't read app assets", zap.String("path", assetsDir), zap.Error(err))
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		stem, _, _ := strings.Cut(name, ".")
		if _, seen := files[stem]; !seen {
			files[stem] = name
		}
	}

	aliases := make(map[string]string, len(deps))
	for _, dep := range deps {
		file, ok := files[Slug(dep)]
		if !ok {
			logger.Warn("couldn't find shared extension dependency", zap.String("dependency", dep))
			continue
		}
		u, err := url.JoinPath(publicURL, "admin", "assets", file)
		if err != nil {
			logger.Warn("invalid public URL", zap.String("url", publicURL), zap.Error(err))
			continue
		}
		aliases[dep] = u
	}
	return aliases
}
