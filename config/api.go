package config

// GetAuthSkipperPaths returns route paths that bypass admin authentication.
// App bundles are loaded by the browser before any admin session exists.
func GetAuthSkipperPaths() []string {
	return []string{"/extensions/:type/index.js"}
}
