package bundle

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Entry is one virtual entry module to compile.
type Entry struct {
	Name       string
	Contents   string
	ResolveDir string
	// Shared names are kept external; those present in Aliases are rewritten to the URL.
	Shared  []string
	Aliases map[string]string
}

// Bundler compiles an entry into a single module.
type Bundler interface {
	Bundle(ctx context.Context, entry Entry) (string, error)
}

// ESBuild bundles with esbuild into a compact ES module.
type ESBuild struct{}

// Bundle compiles entry.
func (ESBuild) Bundle(ctx context.Context, entry Entry) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	result := api.Build(api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   entry.Contents,
			ResolveDir: entry.ResolveDir,
			Sourcefile: entry.Name + ".entry.js",
			Loader:     api.LoaderJS,
		},
		Bundle:           true,
		Write:            false,
		Format:           api.FormatESModule,
		Platform:         api.PlatformBrowser,
		MinifyWhitespace: true,
		LogLevel:         api.LogLevelSilent,
		Plugins:          []api.Plugin{sharedPlugin(entry.Shared, entry.Aliases)},
	})
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, m := range result.Errors {
			if m.Location != nil {
				msgs = append(msgs, fmt.Sprintf("%s:%d: %s", m.Location.File, m.Location.Line, m.Text))
				continue
			}
			msgs = append(msgs, m.Text)
		}
		return "", errors.New(strings.Join(msgs, "; "))
	}
	if len(result.OutputFiles) == 0 {
		return "", errors.New("bundler produced no output")
	}
	return string(result.OutputFiles[0].Contents), nil
}

func sharedPlugin(shared []string, aliases map[string]string) api.Plugin {
	quoted := make([]string, len(shared))
	for i, dep := range shared {
		quoted[i] = regexp.QuoteMeta(dep)
	}
	filter := "^(" + strings.Join(quoted, "|") + ")$"
	return api.Plugin{
		Name: "shared-deps",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: filter}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				if u, ok := aliases[args.Path]; ok {
					return api.OnResolveResult{Path: u, External: true}, nil
				}
				return api.OnResolveResult{Path: args.Path, External: true}, nil
			})
		},
	}
}
