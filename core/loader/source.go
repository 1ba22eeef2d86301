package loader

import (
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"reflect"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"extensions.GO/sdk"
)

// ErrNoExport is returned when a module exposes neither Endpoint nor a known Register.
var ErrNoExport = errors.New("module has no recognised export")

var (
	hookFuncType     = reflect.TypeOf(sdk.HookFunc(nil))
	endpointFuncType = reflect.TypeOf(sdk.EndpointFunc(nil))
)

// newInterpreter returns an interpreter with the standard library and the sdk loaded.
func newInterpreter(goPath string) (*interp.Interpreter, error) {
	i := interp.New(interp.Options{GoPath: goPath})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib symbols: %w", err)
	}
	if err := i.Use(sdk.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load sdk symbols: %w", err)
	}
	return i, nil
}

// packageName reads the package clause of src.
func packageName(path string, src []byte) (string, error) {
	f, err := parser.ParseFile(token.NewFileSet(), path, src, parser.PackageClauseOnly)
	if err != nil {
		return "", fmt.Errorf("syntax error: %w", err)
	}
	return f.Name.Name, nil
}

// evalSource compiles src and decodes its export.
func evalSource(goPath, path string, src []byte) (i *interp.Interpreter, exp Export, err error) {
	defer func() {
		if r := recover(); r != nil {
			i, exp, err = nil, nil, fmt.Errorf("panic while evaluating %s: %v", path, r)
		}
	}()

	pkg, err := packageName(path, src)
	if err != nil {
		return nil, nil, err
	}
	i, err = newInterpreter(goPath)
	if err != nil {
		return nil, nil, err
	}
	if _, err := i.Eval(string(src)); err != nil {
		return nil, nil, fmt.Errorf("failed to evaluate source: %w", err)
	}
	exp, err = decodeExport(i, pkg)
	if err != nil {
		return nil, nil, err
	}
	return i, exp, nil
}

// decodeExport picks the module's shape: a package var Endpoint wins over Register.
func decodeExport(i *interp.Interpreter, pkg string) (Export, error) {
	if v, err := i.Eval(pkg + ".Endpoint"); err == nil && v.IsValid() {
		ep, ok := v.Interface().(sdk.Endpoint)
		if !ok {
			return nil, fmt.Errorf("Endpoint has type %s, want sdk.Endpoint", v.Type())
		}
		if ep.ID == "" || ep.Handler == nil {
			return nil, fmt.Errorf("Endpoint needs both ID and Handler")
		}
		return Scoped{ID: ep.ID, Register: ep.Handler}, nil
	}

	v, err := i.Eval(pkg + ".Register")
	if err != nil || !v.IsValid() || v.Kind() != reflect.Func {
		return nil, ErrNoExport
	}
	switch {
	case v.Type().ConvertibleTo(hookFuncType):
		return Hook{Register: v.Convert(hookFuncType).Interface().(sdk.HookFunc)}, nil
	case v.Type().ConvertibleTo(endpointFuncType):
		return Named{Register: v.Convert(endpointFuncType).Interface().(sdk.EndpointFunc)}, nil
	}
	return nil, fmt.Errorf("%w: Register has signature %s", ErrNoExport, v.Type())
}
