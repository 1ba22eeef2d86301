package sdk

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestBindings(t *testing.T) {
	bindings := []Binding{
		Schedule("@hourly", func(context.Context) error { return nil }),
		On("items.create", func(context.Context, map[string]any) error { return nil }),
	}
	if s, ok := bindings[0].(Scheduled); !ok || s.Expr != "@hourly" {
		t.Errorf("bindings[0] = %#v, want Scheduled @hourly", bindings[0])
	}
	if e, ok := bindings[1].(OnEvent); !ok || e.Event != "items.create" {
		t.Errorf("bindings[1] = %#v, want OnEvent items.create", bindings[1])
	}
}

func TestDefaultExceptions(t *testing.T) {
	ex := DefaultExceptions()
	cases := map[int]error{
		http.StatusForbidden:          ex.Forbidden("nope"),
		http.StatusBadRequest:         ex.InvalidPayload(""),
		http.StatusNotFound:           ex.NotFound("missing"),
		http.StatusServiceUnavailable: ex.ServiceUnavailable("down"),
	}
	for code, err := range cases {
		var he *echo.HTTPError
		if !errors.As(err, &he) {
			t.Fatalf("%d: not an *echo.HTTPError: %v", code, err)
		}
		if he.Code != code {
			t.Errorf("code = %d, want %d", he.Code, code)
		}
	}
	var he *echo.HTTPError
	errors.As(ex.InvalidPayload(""), &he)
	if he.Message != "Bad Request" {
		t.Errorf("empty message = %v, want status text", he.Message)
	}
}

func TestSymbolsCoverExports(t *testing.T) {
	syms := Symbols["extensions.GO/sdk/sdk"]
	for _, name := range []string{"Capabilities", "Binding", "Schedule", "On", "Endpoint", "Router", "Context"} {
		if _, ok := syms[name]; !ok {
			t.Errorf("Symbols missing %s", name)
		}
	}
}
