package sdk

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ItemsService reads and writes rows of a collection (table).
type ItemsService interface {
	ReadMany(ctx context.Context, collection string, limit int) ([]map[string]any, error)
	ReadOne(ctx context.Context, collection string, id any) (map[string]any, error)
	CreateOne(ctx context.Context, collection string, item map[string]any) error
}

// Services is the service layer handed to extensions.
type Services struct {
	Items ItemsService
}

// Field describes one column.
type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Primary  bool   `json:"primary"`
}

// Collection describes one table.
type Collection struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// SchemaOverview is the database layout as seen by extensions.
type SchemaOverview struct {
	Collections map[string]Collection `json:"collections"`
}

// Exceptions builds the HTTP errors extensions may return from handlers.
type Exceptions struct {
	Forbidden          func(msg string) error
	InvalidPayload     func(msg string) error
	NotFound           func(msg string) error
	ServiceUnavailable func(msg string) error
}

func httpError(code int) func(string) error {
	return func(msg string) error {
		if msg == "" {
			msg = http.StatusText(code)
		}
		return echo.NewHTTPError(code, msg)
	}
}

// DefaultExceptions maps each exception kind onto its HTTP status.
func DefaultExceptions() Exceptions {
	return Exceptions{
		Forbidden:          httpError(http.StatusForbidden),
		InvalidPayload:     httpError(http.StatusBadRequest),
		NotFound:           httpError(http.StatusNotFound),
		ServiceUnavailable: httpError(http.StatusServiceUnavailable),
	}
}
