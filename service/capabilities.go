package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"extensions.GO/sdk"
)

// ErrNoDatabase is returned by database-backed capabilities when no database is configured.
var ErrNoDatabase = errors.New("no database configured")

// NewCapabilities assembles the bundle handed to every hook and endpoint registration.
// db may be nil, in which case the schema accessor reports ErrNoDatabase and Items is unset.
func NewCapabilities(db *gorm.DB, bus Emitter, env map[string]string, logger *zap.Logger) sdk.Capabilities {
	if logger == nil {
		logger = zap.NewNop()
	}
	caps := sdk.Capabilities{
		Exceptions: sdk.DefaultExceptions(),
		Env:        env,
		Database:   db,
		Logger:     logger,
		GetSchema: func(context.Context) (*sdk.SchemaOverview, error) {
			return nil, ErrNoDatabase
		},
	}
	if db != nil {
		caps.Services.Items = NewItemsService(db, bus)
		caps.GetSchema = NewSchemaReader(db).Overview
	}
	return caps
}
