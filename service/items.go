// Package service holds the services handed to extensions through their capabilities.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrInvalidCollection is returned for collection names that are not plain identifiers.
	ErrInvalidCollection = errors.New("invalid collection name")
	// ErrItemNotFound is returned by ReadOne when no row matches.
	ErrItemNotFound = errors.New("item not found")
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Emitter is the part of the event bus the items service publishes to.
type Emitter interface {
	Emit(ctx context.Context, event string, payload map[string]any) int
}

// ItemsService reads and writes rows of arbitrary tables. Collections are table names.
type ItemsService struct {
	db  *gorm.DB
	bus Emitter
	// PrimaryKey is the column ReadOne matches against.
	PrimaryKey string
}

// NewItemsService returns an items service. bus may be nil.
func NewItemsService(db *gorm.DB, bus Emitter) *ItemsService {
	return &ItemsService{db: db, bus: bus, PrimaryKey: "id"}
}

// ReadMany returns up to limit rows. A limit <= 0 reads everything.
func (s *ItemsService) ReadMany(ctx context.Context, collection string, limit int) ([]map[string]any, error) {
	if !identPattern.MatchString(collection) {
		return nil, ErrInvalidCollection
	}
	q := s.db.WithContext(ctx).Table(collection)
	if limit > 0 {
		q = q.Limit(limit)
	}
	rows := []map[string]any{}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read %s: %w", collection, err)
	}
	return rows, nil
}

// ReadOne returns the row whose primary key equals id.
func (s *ItemsService) ReadOne(ctx context.Context, collection string, id any) (map[string]any, error) {
	if !identPattern.MatchString(collection) {
		return nil, ErrInvalidCollection
	}
	var rows []map[string]any
	err := s.db.WithContext(ctx).
		Table(collection).
		Where(clause.Eq{Column: clause.Column{Name: s.PrimaryKey}, Value: id}).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", collection, err)
	}
	if len(rows) == 0 {
		return nil, ErrItemNotFound
	}
	return rows[0], nil
}

// CreateOne inserts item and publishes items.create and <collection>.items.create.
func (s *ItemsService) CreateOne(ctx context.Context, collection string, item map[string]any) error {
	if !identPattern.MatchString(collection) {
		return ErrInvalidCollection
	}
	if len(item) == 0 {
		return errors.New("empty item")
	}
	if err := s.db.WithContext(ctx).Table(collection).Create(item).Error; err != nil {
		return fmt.Errorf("create in %s: %w", collection, err)
	}
	if s.bus != nil {
		payload := map[string]any{"collection": collection, "payload": item}
		s.bus.Emit(ctx, "items.create", payload)
		s.bus.Emit(ctx, collection+".items.create", payload)
	}
	return nil
}
