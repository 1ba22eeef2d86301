package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"extensions.GO/sdk"
)

// SchemaReader builds the schema overview from the database migrator.
type SchemaReader struct {
	db *gorm.DB
}

func NewSchemaReader(db *gorm.DB) *SchemaReader {
	return &SchemaReader{db: db}
}

// Overview lists every table and its columns.
func (r *SchemaReader) Overview(ctx context.Context) (*sdk.SchemaOverview, error) {
	m := r.db.WithContext(ctx).Migrator()
	tables, err := m.GetTables()
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	overview := &sdk.SchemaOverview{Collections: make(map[string]sdk.Collection, len(tables))}
	for _, table := range tables {
		cols, err := m.ColumnTypes(table)
		if err != nil {
			return nil, fmt.Errorf("columns of %s: %w", table, err)
		}
		c := sdk.Collection{Name: table, Fields: make([]sdk.Field, 0, len(cols))}
		for _, col := range cols {
			nullable, _ := col.Nullable()
			primary, _ := col.PrimaryKey()
			c.Fields = append(c.Fields, sdk.Field{
				Name:     col.Name(),
				Type:     col.DatabaseTypeName(),
				Nullable: nullable,
				Primary:  primary,
			})
		}
		overview.Collections[table] = c
	}
	return overview, nil
}
