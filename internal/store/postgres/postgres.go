// Package postgres implements store.Store on a single documents table with a
// JSONB payload, so the document layout stays identical across backends.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"family-calendar-go/internal/store"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type documentRow struct {
	Path       string         `gorm:"primaryKey;size:512"`
	Collection string         `gorm:"size:512;not null;index:idx_documents_collection"`
	Data       datatypes.JSON `gorm:"not null"`
}

func (documentRow) TableName() string {
	return "documents"
}

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return nil, fmt.Errorf("migrate documents table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, path string) (store.Document, error) {
	return get(ctx, s.db, path)
}

func get(ctx context.Context, db *gorm.DB, path string) (store.Document, error) {
	var row documentRow
	err := db.WithContext(ctx).Where("path = ?", path).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.Document{}, store.ErrNotFound
	}
	if err != nil {
		return store.Document{}, err
	}
	return toDocument(row)
}

func (s *Store) Set(ctx context.Context, path string, data map[string]any) error {
	return set(ctx, s.db, path, data)
}

func set(ctx context.Context, db *gorm.DB, path string, data map[string]any) error {
	row, err := toRow(path, data)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "path"}},
			DoUpdates: clause.AssignmentColumns([]string{"collection", "data"}),
		}).
		Create(&row).Error
}

func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return update(ctx, tx, path, fields)
	})
}

// update merges fields into the stored payload under a row lock, so
// concurrent field updates on one document do not lose writes.
func update(ctx context.Context, tx *gorm.DB, path string, fields map[string]any) error {
	var row documentRow
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("path = ?", path).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("update %s: %w", path, store.ErrNotFound)
	}
	if err != nil {
		return err
	}

	var data map[string]any
	if err := json.Unmarshal(row.Data, &data); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	for key, value := range fields {
		data[key] = value
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return tx.WithContext(ctx).
		Model(&documentRow{}).
		Where("path = ?", path).
		Update("data", datatypes.JSON(raw)).Error
}

func (s *Store) Delete(ctx context.Context, path string) error {
	return del(ctx, s.db, path)
}

func del(ctx context.Context, db *gorm.DB, path string) error {
	return db.WithContext(ctx).Where("path = ?", path).Delete(&documentRow{}).Error
}

func (s *Store) QueryEq(ctx context.Context, collection, field string, value any) ([]store.Document, error) {
	text, err := scalarText(value)
	if err != nil {
		return nil, err
	}
	var rows []documentRow
	err = s.db.WithContext(ctx).
		Where("collection = ? AND data->>? = ?", collection, field, text).
		Order("path").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDocuments(rows)
}

func (s *Store) QueryRange(ctx context.Context, collection, field string, lo, hi any) ([]store.Document, error) {
	loText, err := scalarText(lo)
	if err != nil {
		return nil, err
	}
	hiText, err := scalarText(hi)
	if err != nil {
		return nil, err
	}
	var rows []documentRow
	err = s.db.WithContext(ctx).
		Where("collection = ? AND data->>? >= ? AND data->>? < ?", collection, field, loText, field, hiText).
		Order(clause.OrderBy{Expression: clause.Expr{SQL: "data->>?", Vars: []any{field}}}).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDocuments(rows)
}

func (s *Store) List(ctx context.Context, collection string, limit int) ([]store.Document, error) {
	query := s.db.WithContext(ctx).Where("collection = ?", collection).Order("path")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []documentRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDocuments(rows)
}

func (s *Store) RunTransaction(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		t := &tx{ctx: ctx, db: gtx}
		if err := fn(t); err != nil {
			return err
		}
		return t.apply()
	})
}

type txOp struct {
	kind string
	path string
	data map[string]any
}

type tx struct {
	ctx context.Context
	db  *gorm.DB
	ops []txOp
}

func (t *tx) Get(ctx context.Context, path string) (store.Document, error) {
	return get(ctx, t.db, path)
}

func (t *tx) Set(path string, data map[string]any) {
	t.ops = append(t.ops, txOp{kind: "set", path: path, data: data})
}

func (t *tx) Update(path string, fields map[string]any) {
	t.ops = append(t.ops, txOp{kind: "update", path: path, data: fields})
}

func (t *tx) Delete(path string) {
	t.ops = append(t.ops, txOp{kind: "delete", path: path})
}

func (t *tx) apply() error {
	for _, op := range t.ops {
		var err error
		switch op.kind {
		case "set":
			err = set(t.ctx, t.db, op.path, op.data)
		case "update":
			err = update(t.ctx, t.db, op.path, op.data)
		case "delete":
			err = del(t.ctx, t.db, op.path)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func toRow(path string, data map[string]any) (documentRow, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return documentRow{}, err
	}
	collection, _ := store.SplitPath(path)
	return documentRow{Path: path, Collection: collection, Data: datatypes.JSON(raw)}, nil
}

func toDocument(row documentRow) (store.Document, error) {
	var data map[string]any
	if err := json.Unmarshal(row.Data, &data); err != nil {
		return store.Document{}, fmt.Errorf("decode %s: %w", row.Path, err)
	}
	_, id := store.SplitPath(row.Path)
	return store.Document{Path: row.Path, ID: id, Data: data}, nil
}

func toDocuments(rows []documentRow) ([]store.Document, error) {
	docs := make([]store.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := toDocument(row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// scalarText renders a query operand the way postgres' ->> operator renders
// stored JSON scalars. Indexed fields in this schema are strings and numbers.
func scalarText(v any) (string, error) {
	switch typed := v.(type) {
	case string:
		return typed, nil
	case float64, int, int64, bool:
		return fmt.Sprintf("%v", typed), nil
	default:
		return "", fmt.Errorf("unsupported query operand type %T", v)
	}
}
