// Package firestore implements store.Store on Cloud Firestore, which the
// document layout (subcollections per family) maps onto directly.
package firestore

import (
	"context"
	"fmt"

	cloudfirestore "cloud.google.com/go/firestore"
	"family-calendar-go/internal/config"
	"family-calendar-go/internal/store"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Store struct {
	client *cloudfirestore.Client
}

func New(ctx context.Context, cfg config.FirestoreConfig) (*Store, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firestore project id is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := cloudfirestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Get(ctx context.Context, path string) (store.Document, error) {
	snap, err := s.client.Doc(path).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return store.Document{}, store.ErrNotFound
	}
	if err != nil {
		return store.Document{}, err
	}
	return toDocument(path, snap.Data()), nil
}

func (s *Store) Set(ctx context.Context, path string, data map[string]any) error {
	_, err := s.client.Doc(path).Set(ctx, data)
	return err
}

func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	_, err := s.client.Doc(path).Update(ctx, toUpdates(fields))
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("update %s: %w", path, store.ErrNotFound)
	}
	return err
}

func (s *Store) Delete(ctx context.Context, path string) error {
	_, err := s.client.Doc(path).Delete(ctx)
	return err
}

func (s *Store) QueryEq(ctx context.Context, collection, field string, value any) ([]store.Document, error) {
	query := s.client.Collection(collection).Where(field, "==", value)
	return s.collect(ctx, collection, query.Documents(ctx))
}

func (s *Store) QueryRange(ctx context.Context, collection, field string, lo, hi any) ([]store.Document, error) {
	query := s.client.Collection(collection).
		Where(field, ">=", lo).
		Where(field, "<", hi).
		OrderBy(field, cloudfirestore.Asc)
	return s.collect(ctx, collection, query.Documents(ctx))
}

func (s *Store) List(ctx context.Context, collection string, limit int) ([]store.Document, error) {
	query := s.client.Collection(collection).Query
	if limit > 0 {
		query = query.Limit(limit)
	}
	return s.collect(ctx, collection, query.Documents(ctx))
}

func (s *Store) collect(ctx context.Context, collection string, iter *cloudfirestore.DocumentIterator) ([]store.Document, error) {
	defer iter.Stop()

	var docs []store.Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, toDocument(collection+"/"+snap.Ref.ID, snap.Data()))
	}
}

func (s *Store) RunTransaction(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.client.RunTransaction(ctx, func(ctx context.Context, t *cloudfirestore.Transaction) error {
		wrapped := &tx{ctx: ctx, store: s, t: t}
		if err := fn(wrapped); err != nil {
			return err
		}
		return wrapped.apply()
	})
}

type txOp struct {
	kind string
	path string
	data map[string]any
}

type tx struct {
	ctx   context.Context
	store *Store
	t     *cloudfirestore.Transaction
	ops   []txOp
}

// Writes are buffered until apply because Firestore transactions demand all
// reads before the first write.
func (t *tx) Get(_ context.Context, path string) (store.Document, error) {
	snap, err := t.t.Get(t.store.client.Doc(path))
	if status.Code(err) == codes.NotFound {
		return store.Document{}, store.ErrNotFound
	}
	if err != nil {
		return store.Document{}, err
	}
	return toDocument(path, snap.Data()), nil
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
		ref := t.store.client.Doc(op.path)
		var err error
		switch op.kind {
		case "set":
			err = t.t.Set(ref, op.data)
		case "update":
			err = t.t.Update(ref, toUpdates(op.data))
		case "delete":
			err = t.t.Delete(ref)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func toDocument(path string, data map[string]any) store.Document {
	_, id := store.SplitPath(path)
	return store.Document{Path: path, ID: id, Data: data}
}

func toUpdates(fields map[string]any) []cloudfirestore.Update {
	updates := make([]cloudfirestore.Update, 0, len(fields))
	for key, value := range fields {
		updates = append(updates, cloudfirestore.Update{Path: key, Value: value})
	}
	return updates
}
