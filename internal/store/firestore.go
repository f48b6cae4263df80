package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Firestore is the platform's default RowStore.
type Firestore struct {
	client *firestore.Client
}

var _ RowStore = (*Firestore)(nil)

// NewFirestore opens a client for projectID. Credentials come from opts or
// the environment's application default credentials.
func NewFirestore(ctx context.Context, projectID string, opts ...option.ClientOption) (*Firestore, error) {
	if projectID == "" {
		return nil, errors.New("firestore project id cannot be empty")
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &Firestore{client: client}, nil
}

func (s *Firestore) Query(ctx context.Context, collection string, f Filters) ([]Row, error) {
	q := s.client.Collection(collection).Query
	for _, p := range f.Predicates {
		q = q.Where(p.Field, string(p.Op), p.Value)
	}
	if f.OrderBy != nil {
		dir := firestore.Asc
		if f.OrderBy.Desc {
			dir = firestore.Desc
		}
		q = q.OrderBy(f.OrderBy.Field, dir)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()
	out := []Row{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", collection, err)
		}
		row := Row(doc.Data())
		row["id"] = doc.Ref.ID
		out = append(out, row)
	}
	return out, nil
}

// Schema infers the field list from the first document of the collection.
func (s *Firestore) Schema(ctx context.Context, collection string) (Schema, error) {
	iter := s.client.Collection(collection).Limit(1).Documents(ctx)
	defer iter.Stop()
	doc, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return Schema{}, fmt.Errorf("collection %q has no documents", collection)
	}
	if err != nil {
		return Schema{}, fmt.Errorf("sample %s: %w", collection, err)
	}
	return inferSchema(collection, doc.Data()), nil
}

// Seed writes rows into collection, using each row's "id" as document id
// when present.
func (s *Firestore) Seed(ctx context.Context, collection string, rows []Row) error {
	bw := s.client.BulkWriter(ctx)
	for _, r := range rows {
		ref := s.client.Collection(collection).NewDoc()
		if id, ok := r["id"].(string); ok && id != "" {
			ref = s.client.Collection(collection).Doc(id)
		}
		if _, err := bw.Set(ref, map[string]any(r)); err != nil {
			bw.End()
			return fmt.Errorf("seed %s: %w", collection, err)
		}
	}
	bw.End()
	return nil
}

func (s *Firestore) Close() error { return s.client.Close() }
