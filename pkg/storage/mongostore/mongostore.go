// Package mongostore persists catalog documents in a MongoDB collection.
//
// Each document is keyed by its href and stores the raw JSON payload plus
// an update timestamp, so a whole catalog tree can be hosted in MongoDB and
// read back through the standard storage interfaces.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stacsmith/stacsmith/pkg/storage"
)

const (
	defaultDatabase   = "stacsmith"
	defaultCollection = "documents"
)

// Options configure Connect.
type Options struct {
	URI        string // mongodb:// connection string
	Database   string // defaults to "stacsmith"
	Collection string // defaults to "documents"
}

// Store keeps one document per href in a MongoDB collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type document struct {
	Href      string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Connect dials MongoDB, verifies the connection, and returns a Store
// backed by the configured collection. The caller must Close the store.
func Connect(ctx context.Context, opts Options) (*Store, error) {
	if opts.Database == "" {
		opts.Database = defaultDatabase
	}
	if opts.Collection == "" {
		opts.Collection = defaultCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &Store{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
	}, nil
}

// Get returns the document stored at href, or [storage.ErrNotFound].
func (s *Store) Get(ctx context.Context, href string) ([]byte, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.M{"_id": href}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("get %s: %w", href, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", href, err)
	}
	return doc.Data, nil
}

// Put upserts the document at href.
func (s *Store) Put(ctx context.Context, href string, data []byte) error {
	doc := document{Href: href, Data: data, UpdatedAt: time.Now().UTC()}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": href}, doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("put %s: %w", href, err)
	}
	return nil
}

// Delete removes the document at href. Missing documents surface as
// [storage.ErrNotFound].
func (s *Store) Delete(ctx context.Context, href string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": href})
	if err != nil {
		return fmt.Errorf("delete %s: %w", href, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete %s: %w", href, storage.ErrNotFound)
	}
	return nil
}

// Hrefs returns all stored hrefs, for listing hosted catalogs.
func (s *Store) Hrefs(ctx context.Context) ([]string, error) {
	cur, err := s.coll.Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("list hrefs: %w", err)
	}
	defer cur.Close(ctx)

	var out []string
	for cur.Next(ctx) {
		var doc struct {
			Href string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("list hrefs: %w", err)
		}
		out = append(out, doc.Href)
	}
	return out, cur.Err()
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ storage.Store = (*Store)(nil)
