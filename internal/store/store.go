package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	UsersCollection    = "users"
	ProgramsCollection = "programs"
	ClientsCollection  = "clients"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrDuplicateKey    = errors.New("duplicate key")
	ErrAlreadyEnrolled = errors.New("client already enrolled in program")
	ErrNotEnrolled     = errors.New("client not enrolled in program")
)

// Store wraps the clinic database. All methods are safe for concurrent use;
// the driver owns the connection pool.
type Store struct {
	db       *mongo.Database
	users    *mongo.Collection
	programs *mongo.Collection
	clients  *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		db:       db,
		users:    db.Collection(UsersCollection),
		programs: db.Collection(ProgramsCollection),
		clients:  db.Collection(ClientsCollection),
	}
}

// EnsureIndexes creates the unique and lookup indexes the services rely on.
// It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
		s.programs: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "dateCreated", Value: -1}}},
		},
		s.clients: {
			{Keys: bson.D{{Key: "dateRegistered", Value: -1}}},
			{Keys: bson.D{{Key: "enrollments.program", Value: 1}}},
		},
	}
	for coll, idx := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

// translate maps driver errors onto the store sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	}
	return err
}
