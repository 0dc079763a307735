package store

import (
	"context"
	"regexp"
	"time"

	"github.com/harentsoaR/clinic-records-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func clientQuery(term string) bson.M {
	if term == "" {
		return bson.M{}
	}
	re := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"firstName": re},
		bson.M{"lastName": re},
		bson.M{"contactNumber": re},
	}}
}

// ListClients returns one page of the clients matching f, newest registration
// first, together with the total number of matches.
func (s *Store) ListClients(ctx context.Context, f models.ClientFilter) ([]models.Client, int64, error) {
	query := clientQuery(f.Term)

	total, err := s.clients.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "dateRegistered", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(f.Skip)
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	cursor, err := s.clients.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	clients := make([]models.Client, 0)
	if err := cursor.All(ctx, &clients); err != nil {
		return nil, 0, err
	}
	return clients, total, nil
}

func (s *Store) GetClient(ctx context.Context, id primitive.ObjectID) (*models.Client, error) {
	var c models.Client
	if err := s.clients.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *Store) InsertClient(ctx context.Context, c *models.Client) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Enrollments == nil {
		c.Enrollments = []models.Enrollment{}
	}
	_, err := s.clients.InsertOne(ctx, c)
	return translate(err)
}

func (s *Store) UpdateClient(ctx context.Context, id primitive.ObjectID, patch models.ClientPatch) (*models.Client, error) {
	set := bson.M{}
	if patch.FirstName != nil {
		set["firstName"] = *patch.FirstName
	}
	if patch.LastName != nil {
		set["lastName"] = *patch.LastName
	}
	if patch.DateOfBirth != nil {
		set["dateOfBirth"] = *patch.DateOfBirth
	}
	if patch.Gender != nil {
		set["gender"] = *patch.Gender
	}
	if patch.ContactNumber != nil {
		set["contactNumber"] = *patch.ContactNumber
	}
	if patch.Address != nil {
		set["address"] = *patch.Address
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c models.Client
	err := s.clients.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&c)
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *Store) DeleteClient(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.clients.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddEnrollment appends e to the client unless the client already holds an
// enrollment for the same program. The check and the push are one update, so
// concurrent enrollments cannot both succeed.
func (s *Store) AddEnrollment(ctx context.Context, clientID primitive.ObjectID, e models.Enrollment) error {
	filter := bson.M{"_id": clientID, "enrollments.program": bson.M{"$ne": e.Program}}
	res, err := s.clients.UpdateOne(ctx, filter, bson.M{"$push": bson.M{"enrollments": e}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return s.missOn(ctx, clientID, ErrAlreadyEnrolled)
	}
	return nil
}

func (s *Store) RemoveEnrollment(ctx context.Context, clientID, programID primitive.ObjectID) error {
	filter := bson.M{"_id": clientID, "enrollments.program": programID}
	update := bson.M{"$pull": bson.M{"enrollments": bson.M{"program": programID}}}
	res, err := s.clients.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return s.missOn(ctx, clientID, ErrNotEnrolled)
	}
	return nil
}

// SetEnrollmentStatus updates the first enrollment of the client in programID.
func (s *Store) SetEnrollmentStatus(ctx context.Context, clientID, programID primitive.ObjectID, status string) error {
	filter := bson.M{"_id": clientID, "enrollments.program": programID}
	update := bson.M{"$set": bson.M{"enrollments.$.status": status}}
	res, err := s.clients.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return s.missOn(ctx, clientID, ErrNotEnrolled)
	}
	return nil
}

// missOn explains a conditional update that matched nothing: either the
// client does not exist, or the enrollment condition failed.
func (s *Store) missOn(ctx context.Context, clientID primitive.ObjectID, condErr error) error {
	n, err := s.clients.CountDocuments(ctx, bson.M{"_id": clientID}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return condErr
}

func (s *Store) ProgramHasEnrollments(ctx context.Context, programID primitive.ObjectID) (bool, error) {
	n, err := s.clients.CountDocuments(ctx, bson.M{"enrollments.program": programID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) CountClients(ctx context.Context) (int64, error) {
	return s.clients.CountDocuments(ctx, bson.M{})
}

func (s *Store) CountClientsRegisteredSince(ctx context.Context, since time.Time) (int64, error) {
	return s.clients.CountDocuments(ctx, bson.M{"dateRegistered": bson.M{"$gte": since}})
}
