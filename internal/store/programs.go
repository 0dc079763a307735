package store

import (
	"context"
	"time"

	"github.com/harentsoaR/clinic-records-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) ListPrograms(ctx context.Context) ([]models.Program, error) {
	opts := options.Find().SetSort(bson.D{{Key: "dateCreated", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.programs.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	programs := make([]models.Program, 0)
	if err := cursor.All(ctx, &programs); err != nil {
		return nil, err
	}
	return programs, nil
}

func (s *Store) GetProgram(ctx context.Context, id primitive.ObjectID) (*models.Program, error) {
	var p models.Program
	if err := s.programs.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// FindProgramsByIDs returns the programs among ids that exist, in no
// particular order.
func (s *Store) FindProgramsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Program, error) {
	programs := make([]models.Program, 0, len(ids))
	if len(ids) == 0 {
		return programs, nil
	}
	cursor, err := s.programs.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &programs); err != nil {
		return nil, err
	}
	return programs, nil
}

func (s *Store) InsertProgram(ctx context.Context, p *models.Program) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := s.programs.InsertOne(ctx, p)
	return translate(err)
}

func (s *Store) UpdateProgram(ctx context.Context, id primitive.ObjectID, patch models.ProgramPatch) (*models.Program, error) {
	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.StartDate != nil {
		set["startDate"] = *patch.StartDate
	}
	if patch.Active != nil {
		set["active"] = *patch.Active
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Program
	err := s.programs.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&p)
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *Store) DeleteProgram(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.programs.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CountPrograms(ctx context.Context) (int64, error) {
	return s.programs.CountDocuments(ctx, bson.M{})
}

func (s *Store) CountActivePrograms(ctx context.Context) (int64, error) {
	return s.programs.CountDocuments(ctx, bson.M{"active": true})
}

func (s *Store) CountProgramsCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return s.programs.CountDocuments(ctx, bson.M{"dateCreated": bson.M{"$gte": since}})
}
