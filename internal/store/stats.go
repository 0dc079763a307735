package store

import (
	"context"

	"github.com/harentsoaR/clinic-records-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// enrollmentCountPipeline groups every embedded enrollment by program, most
// enrolled first and ties by program id, and joins the program name. A limit
// of zero keeps every group.
func enrollmentCountPipeline(limit int64) mongo.Pipeline {
	p := mongo.Pipeline{
		{{Key: "$unwind", Value: "$enrollments"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$enrollments.program"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	if limit > 0 {
		p = append(p, bson.D{{Key: "$limit", Value: limit}})
	}
	return append(p,
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: ProgramsCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "programDetails"},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 1},
			{Key: "count", Value: 1},
			{Key: "programName", Value: bson.D{{Key: "$ifNull", Value: bson.A{
				bson.D{{Key: "$arrayElemAt", Value: bson.A{"$programDetails.name", 0}}},
				"",
			}}}},
		}}},
	)
}

// recentEnrollmentsPipeline lists embedded enrollments newest first with the
// client and program names resolved. A limit of zero keeps every row.
func recentEnrollmentsPipeline(limit int64) mongo.Pipeline {
	p := mongo.Pipeline{
		{{Key: "$unwind", Value: "$enrollments"}},
		{{Key: "$sort", Value: bson.D{{Key: "enrollments.enrollmentDate", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	if limit > 0 {
		p = append(p, bson.D{{Key: "$limit", Value: limit}})
	}
	return append(p,
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: ProgramsCollection},
			{Key: "localField", Value: "enrollments.program"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "programDetails"},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "clientName", Value: bson.D{{Key: "$concat", Value: bson.A{"$firstName", " ", "$lastName"}}}},
			{Key: "programName", Value: bson.D{{Key: "$ifNull", Value: bson.A{
				bson.D{{Key: "$arrayElemAt", Value: bson.A{"$programDetails.name", 0}}},
				"",
			}}}},
			{Key: "enrollmentDate", Value: "$enrollments.enrollmentDate"},
		}}},
	)
}

func (s *Store) EnrollmentCounts(ctx context.Context, limit int64) ([]models.ProgramEnrollmentCount, error) {
	cursor, err := s.clients.Aggregate(ctx, enrollmentCountPipeline(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := make([]models.ProgramEnrollmentCount, 0)
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

func (s *Store) RecentEnrollments(ctx context.Context, limit int64) ([]models.RecentEnrollment, error) {
	cursor, err := s.clients.Aggregate(ctx, recentEnrollmentsPipeline(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	recent := make([]models.RecentEnrollment, 0)
	if err := cursor.All(ctx, &recent); err != nil {
		return nil, err
	}
	return recent, nil
}
