package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harentsoaR/clinic-records-api/internal/models"
	"github.com/harentsoaR/clinic-records-api/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecentWindow is the trailing period counted as "recent" by the stats.
const RecentWindow = 30 * 24 * time.Hour

type ProgramStore interface {
	ListPrograms(ctx context.Context) ([]models.Program, error)
	GetProgram(ctx context.Context, id primitive.ObjectID) (*models.Program, error)
	FindProgramsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Program, error)
	InsertProgram(ctx context.Context, p *models.Program) error
	UpdateProgram(ctx context.Context, id primitive.ObjectID, patch models.ProgramPatch) (*models.Program, error)
	DeleteProgram(ctx context.Context, id primitive.ObjectID) error
	CountPrograms(ctx context.Context) (int64, error)
	CountActivePrograms(ctx context.Context) (int64, error)
	CountProgramsCreatedSince(ctx context.Context, since time.Time) (int64, error)
}

// EnrollmentStore answers questions that span the clients collection.
type EnrollmentStore interface {
	ProgramHasEnrollments(ctx context.Context, programID primitive.ObjectID) (bool, error)
	EnrollmentCounts(ctx context.Context, limit int64) ([]models.ProgramEnrollmentCount, error)
	RecentEnrollments(ctx context.Context, limit int64) ([]models.RecentEnrollment, error)
}

type ProgramInput struct {
	Name        string `validate:"required"`
	Description string `validate:"required"`
	StartDate   *time.Time
	Active      *bool
}

type ProgramService struct {
	programs    ProgramStore
	enrollments EnrollmentStore
	now         func() time.Time
}

func NewProgramService(programs ProgramStore, enrollments EnrollmentStore) *ProgramService {
	return &ProgramService{programs: programs, enrollments: enrollments, now: time.Now}
}

func (s *ProgramService) ListPrograms(ctx context.Context) ([]models.Program, error) {
	return s.programs.ListPrograms(ctx)
}

func (s *ProgramService) GetProgram(ctx context.Context, id primitive.ObjectID) (*models.Program, error) {
	p, err := s.programs.GetProgram(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound("Program not found")
	}
	return p, err
}

func (s *ProgramService) CreateProgram(ctx context.Context, in ProgramInput, creatorID primitive.ObjectID) (*models.Program, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &models.Program{
		Name:        in.Name,
		Description: in.Description,
		StartDate:   now,
		Active:      true,
		CreatedBy:   creatorID,
		DateCreated: now,
	}
	if in.StartDate != nil {
		p.StartDate = *in.StartDate
	}
	if in.Active != nil {
		p.Active = *in.Active
	}

	if err := s.programs.InsertProgram(ctx, p); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, Conflict(fmt.Sprintf("A program named %q already exists", p.Name))
		}
		return nil, err
	}
	return p, nil
}

func (s *ProgramService) UpdateProgram(ctx context.Context, id primitive.ObjectID, patch models.ProgramPatch) (*models.Program, error) {
	if patch.Empty() {
		return nil, BadRequest("No fields to update")
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if blank(patch.Name) {
		return nil, ValidationError("name is required", nil)
	}
	if blank(patch.Description) {
		return nil, ValidationError("description is required", nil)
	}

	p, err := s.programs.UpdateProgram(ctx, id, patch)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, NotFound("Program not found")
	case errors.Is(err, store.ErrDuplicateKey):
		return nil, Conflict("A program with this name already exists")
	case err != nil:
		return nil, err
	}
	return p, nil
}

// DeleteProgram removes a program that no client is enrolled in.
func (s *ProgramService) DeleteProgram(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.GetProgram(ctx, id); err != nil {
		return err
	}
	enrolled, err := s.enrollments.ProgramHasEnrollments(ctx, id)
	if err != nil {
		return err
	}
	if enrolled {
		return Conflict("Cannot delete program with active enrollments")
	}
	if err := s.programs.DeleteProgram(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFound("Program not found")
		}
		return err
	}
	return nil
}

func (s *ProgramService) GetProgramStats(ctx context.Context) (*models.ProgramStats, error) {
	var (
		stats models.ProgramStats
		err   error
	)
	if stats.TotalPrograms, err = s.programs.CountPrograms(ctx); err != nil {
		return nil, err
	}
	if stats.ActivePrograms, err = s.programs.CountActivePrograms(ctx); err != nil {
		return nil, err
	}
	since := s.now().Add(-RecentWindow)
	if stats.RecentPrograms, err = s.programs.CountProgramsCreatedSince(ctx, since); err != nil {
		return nil, err
	}
	if stats.ProgramEnrollments, err = s.enrollments.EnrollmentCounts(ctx, 0); err != nil {
		return nil, err
	}
	return &stats, nil
}
