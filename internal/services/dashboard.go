package services

import (
	"context"
	"time"

	"github.com/harentsoaR/clinic-records-api/internal/models"
)

const (
	PopularProgramsLimit   = 5
	RecentEnrollmentsLimit = 10
)

type DashboardStore interface {
	CountClients(ctx context.Context) (int64, error)
	CountClientsRegisteredSince(ctx context.Context, since time.Time) (int64, error)
	CountPrograms(ctx context.Context) (int64, error)
	CountActivePrograms(ctx context.Context) (int64, error)
	CountUsersByRole(ctx context.Context, role string) (int64, error)
	EnrollmentCounts(ctx context.Context, limit int64) ([]models.ProgramEnrollmentCount, error)
	RecentEnrollments(ctx context.Context, limit int64) ([]models.RecentEnrollment, error)
}

// DashboardService computes the dashboard figures fresh on every call.
type DashboardService struct {
	store DashboardStore
	now   func() time.Time
}

func NewDashboardService(s DashboardStore) *DashboardService {
	return &DashboardService{store: s, now: time.Now}
}

func (s *DashboardService) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var (
		stats models.DashboardStats
		err   error
	)
	if stats.TotalClients, err = s.store.CountClients(ctx); err != nil {
		return nil, err
	}
	if stats.TotalPrograms, err = s.store.CountPrograms(ctx); err != nil {
		return nil, err
	}
	if stats.TotalDoctors, err = s.store.CountUsersByRole(ctx, models.RoleDoctor); err != nil {
		return nil, err
	}
	since := s.now().Add(-RecentWindow)
	if stats.RecentClients, err = s.store.CountClientsRegisteredSince(ctx, since); err != nil {
		return nil, err
	}
	if stats.ActivePrograms, err = s.store.CountActivePrograms(ctx); err != nil {
		return nil, err
	}

	counts, err := s.store.EnrollmentCounts(ctx, PopularProgramsLimit)
	if err != nil {
		return nil, err
	}
	stats.PopularPrograms = make([]models.PopularProgram, 0, len(counts))
	for _, c := range counts {
		stats.PopularPrograms = append(stats.PopularPrograms, models.PopularProgram{
			ProgramID: c.ProgramID,
			Program:   c.ProgramName,
			Count:     c.Count,
		})
	}

	if stats.RecentEnrollments, err = s.store.RecentEnrollments(ctx, RecentEnrollmentsLimit); err != nil {
		return nil, err
	}
	return &stats, nil
}
