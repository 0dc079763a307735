package handlers

import (
	"context"
	"log/slog"

	"github.com/harentsoaR/clinic-records-api/internal/services"
	"github.com/harentsoaR/clinic-records-api/internal/utils"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds everything the HTTP layer needs. Each resource's handlers
// are methods on it, one file per resource.
type Handler struct {
	Users     *services.UserService
	Programs  *services.ProgramService
	Clients   *services.ClientService
	Dashboard *services.DashboardService
	Tokens    *utils.TokenManager
	DB        Pinger
	Log       *slog.Logger
}

// Store is the persistence surface required to build every service.
type Store interface {
	services.UserStore
	services.ProgramStore
	services.ClientStore
	services.EnrollmentStore
	services.DashboardStore
	Pinger
}

func NewHandler(s Store, tokens *utils.TokenManager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Users:     services.NewUserService(s),
		Programs:  services.NewProgramService(s, s),
		Clients:   services.NewClientService(s, s, s),
		Dashboard: services.NewDashboardService(s),
		Tokens:    tokens,
		DB:        s,
		Log:       logger,
	}
}
