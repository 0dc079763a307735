package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/harentsoaR/clinic-records-api/internal/models"
	"github.com/harentsoaR/clinic-records-api/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultPage      = 1
	DefaultPageSize  = 10
	SearchResultsCap = 20
)

type ClientStore interface {
	ListClients(ctx context.Context, f models.ClientFilter) ([]models.Client, int64, error)
	GetClient(ctx context.Context, id primitive.ObjectID) (*models.Client, error)
	InsertClient(ctx context.Context, c *models.Client) error
	UpdateClient(ctx context.Context, id primitive.ObjectID, patch models.ClientPatch) (*models.Client, error)
	DeleteClient(ctx context.Context, id primitive.ObjectID) error
	AddEnrollment(ctx context.Context, clientID primitive.ObjectID, e models.Enrollment) error
	RemoveEnrollment(ctx context.Context, clientID, programID primitive.ObjectID) error
	SetEnrollmentStatus(ctx context.Context, clientID, programID primitive.ObjectID, status string) error
}

// UserLookup resolves user references for population.
type UserLookup interface {
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type ClientInput struct {
	FirstName     string     `validate:"required"`
	LastName      string     `validate:"required"`
	DateOfBirth   *time.Time `validate:"required"`
	Gender        string     `validate:"required,oneof=male female other"`
	ContactNumber string
	Address       models.Address
}

// Pagination mirrors the pagination object of list responses.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int64 `json:"page"`
	Pages int64 `json:"pages"`
}

type ClientPage struct {
	Clients    []models.ClientDetail
	Pagination Pagination
}

type ClientService struct {
	clients  ClientStore
	programs ProgramStore
	users    UserLookup
	now      func() time.Time
}

func NewClientService(clients ClientStore, programs ProgramStore, users UserLookup) *ClientService {
	return &ClientService{clients: clients, programs: programs, users: users, now: time.Now}
}

// ListClients returns one page of clients, newest registration first,
// optionally narrowed by a case-insensitive match on first name, last name
// or contact number. Non-positive page or pageSize fall back to 1 and 10.
func (s *ClientService) ListClients(ctx context.Context, page, pageSize int64, term string) (*ClientPage, error) {
	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	filter := models.ClientFilter{
		Term:  strings.TrimSpace(term),
		Skip:  (page - 1) * pageSize,
		Limit: pageSize,
	}
	clients, total, err := s.clients.ListClients(ctx, filter)
	if err != nil {
		return nil, err
	}
	details, err := s.populate(ctx, clients, false)
	if err != nil {
		return nil, err
	}
	return &ClientPage{
		Clients: details,
		Pagination: Pagination{
			Total: total,
			Page:  page,
			Pages: int64(math.Ceil(float64(total) / float64(pageSize))),
		},
	}, nil
}

// SearchClients is the list query capped at the first SearchResultsCap
// matches. The term is mandatory.
func (s *ClientService) SearchClients(ctx context.Context, term string) ([]models.ClientDetail, error) {
	if strings.TrimSpace(term) == "" {
		return nil, BadRequest("Please provide a search query")
	}
	page, err := s.ListClients(ctx, 1, SearchResultsCap, term)
	if err != nil {
		return nil, err
	}
	return page.Clients, nil
}

func (s *ClientService) GetClient(ctx context.Context, id primitive.ObjectID) (*models.ClientDetail, error) {
	c, err := s.getClient(ctx, id)
	if err != nil {
		return nil, err
	}
	details, err := s.populate(ctx, []models.Client{*c}, true)
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// GetClientPublicProfile returns the reduced, unauthenticated view of a
// client.
func (s *ClientService) GetClientPublicProfile(ctx context.Context, id primitive.ObjectID) (*models.PublicProfile, error) {
	c, err := s.getClient(ctx, id)
	if err != nil {
		return nil, err
	}
	programs, err := s.programIndex(ctx, []models.Client{*c})
	if err != nil {
		return nil, err
	}

	profile := &models.PublicProfile{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Gender:    c.Gender,
		Age:       models.AgeAt(c.DateOfBirth, s.now()),
		Programs:  make([]models.PublicProgram, 0, len(c.Enrollments)),
	}
	for _, e := range c.Enrollments {
		p := programs[e.Program]
		profile.Programs = append(profile.Programs, models.PublicProgram{
			Name:           p.Name,
			Description:    p.Description,
			Status:         e.Status,
			EnrollmentDate: e.EnrollmentDate,
		})
	}
	return profile, nil
}

func (s *ClientService) CreateClient(ctx context.Context, in ClientInput, registrarID primitive.ObjectID) (*models.Client, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.DateOfBirth != nil && in.DateOfBirth.IsZero() {
		in.DateOfBirth = nil
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	c := &models.Client{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		DateOfBirth:    *in.DateOfBirth,
		Gender:         in.Gender,
		ContactNumber:  strings.TrimSpace(in.ContactNumber),
		Address:        in.Address,
		Enrollments:    []models.Enrollment{},
		RegisteredBy:   registrarID,
		DateRegistered: s.now().UTC(),
	}
	if err := s.clients.InsertClient(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ClientService) UpdateClient(ctx context.Context, id primitive.ObjectID, patch models.ClientPatch) (*models.Client, error) {
	if patch.Empty() {
		return nil, BadRequest("No fields to update")
	}
	if blank(patch.FirstName) {
		return nil, ValidationError("firstName is required", nil)
	}
	if blank(patch.LastName) {
		return nil, ValidationError("lastName is required", nil)
	}
	if patch.DateOfBirth != nil && patch.DateOfBirth.IsZero() {
		return nil, ValidationError("dateOfBirth is required", nil)
	}
	if patch.Gender != nil {
		if err := validate.Var(*patch.Gender, "required,oneof=male female other"); err != nil {
			return nil, ValidationError("gender must be one of: male female other", err)
		}
	}

	c, err := s.clients.UpdateClient(ctx, id, patch)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound("Client not found")
	}
	return c, err
}

// DeleteClient removes the client and, with it, every enrollment it owns.
func (s *ClientService) DeleteClient(ctx context.Context, id primitive.ObjectID) error {
	err := s.clients.DeleteClient(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return NotFound("Client not found")
	}
	return err
}

func (s *ClientService) EnrollClientInProgram(ctx context.Context, clientID, programID primitive.ObjectID) (*models.ClientDetail, error) {
	program, err := s.programs.GetProgram(ctx, programID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound("Program not found")
	}
	if err != nil {
		return nil, err
	}
	if !program.Active {
		return nil, BadRequest("Cannot enroll in inactive program")
	}

	enrollment := models.Enrollment{
		Program:        programID,
		EnrollmentDate: s.now().UTC(),
		Status:         models.StatusActive,
	}
	err = s.clients.AddEnrollment(ctx, clientID, enrollment)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, NotFound("Client not found")
	case errors.Is(err, store.ErrAlreadyEnrolled):
		return nil, BadRequest("Client is already enrolled in this program")
	case err != nil:
		return nil, err
	}
	return s.GetClient(ctx, clientID)
}

func (s *ClientService) RemoveClientFromProgram(ctx context.Context, clientID, programID primitive.ObjectID) (*models.ClientDetail, error) {
	err := s.clients.RemoveEnrollment(ctx, clientID, programID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, NotFound("Client not found")
	case errors.Is(err, store.ErrNotEnrolled):
		return nil, BadRequest("Client is not enrolled in this program")
	case err != nil:
		return nil, err
	}
	return s.GetClient(ctx, clientID)
}

func (s *ClientService) UpdateEnrollmentStatus(ctx context.Context, clientID, programID primitive.ObjectID, status string) (*models.ClientDetail, error) {
	if !models.ValidEnrollmentStatus(status) {
		return nil, BadRequest("Invalid status value")
	}
	err := s.clients.SetEnrollmentStatus(ctx, clientID, programID, status)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, NotFound("Client not found")
	case errors.Is(err, store.ErrNotEnrolled):
		return nil, NotFound("Enrollment not found")
	case err != nil:
		return nil, err
	}
	return s.GetClient(ctx, clientID)
}

func (s *ClientService) getClient(ctx context.Context, id primitive.ObjectID) (*models.Client, error) {
	c, err := s.clients.GetClient(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound("Client not found")
	}
	return c, err
}

// programIndex loads every program referenced by the clients' enrollments.
func (s *ClientService) programIndex(ctx context.Context, clients []models.Client) (map[primitive.ObjectID]models.Program, error) {
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, c := range clients {
		for _, e := range c.Enrollments {
			if _, ok := seen[e.Program]; !ok {
				seen[e.Program] = struct{}{}
				ids = append(ids, e.Program)
			}
		}
	}
	programs, err := s.programs.FindProgramsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	index := make(map[primitive.ObjectID]models.Program, len(programs))
	for _, p := range programs {
		index[p.ID] = p
	}
	return index, nil
}

// populate resolves enrollment programs for every client. The detailed form
// also carries the program's active flag and the registering user.
func (s *ClientService) populate(ctx context.Context, clients []models.Client, detailed bool) ([]models.ClientDetail, error) {
	programs, err := s.programIndex(ctx, clients)
	if err != nil {
		return nil, err
	}

	out := make([]models.ClientDetail, 0, len(clients))
	for _, c := range clients {
		d := models.ClientDetail{
			ID:             c.ID,
			FirstName:      c.FirstName,
			LastName:       c.LastName,
			DateOfBirth:    c.DateOfBirth,
			Gender:         c.Gender,
			ContactNumber:  c.ContactNumber,
			Address:        c.Address,
			Enrollments:    make([]models.EnrollmentView, 0, len(c.Enrollments)),
			DateRegistered: c.DateRegistered,
		}
		for _, e := range c.Enrollments {
			ref := models.ProgramRef{ID: e.Program}
			if p, ok := programs[e.Program]; ok {
				ref.Name = p.Name
				ref.Description = p.Description
				if detailed {
					active := p.Active
					ref.Active = &active
				}
			}
			d.Enrollments = append(d.Enrollments, models.EnrollmentView{
				Program:        ref,
				EnrollmentDate: e.EnrollmentDate,
				Status:         e.Status,
			})
		}
		if detailed && !c.RegisteredBy.IsZero() {
			u, err := s.users.GetUser(ctx, c.RegisteredBy)
			switch {
			case err == nil:
				d.RegisteredBy = &models.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
			case !errors.Is(err, store.ErrNotFound):
				return nil, err
			}
		}
		out = append(out, d)
	}
	return out, nil
}
