// Package testutil holds an in-memory store and HTTP helpers shared by the
// package tests.
package testutil

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/harentsoaR/clinic-records-api/internal/models"
	"github.com/harentsoaR/clinic-records-api/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemStore mimics the Mongo store's semantics over maps: unique user emails
// and program names, atomic enrollment updates, and the same orderings.
type MemStore struct {
	mu       sync.Mutex
	users    map[primitive.ObjectID]models.User
	programs map[primitive.ObjectID]models.Program
	clients  map[primitive.ObjectID]models.Client

	// PingErr is returned by Ping when set.
	PingErr error
	// FailWith, when set, makes every method return it.
	FailWith error
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:    make(map[primitive.ObjectID]models.User),
		programs: make(map[primitive.ObjectID]models.Program),
		clients:  make(map[primitive.ObjectID]models.Client),
	}
}

func (m *MemStore) Ping(context.Context) error { return m.PingErr }

// Users

func (m *MemStore) InsertUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return store.ErrDuplicateKey
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.users[u.ID] = *u
	return nil
}

func (m *MemStore) GetUser(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (m *MemStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MemStore) CountUsersByRole(_ context.Context, role string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return 0, m.FailWith
	}
	var n int64
	for _, u := range m.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// Programs

func (m *MemStore) ListPrograms(context.Context) ([]models.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	out := make([]models.Program, 0, len(m.programs))
	for _, p := range m.programs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DateCreated.Equal(out[j].DateCreated) {
			return out[i].DateCreated.After(out[j].DateCreated)
		}
		return idLess(out[j].ID, out[i].ID)
	})
	return out, nil
}

func (m *MemStore) GetProgram(_ context.Context, id primitive.ObjectID) (*models.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	p, ok := m.programs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *MemStore) FindProgramsByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	out := make([]models.Program, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.programs[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemStore) InsertProgram(_ context.Context, p *models.Program) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	if m.nameTaken(p.Name, primitive.NilObjectID) {
		return store.ErrDuplicateKey
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	m.programs[p.ID] = *p
	return nil
}

func (m *MemStore) nameTaken(name string, except primitive.ObjectID) bool {
	for id, p := range m.programs {
		if id != except && p.Name == name {
			return true
		}
	}
	return false
}

func (m *MemStore) UpdateProgram(_ context.Context, id primitive.ObjectID, patch models.ProgramPatch) (*models.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	p, ok := m.programs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if patch.Name != nil {
		if m.nameTaken(*patch.Name, id) {
			return nil, store.ErrDuplicateKey
		}
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.StartDate != nil {
		p.StartDate = *patch.StartDate
	}
	if patch.Active != nil {
		p.Active = *patch.Active
	}
	m.programs[id] = p
	return &p, nil
}

func (m *MemStore) DeleteProgram(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	if _, ok := m.programs[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.programs, id)
	return nil
}

func (m *MemStore) CountPrograms(context.Context) (int64, error) {
	return m.countPrograms(func(models.Program) bool { return true })
}

func (m *MemStore) CountActivePrograms(context.Context) (int64, error) {
	return m.countPrograms(func(p models.Program) bool { return p.Active })
}

func (m *MemStore) CountProgramsCreatedSince(_ context.Context, since time.Time) (int64, error) {
	return m.countPrograms(func(p models.Program) bool { return !p.DateCreated.Before(since) })
}

func (m *MemStore) countPrograms(match func(models.Program) bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return 0, m.FailWith
	}
	var n int64
	for _, p := range m.programs {
		if match(p) {
			n++
		}
	}
	return n, nil
}

// Clients

func (m *MemStore) sortedClients(match func(models.Client) bool) []models.Client {
	out := make([]models.Client, 0, len(m.clients))
	for _, c := range m.clients {
		if match(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DateRegistered.Equal(out[j].DateRegistered) {
			return out[i].DateRegistered.After(out[j].DateRegistered)
		}
		return idLess(out[j].ID, out[i].ID)
	})
	return out
}

func (m *MemStore) ListClients(_ context.Context, f models.ClientFilter) ([]models.Client, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, 0, m.FailWith
	}
	term := strings.ToLower(f.Term)
	matched := m.sortedClients(func(c models.Client) bool {
		if term == "" {
			return true
		}
		return strings.Contains(strings.ToLower(c.FirstName), term) ||
			strings.Contains(strings.ToLower(c.LastName), term) ||
			strings.Contains(strings.ToLower(c.ContactNumber), term)
	})
	total := int64(len(matched))
	start := min(f.Skip, total)
	end := total
	if f.Limit > 0 {
		end = min(start+f.Limit, total)
	}
	page := make([]models.Client, 0, end-start)
	for _, c := range matched[start:end] {
		page = append(page, cloneClient(c))
	}
	return page, total, nil
}

func (m *MemStore) GetClient(_ context.Context, id primitive.ObjectID) (*models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	c, ok := m.clients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c = cloneClient(c)
	return &c, nil
}

func (m *MemStore) InsertClient(_ context.Context, c *models.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Enrollments == nil {
		c.Enrollments = []models.Enrollment{}
	}
	m.clients[c.ID] = cloneClient(*c)
	return nil
}

func (m *MemStore) UpdateClient(_ context.Context, id primitive.ObjectID, patch models.ClientPatch) (*models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	c, ok := m.clients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if patch.FirstName != nil {
		c.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		c.LastName = *patch.LastName
	}
	if patch.DateOfBirth != nil {
		c.DateOfBirth = *patch.DateOfBirth
	}
	if patch.Gender != nil {
		c.Gender = *patch.Gender
	}
	if patch.ContactNumber != nil {
		c.ContactNumber = *patch.ContactNumber
	}
	if patch.Address != nil {
		c.Address = *patch.Address
	}
	m.clients[id] = c
	c = cloneClient(c)
	return &c, nil
}

func (m *MemStore) DeleteClient(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	if _, ok := m.clients[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.clients, id)
	return nil
}

func (m *MemStore) AddEnrollment(_ context.Context, clientID primitive.ObjectID, e models.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	c, ok := m.clients[clientID]
	if !ok {
		return store.ErrNotFound
	}
	if c.FindEnrollment(e.Program) >= 0 {
		return store.ErrAlreadyEnrolled
	}
	c.Enrollments = append(cloneClient(c).Enrollments, e)
	m.clients[clientID] = c
	return nil
}

func (m *MemStore) RemoveEnrollment(_ context.Context, clientID, programID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	c, ok := m.clients[clientID]
	if !ok {
		return store.ErrNotFound
	}
	if c.FindEnrollment(programID) < 0 {
		return store.ErrNotEnrolled
	}
	kept := make([]models.Enrollment, 0, len(c.Enrollments))
	for _, e := range c.Enrollments {
		if e.Program != programID {
			kept = append(kept, e)
		}
	}
	c.Enrollments = kept
	m.clients[clientID] = c
	return nil
}

func (m *MemStore) SetEnrollmentStatus(_ context.Context, clientID, programID primitive.ObjectID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	c, ok := m.clients[clientID]
	if !ok {
		return store.ErrNotFound
	}
	i := c.FindEnrollment(programID)
	if i < 0 {
		return store.ErrNotEnrolled
	}
	c = cloneClient(c)
	c.Enrollments[i].Status = status
	m.clients[clientID] = c
	return nil
}

func (m *MemStore) ProgramHasEnrollments(_ context.Context, programID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return false, m.FailWith
	}
	for _, c := range m.clients {
		if c.FindEnrollment(programID) >= 0 {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) CountClients(context.Context) (int64, error) {
	return m.countClients(func(models.Client) bool { return true })
}

func (m *MemStore) CountClientsRegisteredSince(_ context.Context, since time.Time) (int64, error) {
	return m.countClients(func(c models.Client) bool { return !c.DateRegistered.Before(since) })
}

func (m *MemStore) countClients(match func(models.Client) bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return 0, m.FailWith
	}
	var n int64
	for _, c := range m.clients {
		if match(c) {
			n++
		}
	}
	return n, nil
}

// Aggregations

func (m *MemStore) EnrollmentCounts(_ context.Context, limit int64) ([]models.ProgramEnrollmentCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	counts := make(map[primitive.ObjectID]int64)
	for _, c := range m.clients {
		for _, e := range c.Enrollments {
			counts[e.Program]++
		}
	}
	out := make([]models.ProgramEnrollmentCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, models.ProgramEnrollmentCount{ProgramID: id, ProgramName: m.programs[id].Name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return idLess(out[i].ProgramID, out[j].ProgramID)
	})
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) RecentEnrollments(_ context.Context, limit int64) ([]models.RecentEnrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	var out []models.RecentEnrollment
	for _, c := range m.clients {
		for _, e := range c.Enrollments {
			out = append(out, models.RecentEnrollment{
				ClientName:     c.FirstName + " " + c.LastName,
				ProgramName:    m.programs[e.Program].Name,
				EnrollmentDate: e.EnrollmentDate,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EnrollmentDate.After(out[j].EnrollmentDate) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []models.RecentEnrollment{}
	}
	return out, nil
}

func idLess(a, b primitive.ObjectID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

func cloneClient(c models.Client) models.Client {
	c.Enrollments = append([]models.Enrollment{}, c.Enrollments...)
	return c
}
