package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harentsoaR/clinic-records-api/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestSecret signs the tokens issued in tests.
const TestSecret = "test-jwt-secret"

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// Bearer returns the Authorization header for token.
func Bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v. Body: %s", err, w.Body.String())
	}
}

// CreateTestUser stores a doctor with an unusable password and returns it.
func CreateTestUser(t *testing.T, s *MemStore, email string) models.User {
	t.Helper()
	u := models.User{
		Name:        "Dr. Test",
		Email:       email,
		Password:    "not-a-bcrypt-hash",
		Role:        models.RoleDoctor,
		DateCreated: time.Now().UTC(),
	}
	if err := s.InsertUser(context.Background(), &u); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return u
}

// CreateTestProgram stores a program created at the given time.
func CreateTestProgram(t *testing.T, s *MemStore, name string, active bool, created time.Time) models.Program {
	t.Helper()
	p := models.Program{
		Name:        name,
		Description: name + " description",
		StartDate:   created,
		Active:      active,
		DateCreated: created,
	}
	if err := s.InsertProgram(context.Background(), &p); err != nil {
		t.Fatalf("Failed to create test program: %v", err)
	}
	return p
}

// CreateTestClient stores a client registered at the given time and enrolled
// in programs with status active.
func CreateTestClient(t *testing.T, s *MemStore, first, last string, registered time.Time, programs ...primitive.ObjectID) models.Client {
	t.Helper()
	c := models.Client{
		FirstName:      first,
		LastName:       last,
		DateOfBirth:    time.Date(1990, time.March, 14, 0, 0, 0, 0, time.UTC),
		Gender:         models.GenderFemale,
		ContactNumber:  "0341234567",
		Address:        models.Address{Street: "12 Rue Test", City: "Antananarivo", ZipCode: "101"},
		DateRegistered: registered,
	}
	for i, id := range programs {
		c.Enrollments = append(c.Enrollments, models.Enrollment{
			Program:        id,
			EnrollmentDate: registered.Add(time.Duration(i) * time.Minute),
			Status:         models.StatusActive,
		})
	}
	if err := s.InsertClient(context.Background(), &c); err != nil {
		t.Fatalf("Failed to create test client: %v", err)
	}
	return c
}
