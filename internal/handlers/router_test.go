package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/harentsoaR/clinic-records-api/internal/models"
	"github.com/harentsoaR/clinic-records-api/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (e *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, testutil.MakeRequest(method, path, body, testutil.Bearer(e.token)))
	return w
}

func (e *testEnv) anonymous(method, path string, body interface{}) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, testutil.MakeRequest(method, path, body, nil))
	return w
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)
	id := primitive.NewObjectID().Hex()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodGet, "/api/clients"},
		{http.MethodPost, "/api/clients"},
		{http.MethodGet, "/api/clients/search?query=a"},
		{http.MethodGet, "/api/clients/" + id},
		{http.MethodPut, "/api/clients/" + id},
		{http.MethodDelete, "/api/clients/" + id},
		{http.MethodPost, "/api/clients/" + id + "/programs"},
		{http.MethodPut, "/api/clients/" + id + "/programs/" + id},
		{http.MethodDelete, "/api/clients/" + id + "/programs/" + id},
		{http.MethodGet, "/api/programs"},
		{http.MethodPost, "/api/programs"},
		{http.MethodGet, "/api/programs/stats"},
		{http.MethodGet, "/api/programs/" + id},
		{http.MethodPut, "/api/programs/" + id},
		{http.MethodDelete, "/api/programs/" + id},
		{http.MethodGet, "/api/dashboard"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := env.anonymous(rt.method, rt.path, nil)
			testutil.AssertStatus(t, w, http.StatusUnauthorized)
		})
	}
}

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t)

	w := env.anonymous(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Dr. Rabe", "email": "rabe@example.com", "password": "s3cret-pass",
	})
	testutil.AssertStatus(t, w, http.StatusCreated)
	if strings.Contains(w.Body.String(), "password") {
		t.Errorf("Expected no password in the response, got %s", w.Body.String())
	}
	var reg AuthResponse
	testutil.AssertJSON(t, w, &reg)
	if !reg.Success || reg.Token == "" || reg.User.Role != models.RoleDoctor {
		t.Fatalf("Unexpected register response: %+v", reg)
	}

	w = env.anonymous(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Dup", "email": "rabe@example.com", "password": "s3cret-pass",
	})
	testutil.AssertStatus(t, w, http.StatusConflict)

	w = env.anonymous(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "rabe@example.com", "password": "wrong-pass",
	})
	testutil.AssertStatus(t, w, http.StatusUnauthorized)

	w = env.anonymous(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "rabe@example.com", "password": "s3cret-pass",
	})
	testutil.AssertStatus(t, w, http.StatusOK)
	var login AuthResponse
	testutil.AssertJSON(t, w, &login)

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, testutil.MakeRequest(http.MethodGet, "/api/auth/me", nil, testutil.Bearer(login.Token)))
	testutil.AssertStatus(t, w, http.StatusOK)
	var me envelope
	testutil.AssertJSON(t, w, &me)
	var user models.User
	if err := json.Unmarshal(me.Data, &user); err != nil {
		t.Fatalf("Failed to decode user: %v", err)
	}
	if user.Email != "rabe@example.com" {
		t.Errorf("Expected current user rabe@example.com, got %s", user.Email)
	}
}

func TestRegister_InvalidBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = env.anonymous(http.MethodPost, "/api/auth/register", map[string]string{"email": "x@example.com"})
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	var body envelope
	testutil.AssertJSON(t, w, &body)
	if body.Success || body.Message == "" {
		t.Errorf("Expected a validation message, got %+v", body)
	}
}

func TestProgramEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/programs", map[string]any{
		"name": "HIV Care", "description": "Antiretroviral therapy", "startDate": "2026-01-15",
	})
	testutil.AssertStatus(t, w, http.StatusCreated)
	var created envelope
	testutil.AssertJSON(t, w, &created)
	var program models.Program
	if err := json.Unmarshal(created.Data, &program); err != nil {
		t.Fatalf("Failed to decode program: %v", err)
	}
	if !program.Active || program.StartDate.Format("2006-01-02") != "2026-01-15" {
		t.Errorf("Unexpected program: %+v", program)
	}

	w = env.do(http.MethodPost, "/api/programs", map[string]any{"name": "HIV Care", "description": "Again"})
	testutil.AssertStatus(t, w, http.StatusConflict)

	w = env.do(http.MethodPost, "/api/programs", map[string]any{"name": "Bad", "description": "d", "startDate": "someday"})
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = env.do(http.MethodGet, "/api/programs", nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var list envelope
	testutil.AssertJSON(t, w, &list)
	if list.Count == nil || *list.Count != 1 {
		t.Errorf("Expected count 1, got %v", list.Count)
	}

	w = env.do(http.MethodGet, "/api/programs/not-an-id", nil)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = env.do(http.MethodGet, "/api/programs/"+primitive.NewObjectID().Hex(), nil)
	testutil.AssertStatus(t, w, http.StatusNotFound)

	w = env.do(http.MethodPut, "/api/programs/"+program.ID.Hex(), map[string]any{"active": false})
	testutil.AssertStatus(t, w, http.StatusOK)
	stored, _ := env.store.GetProgram(context.Background(), program.ID)
	if stored.Active {
		t.Error("Expected program to be deactivated")
	}

	w = env.do(http.MethodGet, "/api/programs/stats", nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var stats envelope
	testutil.AssertJSON(t, w, &stats)
	var ps models.ProgramStats
	if err := json.Unmarshal(stats.Data, &ps); err != nil {
		t.Fatalf("Failed to decode stats: %v", err)
	}
	if ps.TotalPrograms != 1 || ps.ActivePrograms != 0 || ps.RecentPrograms != 1 {
		t.Errorf("Unexpected program stats: %+v", ps)
	}

	w = env.do(http.MethodDelete, "/api/programs/"+program.ID.Hex(), nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var deleted map[string]any
	testutil.AssertJSON(t, w, &deleted)
	if data, ok := deleted["data"].(map[string]any); !ok || len(data) != 0 {
		t.Errorf("Expected empty data object, got %v", deleted["data"])
	}
}

func TestDeleteProgram_WithEnrollments(t *testing.T) {
	env := newTestEnv(t)
	p := testutil.CreateTestProgram(t, env.store, "HIV Care", true, time.Now())
	testutil.CreateTestClient(t, env.store, "Jane", "Doe", time.Now(), p.ID)

	w := env.do(http.MethodDelete, "/api/programs/"+p.ID.Hex(), nil)
	testutil.AssertStatus(t, w, http.StatusConflict)
	var body envelope
	testutil.AssertJSON(t, w, &body)
	if body.Message != "Cannot delete program with active enrollments" {
		t.Errorf("Unexpected message: %q", body.Message)
	}
}

func TestListClients_Envelope(t *testing.T) {
	env := newTestEnv(t)
	start := time.Now().Add(-time.Hour)
	for i := 0; i < 25; i++ {
		testutil.CreateTestClient(t, env.store, fmt.Sprintf("Client%02d", i), "Test", start.Add(time.Duration(i)*time.Second))
	}

	testCases := []struct {
		name      string
		query     string
		wantCount int
		wantPage  int64
		wantPages int64
	}{
		{"Defaults", "", 10, 1, 3},
		{"ThirdPage", "?page=3&limit=10", 5, 3, 3},
		{"PageSizeAlias", "?page=2&pageSize=20", 5, 2, 2},
		{"NonNumeric", "?page=abc&limit=xyz", 10, 1, 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(http.MethodGet, "/api/clients"+tc.query, nil)
			testutil.AssertStatus(t, w, http.StatusOK)
			var body envelope
			testutil.AssertJSON(t, w, &body)
			if !body.Success || body.Count == nil || *body.Count != tc.wantCount {
				t.Fatalf("Expected count %d, got %+v", tc.wantCount, body)
			}
			if body.Pagination == nil || body.Pagination.Total != 25 ||
				body.Pagination.Page != tc.wantPage || body.Pagination.Pages != tc.wantPages {
				t.Errorf("Unexpected pagination: %+v", body.Pagination)
			}
		})
	}
}

func TestSearchClients(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateTestClient(t, env.store, "Alice", "Rakoto", time.Now())
	testutil.CreateTestClient(t, env.store, "Bob", "Smith", time.Now())

	w := env.do(http.MethodGet, "/api/clients/search", nil)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = env.do(http.MethodGet, "/api/clients/search?query=rako", nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var body envelope
	testutil.AssertJSON(t, w, &body)
	if body.Count == nil || *body.Count != 1 {
		t.Errorf("Expected 1 match, got %v", body.Count)
	}
	if body.Pagination != nil {
		t.Error("Expected no pagination on search results")
	}

	w = env.do(http.MethodGet, "/api/clients?search=smi", nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &body)
	if body.Pagination == nil || body.Pagination.Total != 1 {
		t.Errorf("Expected list search to match 1, got %+v", body.Pagination)
	}
}

func TestClientLifecycle(t *testing.T) {
	env := newTestEnv(t)
	program := testutil.CreateTestProgram(t, env.store, "HIV Care", true, time.Now())
	inactive := testutil.CreateTestProgram(t, env.store, "Closed", false, time.Now())

	w := env.do(http.MethodPost, "/api/clients", map[string]any{
		"firstName": "Jane", "lastName": "Doe", "dateOfBirth": "1990-05-01", "gender": "female",
		"contactNumber": "0341234567", "address": map[string]string{"city": "Antananarivo", "zipCode": "101"},
	})
	testutil.AssertStatus(t, w, http.StatusCreated)
	var created envelope
	testutil.AssertJSON(t, w, &created)
	var client models.Client
	if err := json.Unmarshal(created.Data, &client); err != nil {
		t.Fatalf("Failed to decode client: %v", err)
	}
	clientPath := "/api/clients/" + client.ID.Hex()

	w = env.do(http.MethodPost, "/api/clients", map[string]any{"firstName": "No", "lastName": "Birthday", "gender": "male"})
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = env.do(http.MethodPost, clientPath+"/programs", map[string]any{})
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	assertMessage(t, w, "Program ID is required")

	w = env.do(http.MethodPost, clientPath+"/programs", map[string]any{"programId": "xyz"})
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	assertMessage(t, w, "Invalid program ID")

	w = env.do(http.MethodPost, clientPath+"/programs", map[string]any{"programId": inactive.ID.Hex()})
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	assertMessage(t, w, "Cannot enroll in inactive program")

	w = env.do(http.MethodPost, clientPath+"/programs", map[string]any{"programId": program.ID.Hex()})
	testutil.AssertStatus(t, w, http.StatusOK)

	w = env.do(http.MethodPost, clientPath+"/programs", map[string]any{"programId": program.ID.Hex()})
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	assertMessage(t, w, "Client is already enrolled in this program")

	w = env.do(http.MethodPut, clientPath+"/programs/"+program.ID.Hex(), map[string]any{"status": "completed"})
	testutil.AssertStatus(t, w, http.StatusOK)
	var detail envelope
	testutil.AssertJSON(t, w, &detail)
	var populated models.ClientDetail
	if err := json.Unmarshal(detail.Data, &populated); err != nil {
		t.Fatalf("Failed to decode client detail: %v", err)
	}
	if len(populated.Enrollments) != 1 || populated.Enrollments[0].Status != models.StatusCompleted {
		t.Errorf("Expected completed enrollment, got %+v", populated.Enrollments)
	}
	if populated.RegisteredBy == nil || populated.RegisteredBy.Email != "doctor@example.com" {
		t.Errorf("Expected registrar to be populated, got %+v", populated.RegisteredBy)
	}

	w = env.do(http.MethodPut, clientPath+"/programs/"+program.ID.Hex(), map[string]any{"status": "paused"})
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = env.do(http.MethodPut, clientPath, map[string]any{"contactNumber": "0320000000"})
	testutil.AssertStatus(t, w, http.StatusOK)

	w = env.do(http.MethodDelete, clientPath+"/programs/"+program.ID.Hex(), nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = env.do(http.MethodDelete, clientPath+"/programs/"+program.ID.Hex(), nil)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = env.do(http.MethodDelete, clientPath, nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = env.do(http.MethodGet, clientPath, nil)
	testutil.AssertStatus(t, w, http.StatusNotFound)
	assertMessage(t, w, "Client not found")
}

func TestClientPublicProfile(t *testing.T) {
	env := newTestEnv(t)
	program := testutil.CreateTestProgram(t, env.store, "HIV Care", true, time.Now())
	client := testutil.CreateTestClient(t, env.store, "Jane", "Doe", time.Now(), program.ID)

	w := env.anonymous(http.MethodGet, "/api/clients/"+client.ID.Hex()+"/profile", nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	var body struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	testutil.AssertJSON(t, w, &body)
	for _, key := range []string{"id", "firstName", "lastName", "gender", "age", "programs"} {
		if _, ok := body.Data[key]; !ok {
			t.Errorf("Expected key %q in public profile", key)
		}
	}
	if len(body.Data) != 6 {
		t.Errorf("Expected exactly 6 keys, got %v", body.Data)
	}
	for _, key := range []string{"contactNumber", "address", "registeredBy", "dateOfBirth", "enrollments"} {
		if _, ok := body.Data[key]; ok {
			t.Errorf("Expected %q to be excluded from the public profile", key)
		}
	}
	if _, ok := body.Data["age"].(float64); !ok {
		t.Errorf("Expected numeric age, got %v", body.Data["age"])
	}

	w = env.anonymous(http.MethodGet, "/api/clients/"+primitive.NewObjectID().Hex()+"/profile", nil)
	testutil.AssertStatus(t, w, http.StatusNotFound)

	w = env.anonymous(http.MethodGet, "/api/clients/bogus/profile", nil)
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	assertMessage(t, w, "Invalid client ID")
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	x := testutil.CreateTestProgram(t, env.store, "X", true, time.Now())
	y := testutil.CreateTestProgram(t, env.store, "Y", true, time.Now())
	for i := 0; i < 4; i++ {
		programs := []primitive.ObjectID{x.ID}
		if i < 2 {
			programs = append(programs, y.ID)
		}
		testutil.CreateTestClient(t, env.store, "C", fmt.Sprint(i), time.Now(), programs...)
	}

	w := env.do(http.MethodGet, "/api/dashboard", nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var body envelope
	testutil.AssertJSON(t, w, &body)
	var stats models.DashboardStats
	if err := json.Unmarshal(body.Data, &stats); err != nil {
		t.Fatalf("Failed to decode dashboard: %v", err)
	}
	if stats.TotalClients != 4 || stats.TotalDoctors != 1 {
		t.Errorf("Unexpected totals: %+v", stats)
	}
	if len(stats.PopularPrograms) != 2 || stats.PopularPrograms[0].Program != "X" || stats.PopularPrograms[0].Count != 4 {
		t.Errorf("Expected X with 4 enrollments first, got %+v", stats.PopularPrograms)
	}
}

func TestInternalErrorsAreMasked(t *testing.T) {
	env := newTestEnv(t)
	env.store.FailWith = errors.New("mongo: connection pool exhausted")

	w := env.do(http.MethodGet, "/api/programs", nil)
	testutil.AssertStatus(t, w, http.StatusInternalServerError)
	if strings.Contains(w.Body.String(), "mongo") {
		t.Errorf("Expected internal detail to be hidden, got %s", w.Body.String())
	}
	assertMessage(t, w, "Internal server error")
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.anonymous(http.MethodGet, "/api/health", nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	env.store.PingErr = errors.New("no reachable servers")
	w = env.anonymous(http.MethodGet, "/api/health", nil)
	testutil.AssertStatus(t, w, http.StatusServiceUnavailable)
	var body map[string]any
	testutil.AssertJSON(t, w, &body)
	if body["status"] != "degraded" {
		t.Errorf("Expected degraded status, got %v", body["status"])
	}
}

func assertMessage(t *testing.T, w *httptest.ResponseRecorder, want string) {
	t.Helper()
	var body envelope
	testutil.AssertJSON(t, w, &body)
	if body.Success {
		t.Error("Expected success to be false")
	}
	if body.Message != want {
		t.Errorf("Expected message %q, got %q", want, body.Message)
	}
}
