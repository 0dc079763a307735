package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/harentsoaR/clinic-records-api/internal/models"
	"github.com/harentsoaR/clinic-records-api/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGetDashboardStats(t *testing.T) {
	s := testutil.NewMemStore()
	_, _, dashboard, _ := newServices(s)
	testutil.CreateTestUser(t, s, "one@example.com")
	testutil.CreateTestUser(t, s, "two@example.com")
	admin := models.User{Name: "Admin", Email: "admin@example.com", Role: models.RoleAdmin}
	if err := s.InsertUser(context.Background(), &admin); err != nil {
		t.Fatal(err)
	}

	x := testutil.CreateTestProgram(t, s, "X", true, fixedNow)
	y := testutil.CreateTestProgram(t, s, "Y", true, fixedNow)
	testutil.CreateTestProgram(t, s, "Z", false, fixedNow)

	// X gets four enrollments and Y two; one client registered long ago.
	testutil.CreateTestClient(t, s, "A", "A", fixedNow.Add(-90*24*time.Hour), x.ID)
	testutil.CreateTestClient(t, s, "B", "B", fixedNow.Add(-1*time.Hour), x.ID, y.ID)
	testutil.CreateTestClient(t, s, "C", "C", fixedNow.Add(-2*time.Hour), x.ID, y.ID)
	testutil.CreateTestClient(t, s, "D", "D", fixedNow.Add(-3*time.Hour), x.ID)

	stats, err := dashboard.GetDashboardStats(context.Background())
	if err != nil {
		t.Fatalf("GetDashboardStats failed: %v", err)
	}
	if stats.TotalClients != 4 || stats.RecentClients != 3 {
		t.Errorf("Expected 4 clients, 3 recent; got %d and %d", stats.TotalClients, stats.RecentClients)
	}
	if stats.TotalPrograms != 3 || stats.ActivePrograms != 2 {
		t.Errorf("Expected 3 programs, 2 active; got %d and %d", stats.TotalPrograms, stats.ActivePrograms)
	}
	if stats.TotalDoctors != 2 {
		t.Errorf("Expected 2 doctors, got %d", stats.TotalDoctors)
	}

	want := []models.PopularProgram{
		{ProgramID: x.ID, Program: "X", Count: 4},
		{ProgramID: y.ID, Program: "Y", Count: 2},
	}
	if len(stats.PopularPrograms) != len(want) {
		t.Fatalf("Expected %d popular programs, got %+v", len(want), stats.PopularPrograms)
	}
	for i := range want {
		if stats.PopularPrograms[i] != want[i] {
			t.Errorf("Position %d: expected %+v, got %+v", i, want[i], stats.PopularPrograms[i])
		}
	}

	if len(stats.RecentEnrollments) != 6 {
		t.Fatalf("Expected 6 recent enrollments, got %d", len(stats.RecentEnrollments))
	}
	for i := 1; i < len(stats.RecentEnrollments); i++ {
		if stats.RecentEnrollments[i].EnrollmentDate.After(stats.RecentEnrollments[i-1].EnrollmentDate) {
			t.Fatal("Expected recent enrollments newest first")
		}
	}
	if stats.RecentEnrollments[0].ClientName != "B B" {
		t.Errorf("Expected newest enrollment by B B, got %s", stats.RecentEnrollments[0].ClientName)
	}
}

func TestGetDashboardStats_Limits(t *testing.T) {
	s := testutil.NewMemStore()
	_, _, dashboard, _ := newServices(s)

	var ids []primitive.ObjectID
	for i := 0; i < 7; i++ {
		ids = append(ids, testutil.CreateTestProgram(t, s, fmt.Sprintf("P%d", i), true, fixedNow).ID)
	}
	for i := 0; i < 3; i++ {
		testutil.CreateTestClient(t, s, "Client", fmt.Sprint(i), fixedNow, ids...)
	}

	stats, err := dashboard.GetDashboardStats(context.Background())
	if err != nil {
		t.Fatalf("GetDashboardStats failed: %v", err)
	}
	if len(stats.PopularPrograms) != PopularProgramsLimit {
		t.Errorf("Expected %d popular programs, got %d", PopularProgramsLimit, len(stats.PopularPrograms))
	}
	for i := 1; i < len(stats.PopularPrograms); i++ {
		prev, cur := stats.PopularPrograms[i-1].ProgramID, stats.PopularPrograms[i].ProgramID
		if prev.Hex() > cur.Hex() {
			t.Errorf("Expected ties ordered by program id, got %s before %s", prev.Hex(), cur.Hex())
		}
	}
	if len(stats.RecentEnrollments) != RecentEnrollmentsLimit {
		t.Errorf("Expected %d recent enrollments, got %d", RecentEnrollmentsLimit, len(stats.RecentEnrollments))
	}
}

func TestGetDashboardStats_Empty(t *testing.T) {
	_, _, dashboard, _ := newServices(testutil.NewMemStore())

	stats, err := dashboard.GetDashboardStats(context.Background())
	if err != nil {
		t.Fatalf("GetDashboardStats failed: %v", err)
	}
	if stats.PopularPrograms == nil || stats.RecentEnrollments == nil {
		t.Error("Expected empty lists rather than nil")
	}
}
