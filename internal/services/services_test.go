package services

import (
	"os"
	"testing"
	"time"

	"github.com/harentsoaR/clinic-records-api/internal/testutil"
	"github.com/harentsoaR/clinic-records-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	utils.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func clock() time.Time { return fixedNow }

func newServices(s *testutil.MemStore) (*ProgramService, *ClientService, *DashboardService, *UserService) {
	programs := NewProgramService(s, s)
	programs.now = clock
	clients := NewClientService(s, s, s)
	clients.now = clock
	dashboard := NewDashboardService(s)
	dashboard.now = clock
	users := NewUserService(s)
	users.now = clock
	return programs, clients, dashboard, users
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("Expected %s error, got %s (%v)", want, got, err)
	}
}

func assertMessage(t *testing.T, err error, want string) {
	t.Helper()
	e, ok := err.(*Error)
	if !ok {
		t.Fatalf("Expected *Error, got %T (%v)", err, err)
	}
	if e.Message != want {
		t.Errorf("Expected message %q, got %q", want, e.Message)
	}
}
