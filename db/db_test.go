package db

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kphotone-reward/backend/config"
	errs "github.com/kphotone-reward/backend/errors"
	"github.com/kphotone-reward/backend/models"
	"github.com/pkg/errors"
)

func setupTestDB(t *testing.T) *GormDB {
	t.Helper()
	g, err := Open(&config.Config{
		Env:        "test",
		DBDriver:   config.DriverSQLite,
		SQLitePath: ":memory:",
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

func createTestUser(t *testing.T, g *GormDB, email string) *models.User {
	t.Helper()
	user, err := NewAuthRepo(g).CreateUser(context.Background(), &models.User{
		Name:           "Test User",
		Email:          email,
		Phone:          "0800",
		Country:        "NG",
		HashedPassword: "x",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createTestSurvey(t *testing.T, g *GormDB, code string, points int) *models.Survey {
	t.Helper()
	now := time.Now()
	survey, err := NewSurveyRepo(g).CreateSurvey(context.Background(), &models.Survey{
		SurveyCode:   code,
		Title:        "Survey " + code,
		SurveyLink:   "https://example.com/" + code,
		RewardPoints: points,
		StartDate:    now.Add(-time.Hour),
		EndDate:      now.Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create survey: %v", err)
	}
	return survey
}

func TestMigrateIsIdempotent(t *testing.T) {
	g := setupTestDB(t)
	if err := migrate(g.DB); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestSeedAdmin(t *testing.T) {
	g := setupTestDB(t)
	c := &config.Config{AdminEmail: "admin@example.com", AdminPassword: "secret123"}

	for i := 0; i < 2; i++ {
		if err := SeedAdmin(g.DB, c); err != nil {
			t.Fatalf("SeedAdmin run %d: %v", i, err)
		}
	}

	var count int64
	g.DB.Model(&models.User{}).Where("email = ?", c.AdminEmail).Count(&count)
	if count != 1 {
		t.Fatalf("admin rows = %d, want 1", count)
	}

	admin, err := NewAuthRepo(g).FindUserByEmail(context.Background(), c.AdminEmail)
	if err != nil {
		t.Fatalf("find admin: %v", err)
	}
	if !admin.IsAdmin() {
		t.Errorf("role = %q, want admin", admin.Role)
	}
	if err := admin.VerifyPassword(c.AdminPassword); err != nil {
		t.Errorf("admin password does not verify: %v", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	g := setupTestDB(t)
	createTestUser(t, g, "dup@example.com")

	_, err := NewAuthRepo(g).CreateUser(context.Background(), &models.User{
		Name: "Other", Email: "dup@example.com", Phone: "1", Country: "NG", HashedPassword: "x",
	})
	if !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestUpdateUserFieldsRejectsPoints(t *testing.T) {
	g := setupTestDB(t)
	user := createTestUser(t, g, "edit@example.com")
	repo := NewAuthRepo(g)

	_, err := repo.UpdateUserFields(context.Background(), user.ID, map[string]interface{}{"points": 500})
	if !errors.Is(err, errs.ErrBadRequest) {
		t.Fatalf("err = %v, want ErrBadRequest", err)
	}

	updated, err := repo.SetUserActive(context.Background(), user.ID, false)
	if err != nil {
		t.Fatalf("SetUserActive: %v", err)
	}
	if updated.IsActive {
		t.Error("user still active after deactivation")
	}
	if updated.Points != 0 {
		t.Errorf("points = %d, want 0", updated.Points)
	}
}

func TestListUsersPaginates(t *testing.T) {
	g := setupTestDB(t)
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		createTestUser(t, g, email)
	}

	users, total, err := NewAuthRepo(g).ListUsers(context.Background(), models.UserFilter{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(users) != 2 {
		t.Errorf("len(users) = %d, want 2", len(users))
	}
}

func TestLedgerCreditDebit(t *testing.T) {
	g := setupTestDB(t)
	user := createTestUser(t, g, "ledger@example.com")
	ledger := NewLedgerRepo(g)
	ctx := context.Background()

	balance, err := ledger.Credit(ctx, user.ID, 30, models.ReasonAdminGrant, 0)
	if err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if balance != 30 {
		t.Errorf("balance = %d, want 30", balance)
	}

	balance, err = ledger.Debit(ctx, user.ID, 20, models.ReasonRedemption, 1)
	if err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if balance != 10 {
		t.Errorf("balance = %d, want 10", balance)
	}

	entries, err := ledger.ListTransactions(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	sum := 0
	for _, e := range entries {
		sum += e.Delta
	}
	if len(entries) != 2 || sum != 10 {
		t.Errorf("journal = %d entries summing %d, want 2 summing 10", len(entries), sum)
	}
}

func TestLedgerDebitInsufficient(t *testing.T) {
	g := setupTestDB(t)
	user := createTestUser(t, g, "poor@example.com")
	ledger := NewLedgerRepo(g)
	ctx := context.Background()

	if _, err := ledger.Credit(ctx, user.ID, 10, models.ReasonAdminGrant, 0); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	_, err := ledger.Debit(ctx, user.ID, 50, models.ReasonRedemption, 1)
	if !errors.Is(err, errs.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	balance, err := ledger.GetBalance(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance != 10 {
		t.Errorf("balance = %d, want 10", balance)
	}
}

func TestLedgerRejectsNonPositive(t *testing.T) {
	g := setupTestDB(t)
	user := createTestUser(t, g, "zero@example.com")
	ledger := NewLedgerRepo(g)

	for _, amount := range []int{0, -5} {
		if _, err := ledger.Credit(context.Background(), user.ID, amount, models.ReasonAdminGrant, 0); !errors.Is(err, errs.ErrInvalidPoints) {
			t.Errorf("Credit(%d) err = %v, want ErrInvalidPoints", amount, err)
		}
		if _, err := ledger.Debit(context.Background(), user.ID, amount, models.ReasonRedemption, 0); !errors.Is(err, errs.ErrInvalidPoints) {
			t.Errorf("Debit(%d) err = %v, want ErrInvalidPoints", amount, err)
		}
	}
}

func TestLedgerUnknownUser(t *testing.T) {
	g := setupTestDB(t)
	ledger := NewLedgerRepo(g)

	if _, err := ledger.Credit(context.Background(), 999, 5, models.ReasonAdminGrant, 0); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Credit err = %v, want ErrNotFound", err)
	}
	if _, err := ledger.Debit(context.Background(), 999, 5, models.ReasonRedemption, 0); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Debit err = %v, want ErrNotFound", err)
	}
}

func TestLedgerConcurrentCredits(t *testing.T) {
	g := setupTestDB(t)
	user := createTestUser(t, g, "busy@example.com")
	ledger := NewLedgerRepo(g)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.Credit(context.Background(), user.ID, 5, models.ReasonAdminGrant, 0); err != nil {
				t.Errorf("Credit: %v", err)
			}
		}()
	}
	wg.Wait()

	balance, err := ledger.GetBalance(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance != workers*5 {
		t.Errorf("balance = %d, want %d", balance, workers*5)
	}
}

func TestSurveyTransitionStatus(t *testing.T) {
	g := setupTestDB(t)
	survey := createTestSurvey(t, g, "S1", 10)
	repo := NewSurveyRepo(g)
	ctx := context.Background()

	paused, err := repo.TransitionStatus(ctx, survey.ID, models.SurveyPaused)
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if paused.Status != models.SurveyPaused {
		t.Errorf("status = %s, want paused", paused.Status)
	}

	if _, err := repo.TransitionStatus(ctx, survey.ID, models.SurveyPaused); !errors.Is(err, errs.ErrInvalidState) {
		t.Errorf("pause twice err = %v, want ErrInvalidState", err)
	}

	if _, err := repo.TransitionStatus(ctx, survey.ID, models.SurveyExpired); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if _, err := repo.TransitionStatus(ctx, survey.ID, models.SurveyActive); !errors.Is(err, errs.ErrInvalidState) {
		t.Errorf("resume expired err = %v, want ErrInvalidState", err)
	}

	if _, err := repo.TransitionStatus(ctx, 999, models.SurveyPaused); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("unknown survey err = %v, want ErrNotFound", err)
	}
}

func TestSurveyDuplicateCode(t *testing.T) {
	g := setupTestDB(t)
	createTestSurvey(t, g, "DUP", 10)

	_, err := NewSurveyRepo(g).CreateSurvey(context.Background(), &models.Survey{
		SurveyCode: "DUP", Title: "x", SurveyLink: "https://x", RewardPoints: 1,
		StartDate: time.Now(), EndDate: time.Now().Add(time.Hour),
	})
	if !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
}
