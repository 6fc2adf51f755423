package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kphotone-reward/backend/config"
	"github.com/kphotone-reward/backend/db"
	"github.com/kphotone-reward/backend/services"
)

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func setupTestServer(t *testing.T) (*gin.Engine, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("GIN_MODE", "test")

	conf := &config.Config{
		Env:                 "test",
		DBDriver:            config.DriverSQLite,
		SQLitePath:          ":memory:",
		JWTSecret:           "test-secret",
		TokenTTL:            time.Hour,
		AdminEmail:          "admin@example.com",
		AdminPassword:       "adminpass",
		LoginRateLimit:      100,
		RedemptionRateLimit: 100,
		MinRedemptionPoints: 50,
	}
	gormDB, err := db.Open(conf)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { gormDB.Close() })
	if err := db.SeedAdmin(gormDB.DB, conf); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	authRepo := db.NewAuthRepo(gormDB)
	surveyRepo := db.NewSurveyRepo(gormDB)
	assignmentRepo := db.NewAssignmentRepo(gormDB)
	ledgerRepo := db.NewLedgerRepo(gormDB)
	redemptionRepo := db.NewRedemptionRepo(gormDB)

	s := &Server{
		Config:            conf,
		DB:                gormDB,
		AuthRepository:    authRepo,
		AuthService:       services.NewAuthService(authRepo, ledgerRepo, conf),
		SurveyService:     services.NewSurveyService(surveyRepo, conf),
		RewardService:     services.NewRewardService(authRepo, surveyRepo, assignmentRepo, conf),
		RedemptionService: services.NewRedemptionService(redemptionRepo, conf),
		StatsService:      services.NewStatsService(authRepo, surveyRepo, assignmentRepo, ledgerRepo),
	}
	return s.setupRouter(), conf
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, env
}

func login(t *testing.T, r http.Handler, email, password string) (string, uint) {
	t.Helper()
	code, env := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	if code != http.StatusOK {
		t.Fatalf("login %s: status %d, body %+v", email, code, env)
	}
	var data struct {
		ID          uint   `json:"id"`
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return data.AccessToken, data.ID
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func TestRedemptionFlowOverHTTP(t *testing.T) {
	r, conf := setupTestServer(t)

	code, env := doJSON(t, r, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"name": "Dr Ada", "email": "ada@example.com", "phone": "0801", "country": "NG", "password": "password1",
	})
	if code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %+v", code, env)
	}

	adminToken, _ := login(t, r, conf.AdminEmail, conf.AdminPassword)
	userToken, userID := login(t, r, "ada@example.com", "password1")

	now := time.Now().UTC()
	code, env = doJSON(t, r, http.MethodPost, "/api/v1/surveys", adminToken, map[string]interface{}{
		"title":         "Cardiology panel",
		"survey_link":   "https://surveys.example.com/cardio",
		"reward_points": 60,
		"start_date":    now.Add(-time.Hour),
		"end_date":      now.Add(24 * time.Hour),
	})
	if code != http.StatusCreated {
		t.Fatalf("create survey status = %d, body %+v", code, env)
	}
	var survey struct {
		ID uint `json:"id"`
	}
	decodeData(t, env, &survey)

	code, env = doJSON(t, r, http.MethodPost, "/api/v1/surveys/assign", adminToken, map[string]uint{
		"user_id": userID, "survey_id": survey.ID,
	})
	if code != http.StatusCreated {
		t.Fatalf("assign status = %d, body %+v", code, env)
	}

	code, env = doJSON(t, r, http.MethodPost, "/api/v1/surveys/complete", userToken, map[string]uint{"survey_id": survey.ID})
	if code != http.StatusOK {
		t.Fatalf("complete status = %d, body %+v", code, env)
	}
	var reward struct {
		Assignment struct {
			ID uint `json:"id"`
		} `json:"assignment"`
		Balance int `json:"balance"`
	}
	decodeData(t, env, &reward)
	if reward.Balance != 60 {
		t.Errorf("balance after complete = %d, want 60", reward.Balance)
	}

	code, env = doJSON(t, r, http.MethodPost, "/api/v1/surveys/complete", userToken, map[string]uint{"survey_id": survey.ID})
	if code != http.StatusConflict || env.Errors == nil || env.Errors.Code != "ALREADY_REWARDED" {
		t.Errorf("second complete = %d %+v, want 409 ALREADY_REWARDED", code, env.Errors)
	}

	code, env = doJSON(t, r, http.MethodPost, "/api/v1/redemption/request", userToken, map[string][]uint{
		"assignment_ids": {reward.Assignment.ID},
	})
	if code != http.StatusCreated {
		t.Fatalf("request status = %d, body %+v", code, env)
	}
	var redemption struct {
		ID     uint   `json:"id"`
		Points int    `json:"points"`
		Status string `json:"status"`
	}
	decodeData(t, env, &redemption)
	if redemption.Points != 60 || redemption.Status != "pending" {
		t.Errorf("redemption = %+v, want 60 pending", redemption)
	}

	code, env = doJSON(t, r, http.MethodPost, "/api/v1/redemption/request", userToken, map[string][]uint{
		"assignment_ids": {reward.Assignment.ID},
	})
	if code != http.StatusUnprocessableEntity || env.Errors == nil || env.Errors.Code != "NO_ELIGIBLE_SURVEYS" {
		t.Errorf("re-request = %d %+v, want 422 NO_ELIGIBLE_SURVEYS", code, env.Errors)
	}

	approvePath := fmt.Sprintf("/api/v1/redemption/%d/approve", redemption.ID)
	if code, env = doJSON(t, r, http.MethodPatch, approvePath, userToken, nil); code != http.StatusForbidden {
		t.Errorf("user approve status = %d, want 403", code)
	}
	if code, env = doJSON(t, r, http.MethodPatch, approvePath, adminToken, nil); code != http.StatusOK {
		t.Fatalf("approve status = %d, body %+v", code, env)
	}
	code, env = doJSON(t, r, http.MethodPatch, approvePath, adminToken, nil)
	if code != http.StatusConflict || env.Errors == nil || env.Errors.Code != "INVALID_STATE" {
		t.Errorf("second approve = %d %+v, want 409 INVALID_STATE", code, env.Errors)
	}

	code, env = doJSON(t, r, http.MethodGet, "/api/v1/auth/profile", userToken, nil)
	if code != http.StatusOK {
		t.Fatalf("profile status = %d", code)
	}
	var profile struct {
		Points int `json:"points"`
	}
	decodeData(t, env, &profile)
	if profile.Points != 0 {
		t.Errorf("points after approve = %d, want 0", profile.Points)
	}

	code, env = doJSON(t, r, http.MethodGet, "/api/v1/me/ledger", userToken, nil)
	if code != http.StatusOK {
		t.Fatalf("ledger status = %d", code)
	}
	var entries []struct {
		Delta int `json:"delta"`
	}
	decodeData(t, env, &entries)
	if len(entries) != 2 {
		t.Errorf("ledger entries = %d, want 2", len(entries))
	}
}

func TestAuthRequired(t *testing.T) {
	r, _ := setupTestServer(t)

	code, env := doJSON(t, r, http.MethodGet, "/api/v1/surveys/assigned", "", nil)
	if code != http.StatusUnauthorized || env.Errors == nil || env.Errors.Code != "UNAUTHORIZED" {
		t.Errorf("no token = %d %+v, want 401 UNAUTHORIZED", code, env.Errors)
	}
	if code, _ = doJSON(t, r, http.MethodGet, "/api/v1/surveys/assigned", "garbage-token", nil); code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", code)
	}
}

func TestLoginValidation(t *testing.T) {
	r, _ := setupTestServer(t)

	code, env := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "not-an-email"})
	if code != http.StatusBadRequest || env.Errors == nil || env.Errors.Code != "BAD_REQUEST" {
		t.Errorf("invalid body = %d %+v, want 400 BAD_REQUEST", code, env.Errors)
	}
	code, env = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "nobody@example.com", "password": "whatever",
	})
	if code != http.StatusUnauthorized {
		t.Errorf("unknown user status = %d, want 401", code)
	}
}
