package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kphotone-reward/backend/config"
	"github.com/kphotone-reward/backend/db"
	apiError "github.com/kphotone-reward/backend/errors"
	"github.com/kphotone-reward/backend/models"
	"github.com/pkg/errors"
)

type SurveyService interface {
	CreateSurvey(ctx context.Context, request *models.CreateSurveyRequest) (*models.Survey, error)
	UpdateSurvey(ctx context.Context, surveyID uint, request *models.UpdateSurveyRequest) (*models.Survey, error)
	PauseSurvey(ctx context.Context, surveyID uint) (*models.Survey, error)
	ResumeSurvey(ctx context.Context, surveyID uint) (*models.Survey, error)
	CheckExpiry(ctx context.Context, surveyID uint) (*models.Survey, error)
	ListSurveys(ctx context.Context, filter models.SurveyFilter) ([]models.Survey, int64, error)
}

type surveyService struct {
	Config     *config.Config
	surveyRepo db.SurveyRepository
	now        func() time.Time
}

func NewSurveyService(surveyRepo db.SurveyRepository, conf *config.Config) SurveyService {
	return &surveyService{
		Config:     conf,
		surveyRepo: surveyRepo,
		now:        time.Now,
	}
}

func (s *surveyService) CreateSurvey(ctx context.Context, request *models.CreateSurveyRequest) (*models.Survey, error) {
	if err := models.Sanitize(request); err != nil {
		return nil, apiError.ErrBadRequest.WithMessage("%s", err.Error())
	}
	code := request.SurveyCode
	if code == "" {
		code = strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	}
	survey := &models.Survey{
		SurveyCode:   code,
		Title:        request.Title,
		SurveyLink:   request.SurveyLink,
		RewardPoints: request.RewardPoints,
		StartDate:    request.StartDate,
		EndDate:      request.EndDate,
		Status:       models.SurveyActive,
	}
	if err := validateSurvey(survey); err != nil {
		return nil, err
	}
	return s.surveyRepo.CreateSurvey(ctx, survey)
}

// UpdateSurvey edits catalogue fields. Redemptions already requested keep
// the points they captured.
func (s *surveyService) UpdateSurvey(ctx context.Context, surveyID uint, request *models.UpdateSurveyRequest) (*models.Survey, error) {
	survey, err := s.surveyRepo.FindSurveyByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if request.Title != nil {
		survey.Title = strings.TrimSpace(*request.Title)
	}
	if request.SurveyLink != nil {
		survey.SurveyLink = strings.TrimSpace(*request.SurveyLink)
	}
	if request.RewardPoints != nil {
		survey.RewardPoints = *request.RewardPoints
	}
	if request.StartDate != nil {
		survey.StartDate = *request.StartDate
	}
	if request.EndDate != nil {
		survey.EndDate = *request.EndDate
	}
	if err := validateSurvey(survey); err != nil {
		return nil, err
	}
	return s.surveyRepo.UpdateSurvey(ctx, survey)
}

func (s *surveyService) PauseSurvey(ctx context.Context, surveyID uint) (*models.Survey, error) {
	if _, err := s.expireIfDue(ctx, surveyID); err != nil {
		return nil, err
	}
	return s.surveyRepo.TransitionStatus(ctx, surveyID, models.SurveyPaused)
}

func (s *surveyService) ResumeSurvey(ctx context.Context, surveyID uint) (*models.Survey, error) {
	if _, err := s.expireIfDue(ctx, surveyID); err != nil {
		return nil, err
	}
	return s.surveyRepo.TransitionStatus(ctx, surveyID, models.SurveyActive)
}

func (s *surveyService) CheckExpiry(ctx context.Context, surveyID uint) (*models.Survey, error) {
	return s.expireIfDue(ctx, surveyID)
}

// expireIfDue persists the expired status once the end date has passed.
func (s *surveyService) expireIfDue(ctx context.Context, surveyID uint) (*models.Survey, error) {
	survey, err := s.surveyRepo.FindSurveyByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if survey.Status == models.SurveyExpired || !survey.IsExpiredAt(s.now()) {
		return survey, nil
	}
	expired, err := s.surveyRepo.TransitionStatus(ctx, surveyID, models.SurveyExpired)
	switch {
	case errors.Is(err, apiError.ErrInvalidState):
		// expired concurrently
		return s.surveyRepo.FindSurveyByID(ctx, surveyID)
	case err != nil:
		return nil, err
	}
	log.Printf("survey %d expired", surveyID)
	return expired, nil
}

func (s *surveyService) ListSurveys(ctx context.Context, filter models.SurveyFilter) ([]models.Survey, int64, error) {
	return s.surveyRepo.ListSurveys(ctx, filter)
}

func validateSurvey(survey *models.Survey) error {
	switch {
	case survey.Title == "":
		return apiError.ErrBadRequest.WithMessage("title is required")
	case survey.SurveyLink == "":
		return apiError.ErrBadRequest.WithMessage("survey link is required")
	case survey.RewardPoints < 1:
		return apiError.ErrInvalidPoints.WithMessage("reward points must be at least 1")
	case !survey.StartDate.Before(survey.EndDate):
		return apiError.ErrBadRequest.WithMessage("start date must be before end date")
	}
	return nil
}
