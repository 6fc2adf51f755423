package services

import (
	"context"
	"log"
	"time"

	"github.com/kphotone-reward/backend/config"
	"github.com/kphotone-reward/backend/db"
	apiError "github.com/kphotone-reward/backend/errors"
	"github.com/kphotone-reward/backend/models"
	"github.com/pkg/errors"
)

// RewardService assigns surveys to users and pays out their completions.
type RewardService interface {
	AssignSurvey(ctx context.Context, userID, surveyID uint) (*models.Assignment, error)
	AssignSurveyToUsers(ctx context.Context, userIDs []uint, surveyID uint) (*models.AssignManyResult, error)
	AddPoints(ctx context.Context, userID, surveyID uint) (*models.RewardResult, error)
	CompleteSurvey(ctx context.Context, userID, surveyID uint) (*models.RewardResult, error)
	GetAssignedSurveys(ctx context.Context, userID uint) ([]models.SurveyWithAssignment, error)
	GetCompletedSurveys(ctx context.Context, userID uint) ([]models.SurveyWithAssignment, error)
	GetSurveyUsers(ctx context.Context, surveyID uint) ([]models.AssignedUser, error)
}

type rewardService struct {
	Config         *config.Config
	authRepo       db.AuthRepository
	surveyRepo     db.SurveyRepository
	assignmentRepo db.AssignmentRepository
	now            func() time.Time
}

func NewRewardService(authRepo db.AuthRepository, surveyRepo db.SurveyRepository, assignmentRepo db.AssignmentRepository, conf *config.Config) RewardService {
	return &rewardService{
		Config:         conf,
		authRepo:       authRepo,
		surveyRepo:     surveyRepo,
		assignmentRepo: assignmentRepo,
		now:            time.Now,
	}
}

func (s *rewardService) AssignSurvey(ctx context.Context, userID, surveyID uint) (*models.Assignment, error) {
	if _, err := s.authRepo.FindUserByID(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.surveyRepo.FindSurveyByID(ctx, surveyID); err != nil {
		return nil, err
	}

	existing, err := s.assignmentRepo.FindByUserAndSurvey(ctx, userID, surveyID)
	switch {
	case err == nil:
		return nil, apiError.ErrAlreadyAssigned.WithMessage("user %d is already assigned survey %d", existing.UserID, existing.SurveyID)
	case !errors.Is(err, apiError.ErrNotAssigned):
		return nil, err
	}
	return s.assignmentRepo.CreateAssignment(ctx, userID, surveyID)
}

// AssignSurveyToUsers assigns the survey to every listed user. Users that
// are unknown or already assigned are reported as skipped.
func (s *rewardService) AssignSurveyToUsers(ctx context.Context, userIDs []uint, surveyID uint) (*models.AssignManyResult, error) {
	if _, err := s.surveyRepo.FindSurveyByID(ctx, surveyID); err != nil {
		return nil, err
	}

	result := &models.AssignManyResult{
		Assigned: []models.Assignment{},
		Skipped:  []uint{},
	}
	seen := map[uint]bool{}
	for _, userID := range userIDs {
		if seen[userID] {
			continue
		}
		seen[userID] = true

		assignment, err := s.AssignSurvey(ctx, userID, surveyID)
		switch {
		case err == nil:
			result.Assigned = append(result.Assigned, *assignment)
		case errors.Is(err, apiError.ErrAlreadyAssigned), errors.Is(err, apiError.ErrNotFound):
			result.Skipped = append(result.Skipped, userID)
		default:
			return nil, err
		}
	}
	return result, nil
}

// AddPoints is the admin path: it rewards an assignment regardless of the
// survey's current window.
func (s *rewardService) AddPoints(ctx context.Context, userID, surveyID uint) (*models.RewardResult, error) {
	return s.reward(ctx, userID, surveyID, false)
}

// CompleteSurvey is the user path and requires the survey to accept completions.
func (s *rewardService) CompleteSurvey(ctx context.Context, userID, surveyID uint) (*models.RewardResult, error) {
	return s.reward(ctx, userID, surveyID, true)
}

func (s *rewardService) reward(ctx context.Context, userID, surveyID uint, selfService bool) (*models.RewardResult, error) {
	assignment, err := s.assignmentRepo.FindByUserAndSurvey(ctx, userID, surveyID)
	if err != nil {
		return nil, err
	}
	if !assignment.Status.CanTransitionTo(models.AssignmentRewarded) {
		return nil, apiError.ErrAlreadyRewarded
	}

	survey, err := s.surveyRepo.FindSurveyByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if selfService && !survey.AcceptsCompletions(now) {
		return nil, apiError.ErrInvalidState.WithMessage("survey is not accepting completions (%s)", survey.EffectiveStatus(now))
	}

	rewarded, balance, err := s.assignmentRepo.Reward(ctx, assignment.ID, userID, survey.RewardPoints, now)
	if err != nil {
		return nil, err
	}
	log.Printf("user %d rewarded %d points for survey %d", userID, survey.RewardPoints, surveyID)

	rewarded.Survey = survey
	return &models.RewardResult{
		Assignment:  *rewarded,
		PointsAdded: survey.RewardPoints,
		Balance:     balance,
	}, nil
}

// GetAssignedSurveys lists the user's open surveys. Paused surveys are hidden.
func (s *rewardService) GetAssignedSurveys(ctx context.Context, userID uint) ([]models.SurveyWithAssignment, error) {
	assigned, err := s.assignmentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]models.SurveyWithAssignment, 0, len(assigned))
	for _, a := range assigned {
		if a.Survey.EffectiveStatus(now) == models.SurveyPaused {
			continue
		}
		a.Status = a.Survey.EffectiveStatus(now)
		out = append(out, a)
	}
	return out, nil
}

func (s *rewardService) GetCompletedSurveys(ctx context.Context, userID uint) ([]models.SurveyWithAssignment, error) {
	return s.assignmentRepo.ListByUser(ctx, userID, models.AssignmentRewarded)
}

func (s *rewardService) GetSurveyUsers(ctx context.Context, surveyID uint) ([]models.AssignedUser, error) {
	if _, err := s.surveyRepo.FindSurveyByID(ctx, surveyID); err != nil {
		return nil, err
	}
	return s.assignmentRepo.ListUsersBySurvey(ctx, surveyID)
}
