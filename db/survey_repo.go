package db

import (
	"context"

	errs "github.com/kphotone-reward/backend/errors"
	"github.com/kphotone-reward/backend/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type SurveyRepository interface {
	CreateSurvey(ctx context.Context, survey *models.Survey) (*models.Survey, error)
	FindSurveyByID(ctx context.Context, id uint) (*models.Survey, error)
	UpdateSurvey(ctx context.Context, survey *models.Survey) (*models.Survey, error)
	TransitionStatus(ctx context.Context, id uint, to models.SurveyStatus) (*models.Survey, error)
	ListSurveys(ctx context.Context, filter models.SurveyFilter) ([]models.Survey, int64, error)
	CountSurveys(ctx context.Context) (int64, error)
}

type surveyRepo struct {
	DB *gorm.DB
}

func NewSurveyRepo(db *GormDB) SurveyRepository {
	return &surveyRepo{db.DB}
}

func (r *surveyRepo) CreateSurvey(ctx context.Context, survey *models.Survey) (*models.Survey, error) {
	if survey.Status == "" {
		survey.Status = models.SurveyActive
	}
	if err := r.DB.WithContext(ctx).Create(survey).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.ErrAlreadyExists.WithMessage("survey code %s already exists", survey.SurveyCode)
		}
		return nil, errors.Wrap(err, "create survey")
	}
	return survey, nil
}

func (r *surveyRepo) FindSurveyByID(ctx context.Context, id uint) (*models.Survey, error) {
	var survey models.Survey
	if err := r.DB.WithContext(ctx).First(&survey, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound.WithMessage("survey %d not found", id)
		}
		return nil, errors.Wrapf(err, "find survey %d", id)
	}
	return &survey, nil
}

// UpdateSurvey saves the editable catalogue fields. Status is changed only
// through TransitionStatus.
func (r *surveyRepo) UpdateSurvey(ctx context.Context, survey *models.Survey) (*models.Survey, error) {
	res := r.DB.WithContext(ctx).Model(&models.Survey{}).
		Where("id = ?", survey.ID).
		Updates(map[string]interface{}{
			"title":         survey.Title,
			"survey_link":   survey.SurveyLink,
			"reward_points": survey.RewardPoints,
			"start_date":    survey.StartDate,
			"end_date":      survey.EndDate,
		})
	if res.Error != nil {
		return nil, errors.Wrapf(res.Error, "update survey %d", survey.ID)
	}
	if res.RowsAffected == 0 {
		return nil, errs.ErrNotFound.WithMessage("survey %d not found", survey.ID)
	}
	return r.FindSurveyByID(ctx, survey.ID)
}

// TransitionStatus moves the survey to status `to` with a conditional update
// on the states allowed to reach it.
func (r *surveyRepo) TransitionStatus(ctx context.Context, id uint, to models.SurveyStatus) (*models.Survey, error) {
	var from []models.SurveyStatus
	for _, s := range []models.SurveyStatus{models.SurveyActive, models.SurveyPaused, models.SurveyExpired} {
		if s.CanTransitionTo(to) {
			from = append(from, s)
		}
	}
	if len(from) == 0 {
		return nil, errs.ErrInvalidState.WithMessage("no survey state leads to %s", to)
	}

	res := r.DB.WithContext(ctx).Model(&models.Survey{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return nil, errors.Wrapf(res.Error, "transition survey %d", id)
	}
	survey, err := r.FindSurveyByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, errs.ErrInvalidState.WithMessage("survey is %s, cannot become %s", survey.Status, to)
	}
	return survey, nil
}

func (r *surveyRepo) ListSurveys(ctx context.Context, filter models.SurveyFilter) ([]models.Survey, int64, error) {
	query := r.DB.WithContext(ctx).Model(&models.Survey{}).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count surveys")
	}

	var surveys []models.Survey
	err := query.Order("created_at DESC, id DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&surveys).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list surveys")
	}
	return surveys, total, nil
}

func (r *surveyRepo) CountSurveys(ctx context.Context) (int64, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Survey{}).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "count surveys")
	}
	return count, nil
}
