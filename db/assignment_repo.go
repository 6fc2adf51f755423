package db

import (
	"context"
	"time"

	errs "github.com/kphotone-reward/backend/errors"
	"github.com/kphotone-reward/backend/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type AssignmentRepository interface {
	CreateAssignment(ctx context.Context, userID, surveyID uint) (*models.Assignment, error)
	FindByUserAndSurvey(ctx context.Context, userID, surveyID uint) (*models.Assignment, error)
	Reward(ctx context.Context, assignmentID, userID uint, points int, now time.Time) (*models.Assignment, int, error)
	ListByUser(ctx context.Context, userID uint, statuses ...models.AssignmentStatus) ([]models.SurveyWithAssignment, error)
	ListUsersBySurvey(ctx context.Context, surveyID uint) ([]models.AssignedUser, error)
	CountAssignments(ctx context.Context) (int64, error)
}

type assignmentRepo struct {
	DB *gorm.DB
}

func NewAssignmentRepo(db *GormDB) AssignmentRepository {
	return &assignmentRepo{db.DB}
}

func (r *assignmentRepo) CreateAssignment(ctx context.Context, userID, surveyID uint) (*models.Assignment, error) {
	assignment := &models.Assignment{
		UserID:   userID,
		SurveyID: surveyID,
		Status:   models.AssignmentSent,
	}
	if err := r.DB.WithContext(ctx).Create(assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.ErrAlreadyAssigned.WithMessage("user %d is already assigned survey %d", userID, surveyID)
		}
		return nil, errors.Wrap(err, "create assignment")
	}
	return assignment, nil
}

func (r *assignmentRepo) FindByUserAndSurvey(ctx context.Context, userID, surveyID uint) (*models.Assignment, error) {
	var assignment models.Assignment
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND survey_id = ?", userID, surveyID).
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotAssigned.WithMessage("user %d is not assigned survey %d", userID, surveyID)
		}
		return nil, errors.Wrap(err, "find assignment")
	}
	return &assignment, nil
}

// Reward flips the assignment to rewarded and credits points in the same
// transaction. Only the caller whose conditional update matches a row gets
// to credit, so an assignment is paid at most once.
func (r *assignmentRepo) Reward(ctx context.Context, assignmentID, userID uint, points int, now time.Time) (*models.Assignment, int, error) {
	var (
		assignment models.Assignment
		balance    int
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Assignment{}).
			Where("id = ? AND user_id = ? AND status IN ?", assignmentID, userID, models.AssignmentSourcesOf(models.AssignmentRewarded)).
			Updates(map[string]interface{}{
				"status":      models.AssignmentRewarded,
				"rewarded_at": now,
			})
		if res.Error != nil {
			return errors.Wrapf(res.Error, "reward assignment %d", assignmentID)
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Assignment{}).Where("id = ? AND user_id = ?", assignmentID, userID).Count(&count).Error; err != nil {
				return errors.Wrap(err, "count assignment")
			}
			if count == 0 {
				return errs.ErrNotAssigned
			}
			return errs.ErrAlreadyRewarded
		}

		var err error
		balance, err = credit(tx, userID, points, models.ReasonSurveyReward, assignmentID)
		if err != nil {
			return err
		}
		return tx.First(&assignment, assignmentID).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return &assignment, balance, nil
}

// ListByUser returns the user's assigned surveys, newest first, optionally
// restricted to the given assignment statuses.
func (r *assignmentRepo) ListByUser(ctx context.Context, userID uint, statuses ...models.AssignmentStatus) ([]models.SurveyWithAssignment, error) {
	query := r.DB.WithContext(ctx).
		Preload("Survey").
		Where("user_id = ?", userID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var assignments []models.Assignment
	if err := query.Order("created_at DESC, id DESC").Find(&assignments).Error; err != nil {
		return nil, errors.Wrapf(err, "list assignments of user %d", userID)
	}

	out := make([]models.SurveyWithAssignment, 0, len(assignments))
	for _, a := range assignments {
		if a.Survey == nil {
			continue
		}
		out = append(out, models.SurveyWithAssignment{
			Survey:           *a.Survey,
			AssignmentID:     a.ID,
			AssignmentStatus: a.Status,
			RewardedAt:       a.RewardedAt,
		})
	}
	return out, nil
}

func (r *assignmentRepo) ListUsersBySurvey(ctx context.Context, surveyID uint) ([]models.AssignedUser, error) {
	var users []models.AssignedUser
	err := r.DB.WithContext(ctx).
		Table("user_surveys").
		Select("users.id AS user_id, users.name, users.email, user_surveys.status AS assignment_status").
		Joins("JOIN users ON users.id = user_surveys.user_id").
		Where("user_surveys.survey_id = ?", surveyID).
		Order("user_surveys.id").
		Scan(&users).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list users of survey %d", surveyID)
	}
	return users, nil
}

func (r *assignmentRepo) CountAssignments(ctx context.Context) (int64, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Assignment{}).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "count assignments")
	}
	return count, nil
}
