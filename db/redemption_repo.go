package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	errs "github.com/kphotone-reward/backend/errors"
	"github.com/kphotone-reward/backend/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// RedemptionCheck validates a request once its point total is known and
// before anything is written.
type RedemptionCheck func(user *models.User, points int) error

type RedemptionRepository interface {
	CreatePending(ctx context.Context, userID uint, assignmentIDs []uint, check RedemptionCheck) (*models.Redemption, error)
	Approve(ctx context.Context, id, adminID uint, now time.Time) (*models.Redemption, int, error)
	Reject(ctx context.Context, id, adminID uint, now time.Time) (*models.Redemption, error)
	FindRedemptionByID(ctx context.Context, id uint) (*models.Redemption, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Redemption, error)
	ListAll(ctx context.Context, status models.RedemptionStatus) ([]models.Redemption, error)
	Stats(ctx context.Context, userID *uint) (*models.RedemptionStats, error)
}

type redemptionRepo struct {
	DB *gorm.DB
}

func NewRedemptionRepo(db *GormDB) RedemptionRepository {
	return &redemptionRepo{db.DB}
}

// citedStatuses are the redemption states whose items cannot be cited again.
var citedStatuses = []models.RedemptionStatus{models.RedemptionPending, models.RedemptionApproved}

func (r *redemptionRepo) CreatePending(ctx context.Context, userID uint, assignmentIDs []uint, check RedemptionCheck) (*models.Redemption, error) {
	var redemption *models.Redemption
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrNotFound.WithMessage("user %d not found", userID)
			}
			return errors.Wrapf(err, "find user %d", userID)
		}

		cited := tx.Table("redemption_items").
			Select("redemption_items.assignment_id").
			Joins("JOIN redemptions ON redemptions.id = redemption_items.redemption_id").
			Where("redemptions.user_id = ? AND redemptions.status IN ?", userID, citedStatuses)

		var eligible []models.Assignment
		err := tx.Preload("Survey").
			Where("id IN ? AND user_id = ? AND status = ?", dedupe(assignmentIDs), userID, models.AssignmentRewarded).
			Where("id NOT IN (?)", cited).
			Order("id").
			Find(&eligible).Error
		if err != nil {
			return errors.Wrap(err, "load eligible assignments")
		}
		if len(eligible) == 0 {
			return errs.ErrNoEligibleSurveys
		}

		total := 0
		items := make([]models.RedemptionItem, 0, len(eligible))
		for _, a := range eligible {
			if a.Survey == nil {
				continue
			}
			total += a.Survey.RewardPoints
			items = append(items, models.RedemptionItem{
				AssignmentID: a.ID,
				SurveyID:     a.SurveyID,
				Points:       a.Survey.RewardPoints,
			})
		}
		if len(items) == 0 {
			return errs.ErrNoEligibleSurveys
		}

		if check != nil {
			if err := check(&user, total); err != nil {
				return err
			}
		}

		var pending int64
		err = tx.Model(&models.Redemption{}).
			Where("user_id = ? AND status = ?", userID, models.RedemptionPending).
			Count(&pending).Error
		if err != nil {
			return errors.Wrap(err, "count pending redemptions")
		}
		if pending > 0 {
			return errs.ErrDuplicatePendingRequest
		}

		redemption = &models.Redemption{
			Reference: uuid.New(),
			UserID:    userID,
			Points:    total,
			Status:    models.RedemptionPending,
			Items:     items,
		}
		if err := tx.Create(redemption).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errs.ErrDuplicatePendingRequest
			}
			return errors.Wrap(err, "create redemption")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return redemption, nil
}

// Approve settles a pending redemption. The status flip and the debit
// share a transaction, so a failed debit leaves the request pending.
func (r *redemptionRepo) Approve(ctx context.Context, id, adminID uint, now time.Time) (*models.Redemption, int, error) {
	var (
		redemption *models.Redemption
		balance    int
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := settle(tx, id, adminID, models.RedemptionApproved, now)
		if err != nil {
			return err
		}
		balance, err = debit(tx, current.UserID, current.Points, models.ReasonRedemption, current.ID)
		if err != nil {
			return err
		}
		redemption, err = findRedemption(tx, id)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return redemption, balance, nil
}

func (r *redemptionRepo) Reject(ctx context.Context, id, adminID uint, now time.Time) (*models.Redemption, error) {
	var redemption *models.Redemption
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := settle(tx, id, adminID, models.RedemptionRejected, now); err != nil {
			return err
		}
		var err error
		redemption, err = findRedemption(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return redemption, nil
}

// settle moves a pending redemption to a terminal status with a conditional
// update and returns the row as it was before the flip.
func settle(tx *gorm.DB, id, adminID uint, to models.RedemptionStatus, now time.Time) (*models.Redemption, error) {
	res := tx.Model(&models.Redemption{}).
		Where("id = ? AND status = ?", id, models.RedemptionPending).
		Updates(map[string]interface{}{
			"status":       to,
			"processed_at": now,
			"processed_by": adminID,
		})
	if res.Error != nil {
		return nil, errors.Wrapf(res.Error, "settle redemption %d", id)
	}

	current, err := findRedemption(tx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, errs.ErrInvalidState.WithMessage("redemption %d is already %s", id, current.Status)
	}
	return current, nil
}

func findRedemption(tx *gorm.DB, id uint) (*models.Redemption, error) {
	var redemption models.Redemption
	err := tx.Preload("Items").First(&redemption, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound.WithMessage("redemption %d not found", id)
		}
		return nil, errors.Wrapf(err, "find redemption %d", id)
	}
	return &redemption, nil
}

func (r *redemptionRepo) FindRedemptionByID(ctx context.Context, id uint) (*models.Redemption, error) {
	return findRedemption(r.DB.WithContext(ctx), id)
}

func (r *redemptionRepo) ListByUser(ctx context.Context, userID uint) ([]models.Redemption, error) {
	var redemptions []models.Redemption
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&redemptions).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list redemptions of user %d", userID)
	}
	return redemptions, nil
}

// ListAll returns every redemption, optionally filtered by status, with the
// requesting user attached.
func (r *redemptionRepo) ListAll(ctx context.Context, status models.RedemptionStatus) ([]models.Redemption, error) {
	query := r.DB.WithContext(ctx).Preload("Items").Preload("User")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var redemptions []models.Redemption
	if err := query.Order("created_at DESC, id DESC").Find(&redemptions).Error; err != nil {
		return nil, errors.Wrap(err, "list redemptions")
	}
	return redemptions, nil
}

func (r *redemptionRepo) Stats(ctx context.Context, userID *uint) (*models.RedemptionStats, error) {
	type row struct {
		Status models.RedemptionStatus
		Count  int64
	}
	query := r.DB.WithContext(ctx).Model(&models.Redemption{}).
		Select("status, COUNT(*) AS count").
		Group("status")
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	var rows []row
	if err := query.Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "redemption stats")
	}

	stats := &models.RedemptionStats{}
	for _, rw := range rows {
		stats.Total += rw.Count
		switch rw.Status {
		case models.RedemptionPending:
			stats.Pending = rw.Count
		case models.RedemptionApproved:
			stats.Approved = rw.Count
		case models.RedemptionRejected:
			stats.Rejected = rw.Count
		}
	}
	return stats, nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
