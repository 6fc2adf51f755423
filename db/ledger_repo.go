package db

import (
	"context"

	errs "github.com/kphotone-reward/backend/errors"
	"github.com/kphotone-reward/backend/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// LedgerRepository owns the user point balances. Balances are only ever
// moved by relative updates, each paired with a journal entry.
type LedgerRepository interface {
	Credit(ctx context.Context, userID uint, amount int, reason string, referenceID uint) (int, error)
	Debit(ctx context.Context, userID uint, amount int, reason string, referenceID uint) (int, error)
	GetBalance(ctx context.Context, userID uint) (int, error)
	ListTransactions(ctx context.Context, userID uint) ([]models.PointTransaction, error)
	SumAllBalances(ctx context.Context) (int64, error)
	SumCredited(ctx context.Context, reason string) (int64, error)
}

type ledgerRepo struct {
	DB *gorm.DB
}

func NewLedgerRepo(db *GormDB) LedgerRepository {
	return &ledgerRepo{db.DB}
}

func (r *ledgerRepo) Credit(ctx context.Context, userID uint, amount int, reason string, referenceID uint) (int, error) {
	var balance int
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		balance, err = credit(tx, userID, amount, reason, referenceID)
		return err
	})
	return balance, err
}

func (r *ledgerRepo) Debit(ctx context.Context, userID uint, amount int, reason string, referenceID uint) (int, error) {
	var balance int
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		balance, err = debit(tx, userID, amount, reason, referenceID)
		return err
	})
	return balance, err
}

func (r *ledgerRepo) GetBalance(ctx context.Context, userID uint) (int, error) {
	return balanceOf(r.DB.WithContext(ctx), userID)
}

func (r *ledgerRepo) ListTransactions(ctx context.Context, userID uint) ([]models.PointTransaction, error) {
	var entries []models.PointTransaction
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, errors.Wrap(err, "list point transactions")
	}
	return entries, nil
}

func (r *ledgerRepo) SumAllBalances(ctx context.Context) (int64, error) {
	var total int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, errors.Wrap(err, "sum balances")
	}
	return total, nil
}

func (r *ledgerRepo) SumCredited(ctx context.Context, reason string) (int64, error) {
	var total int64
	err := r.DB.WithContext(ctx).Model(&models.PointTransaction{}).
		Where("reason = ? AND delta > 0", reason).
		Select("COALESCE(SUM(delta), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, errors.Wrap(err, "sum credited points")
	}
	return total, nil
}

// credit adds amount to the user's balance inside tx.
func credit(tx *gorm.DB, userID uint, amount int, reason string, referenceID uint) (int, error) {
	if amount <= 0 {
		return 0, errs.ErrInvalidPoints.WithMessage("credit amount must be positive, got %d", amount)
	}
	res := tx.Model(&models.User{}).
		Where("id = ?", userID).
		Update("points", gorm.Expr("points + ?", amount))
	if res.Error != nil {
		return 0, errors.Wrapf(res.Error, "credit user %d", userID)
	}
	if res.RowsAffected == 0 {
		return 0, errs.ErrNotFound.WithMessage("user %d not found", userID)
	}
	if err := journal(tx, userID, amount, reason, referenceID); err != nil {
		return 0, err
	}
	return balanceOf(tx, userID)
}

// debit subtracts amount inside tx. The guard on the update itself is what
// keeps the balance from going negative under concurrent debits.
func debit(tx *gorm.DB, userID uint, amount int, reason string, referenceID uint) (int, error) {
	if amount <= 0 {
		return 0, errs.ErrInvalidPoints.WithMessage("debit amount must be positive, got %d", amount)
	}
	res := tx.Model(&models.User{}).
		Where("id = ? AND points >= ?", userID, amount).
		Update("points", gorm.Expr("points - ?", amount))
	if res.Error != nil {
		return 0, errors.Wrapf(res.Error, "debit user %d", userID)
	}
	if res.RowsAffected == 0 {
		if _, err := balanceOf(tx, userID); err != nil {
			return 0, err
		}
		return 0, errs.ErrInsufficientBalance
	}
	if err := journal(tx, userID, -amount, reason, referenceID); err != nil {
		return 0, err
	}
	return balanceOf(tx, userID)
}

func journal(tx *gorm.DB, userID uint, delta int, reason string, referenceID uint) error {
	entry := models.PointTransaction{
		UserID:      userID,
		Delta:       delta,
		Reason:      reason,
		ReferenceID: referenceID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return errors.Wrap(err, "write point journal")
	}
	return nil
}

func balanceOf(tx *gorm.DB, userID uint) (int, error) {
	var user models.User
	err := tx.Select("id", "points").First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, errs.ErrNotFound.WithMessage("user %d not found", userID)
		}
		return 0, errors.Wrapf(err, "load balance of user %d", userID)
	}
	return user.Points, nil
}
