package services

import (
	"context"
	"log"
	"time"

	"github.com/kphotone-reward/backend/config"
	"github.com/kphotone-reward/backend/db"
	apiError "github.com/kphotone-reward/backend/errors"
	"github.com/kphotone-reward/backend/models"
)

type RedemptionService interface {
	RequestRedemption(ctx context.Context, userID uint, assignmentIDs []uint) (*models.Redemption, error)
	ApproveRedemption(ctx context.Context, redemptionID, adminID uint) (*models.Redemption, error)
	RejectRedemption(ctx context.Context, redemptionID, adminID uint) (*models.Redemption, error)
	GetUserRedemptions(ctx context.Context, userID uint) ([]models.Redemption, error)
	GetAllRedemptions(ctx context.Context, status models.RedemptionStatus) ([]models.Redemption, error)
	GetRedemptionStats(ctx context.Context, userID *uint) (*models.RedemptionStats, error)
}

type redemptionService struct {
	Config         *config.Config
	redemptionRepo db.RedemptionRepository
	now            func() time.Time
}

func NewRedemptionService(redemptionRepo db.RedemptionRepository, conf *config.Config) RedemptionService {
	return &redemptionService{
		Config:         conf,
		redemptionRepo: redemptionRepo,
		now:            time.Now,
	}
}

// RequestRedemption opens a pending request over the cited rewarded
// assignments. Points are fixed here; nothing is debited until approval.
func (s *redemptionService) RequestRedemption(ctx context.Context, userID uint, assignmentIDs []uint) (*models.Redemption, error) {
	if len(assignmentIDs) == 0 {
		return nil, apiError.ErrInvalidPoints.WithMessage("select at least one rewarded survey")
	}

	redemption, err := s.redemptionRepo.CreatePending(ctx, userID, assignmentIDs, s.checkRequest)
	if err != nil {
		return nil, err
	}
	log.Printf("user %d requested redemption %d for %d points", userID, redemption.ID, redemption.Points)
	return redemption, nil
}

func (s *redemptionService) checkRequest(user *models.User, points int) error {
	if points <= 0 {
		return apiError.ErrInvalidPoints.WithMessage("redemption points must be positive")
	}
	if points < s.Config.MinRedemptionPoints {
		return apiError.ErrInvalidPoints.WithMessage("minimum %d points required to redeem, got %d", s.Config.MinRedemptionPoints, points)
	}
	if points > user.Points {
		return apiError.ErrInsufficientBalance.WithMessage("requested %d points but balance is %d", points, user.Points)
	}
	return nil
}

func (s *redemptionService) ApproveRedemption(ctx context.Context, redemptionID, adminID uint) (*models.Redemption, error) {
	redemption, balance, err := s.redemptionRepo.Approve(ctx, redemptionID, adminID, s.now())
	if err != nil {
		return nil, err
	}
	log.Printf("admin %d approved redemption %d, user %d balance now %d", adminID, redemptionID, redemption.UserID, balance)
	return redemption, nil
}

func (s *redemptionService) RejectRedemption(ctx context.Context, redemptionID, adminID uint) (*models.Redemption, error) {
	redemption, err := s.redemptionRepo.Reject(ctx, redemptionID, adminID, s.now())
	if err != nil {
		return nil, err
	}
	log.Printf("admin %d rejected redemption %d", adminID, redemptionID)
	return redemption, nil
}

func (s *redemptionService) GetUserRedemptions(ctx context.Context, userID uint) ([]models.Redemption, error) {
	return s.redemptionRepo.ListByUser(ctx, userID)
}

func (s *redemptionService) GetAllRedemptions(ctx context.Context, status models.RedemptionStatus) ([]models.Redemption, error) {
	if status != "" && !status.Valid() {
		return nil, apiError.ErrBadRequest.WithMessage("unknown status %q", status)
	}
	return s.redemptionRepo.ListAll(ctx, status)
}

func (s *redemptionService) GetRedemptionStats(ctx context.Context, userID *uint) (*models.RedemptionStats, error) {
	return s.redemptionRepo.Stats(ctx, userID)
}
