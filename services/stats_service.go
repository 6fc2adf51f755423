package services

import (
	"context"

	"github.com/kphotone-reward/backend/db"
	"github.com/kphotone-reward/backend/models"
)

type StatsService interface {
	GetAdminStats(ctx context.Context) (*models.AdminStats, error)
	GetLedger(ctx context.Context, userID uint) ([]models.PointTransaction, error)
}

type statsService struct {
	authRepo       db.AuthRepository
	surveyRepo     db.SurveyRepository
	assignmentRepo db.AssignmentRepository
	ledgerRepo     db.LedgerRepository
}

func NewStatsService(authRepo db.AuthRepository, surveyRepo db.SurveyRepository, assignmentRepo db.AssignmentRepository, ledgerRepo db.LedgerRepository) StatsService {
	return &statsService{
		authRepo:       authRepo,
		surveyRepo:     surveyRepo,
		assignmentRepo: assignmentRepo,
		ledgerRepo:     ledgerRepo,
	}
}

func (s *statsService) GetAdminStats(ctx context.Context) (*models.AdminStats, error) {
	var (
		stats models.AdminStats
		err   error
	)
	if stats.TotalUsers, err = s.authRepo.CountUsers(ctx, false); err != nil {
		return nil, err
	}
	if stats.ActiveUsers, err = s.authRepo.CountUsers(ctx, true); err != nil {
		return nil, err
	}
	if stats.TotalSurveys, err = s.surveyRepo.CountSurveys(ctx); err != nil {
		return nil, err
	}
	if stats.TotalAssignments, err = s.assignmentRepo.CountAssignments(ctx); err != nil {
		return nil, err
	}
	if stats.TotalPointsDistributed, err = s.ledgerRepo.SumCredited(ctx, models.ReasonSurveyReward); err != nil {
		return nil, err
	}
	if stats.TotalPointsOutstanding, err = s.ledgerRepo.SumAllBalances(ctx); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *statsService) GetLedger(ctx context.Context, userID uint) ([]models.PointTransaction, error) {
	return s.ledgerRepo.ListTransactions(ctx, userID)
}
