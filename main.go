package main

import (
	"context"
	"log"
	"time"

	"github.com/kphotone-reward/backend/config"
	"github.com/kphotone-reward/backend/db"
	"github.com/kphotone-reward/backend/server"
	"github.com/kphotone-reward/backend/services"
	"github.com/redis/go-redis/v9"
)

// connectRedis returns nil when redis is not configured or unreachable, in
// which case rate limits are counted in memory.
func connectRedis(conf *config.Config) *redis.Client {
	if conf.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     conf.RedisAddr,
		Password: conf.RedisPassword,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis ping failed, falling back to in-memory rate limits: %v", err)
		client.Close()
		return nil
	}
	log.Println("redis connected")
	return client
}

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	gormDB := db.GetDB(conf)
	if err := db.SeedAdmin(gormDB.DB, conf); err != nil {
		log.Fatalf("error seeding admin: %v", err)
	}

	authRepo := db.NewAuthRepo(gormDB)
	surveyRepo := db.NewSurveyRepo(gormDB)
	assignmentRepo := db.NewAssignmentRepo(gormDB)
	ledgerRepo := db.NewLedgerRepo(gormDB)
	redemptionRepo := db.NewRedemptionRepo(gormDB)

	redisClient := connectRedis(conf)
	if redisClient != nil {
		defer redisClient.Close()
	}

	s := &server.Server{
		Config:            conf,
		DB:                gormDB,
		AuthRepository:    authRepo,
		AuthService:       services.NewAuthService(authRepo, ledgerRepo, conf),
		SurveyService:     services.NewSurveyService(surveyRepo, conf),
		RewardService:     services.NewRewardService(authRepo, surveyRepo, assignmentRepo, conf),
		RedemptionService: services.NewRedemptionService(redemptionRepo, conf),
		StatsService:      services.NewStatsService(authRepo, surveyRepo, assignmentRepo, ledgerRepo),
		Redis:             redisClient,
	}
	s.Start()
}
