package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kphotone-reward/backend/config"
	"github.com/kphotone-reward/backend/db"
	"github.com/kphotone-reward/backend/services"
	"github.com/redis/go-redis/v9"
)

// Server holds the dependencies of the HTTP API.
type Server struct {
	Config            *config.Config
	DB                *db.GormDB
	AuthRepository    db.AuthRepository
	AuthService       services.AuthService
	SurveyService     services.SurveyService
	RewardService     services.RewardService
	RedemptionService services.RedemptionService
	StatsService      services.StatsService
	// Redis backs the rate limiters when set; otherwise they count in memory.
	Redis *redis.Client
}

func (s *Server) Start() {
	r := s.setupRouter()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.Config.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("Server started on %s\n", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			log.Printf("closing database: %v", err)
		}
	}
	log.Println("Server exiting")
}
