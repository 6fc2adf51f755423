package db

import (
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"github.com/kphotone-reward/backend/config"
	"github.com/kphotone-reward/backend/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormDB struct {
	DB *gorm.DB
}

func GetDB(c *config.Config) *GormDB {
	gormDB, err := Open(c)
	if err != nil {
		log.Fatalf("unable to open database: %v", err)
	}
	return gormDB
}

// Open connects to the configured driver and runs migrations.
func Open(c *config.Config) (*GormDB, error) {
	gormConfig := &gorm.Config{TranslateError: true}
	switch c.Env {
	case "prod":
	case "test":
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	default:
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	var dialector gorm.Dialector
	switch c.DBDriver {
	case config.DriverSQLite:
		log.Printf("Connecting to sqlite: %s", c.SQLitePath)
		dialector = sqlite.Open(c.SQLitePath)
	default:
		log.Printf("Connecting to postgres: %s:%d/%s", c.PostgresHost, c.PostgresPort, c.PostgresDB)
		dialector = postgres.New(postgres.Config{DSN: c.PostgresDSN()})
	}

	gormDB, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.DBDriver, err)
	}

	if c.DBDriver == config.DriverSQLite {
		// sqlite has a single writer
		sqlDB, err := gormDB.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	g := &GormDB{DB: gormDB}
	if err := migrate(g.DB); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *GormDB) Close() error {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Survey{},
		&models.Assignment{},
		&models.Redemption{},
		&models.RedemptionItem{},
		&models.PointTransaction{},
	)
	if err != nil {
		return fmt.Errorf("migrations error: %v", err)
	}

	// At most one pending redemption per user, enforced by the database.
	err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_redemptions_one_pending_per_user
		ON redemptions (user_id) WHERE status = 'pending'`).Error
	if err != nil {
		return fmt.Errorf("pending redemption index: %v", err)
	}

	return nil
}

// SeedAdmin makes sure the configured admin account exists.
func SeedAdmin(db *gorm.DB, c *config.Config) error {
	if c.AdminEmail == "" || c.AdminPassword == "" {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(c.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.User{
		Name:           "Administrator",
		Email:          c.AdminEmail,
		Phone:          "-",
		Country:        "-",
		HashedPassword: string(hashed),
		Role:           models.RoleAdmin,
		IsActive:       true,
	}
	return db.Where(models.User{Email: c.AdminEmail}).
		Attrs(admin).
		FirstOrCreate(&admin).Error
}
