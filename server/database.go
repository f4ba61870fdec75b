package main

import (
	"fmt"

	"github.com/ifo/sanic"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"moul.io/zapgorm2"
	"github.com/playothello/othello-api"
)

var idWorker = sanic.NewWorker7()

// newID returns a new short unique identifier. Used for user IDs and token
// JTIs.
func newID() string {
	return idWorker.IDString(idWorker.NextID())
}

// openDB connects to the configured database, wires SQL logging through zap
// and runs the schema migration. Postgres when DATABASE_URL is a postgres
// URL, a sqlite file otherwise.
func openDB(cfg *Config, zapLogger *zap.Logger) (*gorm.DB, error) {
	gl := zapgorm2.New(zapLogger)
	gl.IgnoreRecordNotFoundError = true
	gl.LogLevel = gormlogger.Warn

	config := &gorm.Config{
		Logger: gl,
		// Duplicate-key errors come back as gorm.ErrDuplicatedKey on every
		// driver, which the stores map to conflicts.
		TranslateError: true,
	}

	var dial gorm.Dialector
	if cfg.usePostgres() {
		dial = postgres.Open(cfg.DatabaseURL)
	} else {
		dial = sqlite.Open(cfg.DatabaseURL)
	}

	db, err := gorm.Open(dial, config)
	if err != nil {
		return nil, err
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to run auto-migration: %v", err)
	}

	return db, nil
}

// seedAdmin creates the bootstrap Admin account if ADMIN_EMAIL/ADMIN_PASSWORD
// are configured and no account with that email exists yet.
func seedAdmin(db *gorm.DB, cfg *Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	var existing User
	err := db.Where("email = ?", cfg.AdminEmail).First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := User{
		ID:           newID(),
		UserName:     cfg.AdminEmail,
		Email:        cfg.AdminEmail,
		PasswordHash: string(hash),
		Role:         othello.RoleAdmin,
	}

	return db.Create(&admin).Error
}
