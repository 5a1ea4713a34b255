package database

import (
	"fmt"
	"time"

	"tutor-billing/internal/domain/billing"
	"tutor-billing/internal/domain/messaging"
	"tutor-billing/internal/domain/sessions"
	"tutor-billing/internal/domain/students"
	"tutor-billing/internal/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to postgres. When migrate is set the billing tables are
// auto-migrated; production schemas are managed outside this service.
func Open(dsn string, migrate bool, log *zap.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DB_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.NewGorm(log.Named("gorm"), gormlogger.Warn, 500*time.Millisecond),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if !migrate {
		log.Info("connected to database")
		return db, nil
	}

	// gen_random_uuid()
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		return nil, fmt.Errorf("failed to enable pgcrypto extension: %w", err)
	}

	if err := db.AutoMigrate(
		// people
		&students.Student{},
		&students.ParentStudent{},

		// scheduling
		&sessions.Subject{},
		&sessions.Session{},
		&sessions.Attendance{},

		// billing
		&billing.Profile{},
		&billing.Subsidy{},
		&billing.Setting{},
		&billing.Payment{},

		// messaging
		&messaging.Contact{},
		&messaging.OwnedNumber{},
		&messaging.Conversation{},
		&messaging.Message{},
	); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	log.Info("connected and migrated")
	return db, nil
}
