package store

import (
	"testing"

	"tutor-billing/internal/logger"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// schema mirrors the postgres tables with sqlite column types. Ids are
// always assigned by the caller, so there are no uuid defaults.
var schema = []string{
	`CREATE TABLE students (
		id TEXT PRIMARY KEY, first_name TEXT, last_name TEXT, email TEXT,
		created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE parents_students (
		id TEXT PRIMARY KEY, student_id TEXT, parent_name TEXT, parent_email TEXT,
		parent_phone TEXT, is_primary BOOLEAN NOT NULL DEFAULT 0, created_at DATETIME)`,
	`CREATE TABLE subjects (
		id TEXT PRIMARY KEY, name TEXT, session_fee_cents INTEGER, billing_type TEXT,
		created_at DATETIME)`,
	`CREATE TABLE sessions (
		id TEXT PRIMARY KEY, subject_id TEXT, starts_at DATETIME, ends_at DATETIME,
		created_at DATETIME)`,
	`CREATE TABLE sessions_students (
		id TEXT PRIMARY KEY, session_id TEXT, student_id TEXT,
		planned_absence BOOLEAN NOT NULL DEFAULT 0, created_at DATETIME)`,
	`CREATE TABLE students_billing (
		id TEXT PRIMARY KEY, student_id TEXT UNIQUE, stripe_customer_id TEXT UNIQUE,
		default_payment_method_id TEXT, card_brand TEXT, card_last4 TEXT, card_country TEXT,
		verified_at DATETIME, created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE student_subsidies (
		id TEXT PRIMARY KEY, student_id TEXT, subject_id TEXT, billing_type TEXT,
		price_cents INTEGER, effective_from DATETIME, effective_until DATETIME,
		created_at DATETIME)`,
	`CREATE TABLE billing_settings ("key" TEXT PRIMARY KEY, value TEXT)`,
	`CREATE TABLE payments (
		id TEXT PRIMARY KEY, sessions_students_id TEXT, student_id TEXT, session_id TEXT,
		amount_cents INTEGER, currency TEXT, status TEXT,
		stripe_payment_intent_id TEXT, stripe_charge_id TEXT,
		retry_count INTEGER NOT NULL DEFAULT 0, last_retry_at DATETIME, failure_message TEXT,
		fee_cents INTEGER, net_cents INTEGER, receipt_url TEXT, charged_at DATETIME,
		created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE contacts (
		id TEXT PRIMARY KEY, student_id TEXT, phone_number TEXT UNIQUE, name TEXT,
		created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE owned_numbers (
		id TEXT PRIMARY KEY, phone_number TEXT UNIQUE, messaging_service_sid TEXT, label TEXT,
		created_at DATETIME)`,
	`CREATE TABLE conversations (
		id TEXT PRIMARY KEY, contact_id TEXT, owned_number_id TEXT, status TEXT,
		last_message_at DATETIME, created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE messages (
		id TEXT PRIMARY KEY, conversation_id TEXT, direction TEXT, body TEXT, status TEXT,
		provider_message_id TEXT, error_code TEXT, error_message TEXT,
		sent_at DATETIME, delivered_at DATETIME, created_at DATETIME, updated_at DATETIME)`,
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.NewGorm(zaptest.NewLogger(t), gormlogger.Warn, 0),
	})
	require.NoError(t, err)

	// every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, ddl := range schema {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

// seed inserts rows as given, without cascading into associations.
func seed(t *testing.T, db *gorm.DB, rows ...interface{}) {
	t.Helper()
	for _, row := range rows {
		require.NoError(t, db.Omit(clause.Associations).Create(row).Error)
	}
}
