package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SecondaryStore mirrors audit records into a queryable backing store.
// Writes are strictly best-effort: the Logger swallows every error from
// this interface, so implementations must never be treated as the source
// of truth.
type SecondaryStore interface {
	Insert(ctx context.Context, rec *Record) error
	Ping(ctx context.Context) error
}

// EventRow is the relational model mirroring Record one-to-one, with the
// structured snapshots flattened into JSON text columns.
type EventRow struct {
	ID             string    `gorm:"type:varchar(36);primary_key" json:"id"`
	EventTimestamp time.Time `gorm:"not null;index" json:"event_timestamp"`
	EventType      string    `gorm:"type:varchar(100);not null;index" json:"event_type"`
	EntityType     string    `gorm:"type:varchar(100);index" json:"entity_type"`
	EntityID       string    `gorm:"type:varchar(255);index" json:"entity_id"`
	User           string    `gorm:"type:varchar(100)" json:"user"`
	Action         string    `gorm:"type:text;not null" json:"action"`
	BeforeState    string    `gorm:"type:text" json:"before_state"`
	AfterState     string    `gorm:"type:text" json:"after_state"`
	Metadata       string    `gorm:"type:text" json:"metadata"`
	Severity       string    `gorm:"type:varchar(20);not null;index" json:"severity"`
	Checksum       string    `gorm:"type:varchar(64);not null" json:"checksum"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM
func (EventRow) TableName() string {
	return "audit_events"
}

// GormStore is a SecondaryStore backed by a gorm-managed database
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an existing gorm handle and ensures the
// audit_events table exists.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&EventRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate audit_events table: %w", err)
	}
	return &GormStore{db: db}, nil
}

// OpenSQLite opens a SQLite-backed secondary store at the given path
func OpenSQLite(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open secondary audit store: %w", err)
	}
	return NewGormStore(db)
}

// Insert mirrors one record into the audit_events table
func (s *GormStore) Insert(ctx context.Context, rec *Record) error {
	row := &EventRow{
		ID:             rec.ID,
		EventTimestamp: rec.EventTimestamp,
		EventType:      string(rec.EventType),
		EntityType:     rec.EntityType,
		EntityID:       rec.EntityID,
		User:           rec.User,
		Action:         rec.Action,
		BeforeState:    marshalStateColumn(rec.BeforeState),
		AfterState:     marshalStateColumn(rec.AfterState),
		Metadata:       marshalStateColumn(rec.Metadata),
		Severity:       string(rec.Severity),
		Checksum:       rec.Checksum,
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

// Ping verifies database connectivity
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func marshalStateColumn(state map[string]interface{}) string {
	if state == nil {
		return ""
	}
	data, err := json.Marshal(state)
	if err != nil {
		return ""
	}
	return string(data)
}
