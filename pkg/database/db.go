package database

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/arnavshah/position-helper-go/pkg/config"
)

// MemberRecord represents the members table
type MemberRecord struct {
	Name       string    `gorm:"primaryKey" json:"name"`
	Active     bool      `gorm:"not null" json:"active"`
	Notes      string    `json:"notes"`
	Generation *int      `json:"generation"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (MemberRecord) TableName() string { return "members" }

// WeekRecord represents the weeks table. Data holds the WeekData JSON payload.
type WeekRecord struct {
	WeekDate  string         `gorm:"primaryKey;column:week_date" json:"week_date"`
	Data      datatypes.JSON `gorm:"not null" json:"data"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (WeekRecord) TableName() string { return "weeks" }

// ActivityRecord represents the activities table
type ActivityRecord struct {
	ID          string         `gorm:"primaryKey" json:"id"`
	Timestamp   time.Time      `gorm:"index;not null" json:"timestamp"`
	Type        string         `gorm:"not null" json:"type"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `json:"description"`
	Meta        datatypes.JSON `json:"meta"`
}

func (ActivityRecord) TableName() string { return "activities" }

// AdminCredential represents the admin_credentials table holding the shared password hash
type AdminCredential struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// InitDB opens Postgres when a URL is configured, otherwise a sqlite file, and migrates the schema
func InitDB(cfg config.DatabaseConfig, level gormlogger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	gcfg := &gorm.Config{Logger: gormlogger.Default.LogMode(level)}

	if cfg.URL != "" {
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.URL,
			PreferSimpleProtocol: true,
		})
		gcfg.PrepareStmt = false
	} else {
		path := cfg.DataPath
		if path == "" {
			path = "position_helper.db"
		}
		dialector = sqlite.Open(path)
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&MemberRecord{}, &WeekRecord{}, &ActivityRecord{}, &AdminCredential{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
