package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arnavshah/position-helper-go/pkg/models"
)

// ErrNotFound is returned when a keyed record does not exist
var ErrNotFound = errors.New("record not found")

// Activity is an entry of the change feed
type Activity struct {
	ID          string                 `json:"id"`
	Timestamp   time.Time              `json:"timestamp"`
	Type        string                 `json:"type"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	Meta        map[string]interface{} `json:"meta,omitempty"`
}

// Store persists AppData through gorm and keeps the optional snapshot cache coherent
type Store struct {
	DB    *gorm.DB
	Cache *SnapshotCache
	Log   *zap.Logger
}

// NewStore wires a store. cache may be nil.
func NewStore(db *gorm.DB, cache *SnapshotCache, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{DB: db, Cache: cache, Log: log}
}

// LoadAppData returns the full snapshot, from the cache when possible
func (s *Store) LoadAppData(ctx context.Context) (*models.AppData, error) {
	if data, ok := s.Cache.Get(ctx); ok {
		return data, nil
	}

	var members []MemberRecord
	if err := s.DB.WithContext(ctx).Order("name").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	var weeks []WeekRecord
	if err := s.DB.WithContext(ctx).Order("week_date").Find(&weeks).Error; err != nil {
		return nil, fmt.Errorf("load weeks: %w", err)
	}

	data := &models.AppData{
		Members: make([]models.Member, 0, len(members)),
		Weeks:   make(map[string]models.WeekData, len(weeks)),
	}
	for _, m := range members {
		data.Members = append(data.Members, models.Member{
			Name:       m.Name,
			Active:     m.Active,
			Notes:      m.Notes,
			Generation: m.Generation,
		})
	}
	for _, w := range weeks {
		var week models.WeekData
		if err := json.Unmarshal(w.Data, &week); err != nil {
			return nil, fmt.Errorf("decode week %s: %w", w.WeekDate, err)
		}
		data.Weeks[w.WeekDate] = week
	}

	s.Cache.Set(ctx, data)
	return data, nil
}

func weekRecord(date string, week models.WeekData) (WeekRecord, error) {
	if week.Absences == nil {
		week.Absences = []models.Absence{}
	}
	raw, err := json.Marshal(week)
	if err != nil {
		return WeekRecord{}, fmt.Errorf("encode week %s: %w", date, err)
	}
	return WeekRecord{WeekDate: date, Data: datatypes.JSON(raw)}, nil
}

func memberRecord(m models.Member) MemberRecord {
	return MemberRecord{
		Name:       models.NormalizeName(m.Name),
		Active:     m.Active,
		Notes:      m.Notes,
		Generation: m.Generation,
	}
}

var (
	upsertWeek = clause.OnConflict{
		Columns:   []clause.Column{{Name: "week_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}
	upsertMember = clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"active", "notes", "generation", "updated_at"}),
	}
)

// SaveWeek upserts the week stored under date
func (s *Store) SaveWeek(ctx context.Context, date string, week models.WeekData) error {
	if err := models.ValidateWeekDate(date); err != nil {
		return err
	}
	rec, err := weekRecord(date, week)
	if err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Clauses(upsertWeek).Create(&rec).Error; err != nil {
		return fmt.Errorf("save week %s: %w", date, err)
	}
	s.Cache.Invalidate(ctx)
	return nil
}

// SaveMember upserts a roster entry keyed by its trimmed name
func (s *Store) SaveMember(ctx context.Context, m models.Member) error {
	rec := memberRecord(m)
	if rec.Name == "" {
		return fmt.Errorf("%w: name is empty", models.ErrInvalidMember)
	}
	if err := s.DB.WithContext(ctx).Clauses(upsertMember).Create(&rec).Error; err != nil {
		return fmt.Errorf("save member %s: %w", rec.Name, err)
	}
	s.Cache.Invalidate(ctx)
	return nil
}

// RenameMember replaces the roster entry stored under from with m and rewrites
// every week that references from, in one transaction.
func (s *Store) RenameMember(ctx context.Context, from string, m models.Member) error {
	from = models.NormalizeName(from)
	rec := memberRecord(m)
	if rec.Name == "" {
		return fmt.Errorf("%w: name is empty", models.ErrInvalidMember)
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("name = ?", from).Delete(&MemberRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Clauses(upsertMember).Create(&rec).Error; err != nil {
			return err
		}

		var weeks []WeekRecord
		if err := tx.Find(&weeks).Error; err != nil {
			return err
		}
		for _, w := range weeks {
			var week models.WeekData
			if err := json.Unmarshal(w.Data, &week); err != nil {
				return fmt.Errorf("decode week %s: %w", w.WeekDate, err)
			}
			if !week.RenameMember(from, rec.Name) {
				continue
			}
			next, err := weekRecord(w.WeekDate, week)
			if err != nil {
				return err
			}
			if err := tx.Clauses(upsertWeek).Create(&next).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("rename member %s: %w", from, err)
	}
	s.Cache.Invalidate(ctx)
	return nil
}

// DeleteMember removes a roster entry. Past weeks keep the name; the health scan reports them.
func (s *Store) DeleteMember(ctx context.Context, name string) error {
	res := s.DB.WithContext(ctx).Where("name = ?", models.NormalizeName(name)).Delete(&MemberRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete member %s: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.Cache.Invalidate(ctx)
	return nil
}

// BatchImport upserts every member and week of data in one transaction
func (s *Store) BatchImport(ctx context.Context, data *models.AppData) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertAll(tx, data, true)
	})
	if err != nil {
		return fmt.Errorf("batch import: %w", err)
	}
	s.Cache.Invalidate(ctx)
	return nil
}

// ReplaceAll swaps the stored roster and weeks for data in one transaction
func (s *Store) ReplaceAll(ctx context.Context, data *models.AppData) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&WeekRecord{}).Error; err != nil {
			return err
		}
		if err := all.Delete(&MemberRecord{}).Error; err != nil {
			return err
		}
		return insertAll(tx, data, false)
	})
	if err != nil {
		return fmt.Errorf("replace data: %w", err)
	}
	s.Cache.Invalidate(ctx)
	return nil
}

func insertAll(tx *gorm.DB, data *models.AppData, upsert bool) error {
	members := make([]MemberRecord, 0, len(data.Members))
	for _, m := range data.Members {
		rec := memberRecord(m)
		if rec.Name == "" {
			continue
		}
		members = append(members, rec)
	}
	weeks := make([]WeekRecord, 0, len(data.Weeks))
	for _, date := range data.SortedWeekDates() {
		rec, err := weekRecord(date, data.Weeks[date])
		if err != nil {
			return err
		}
		weeks = append(weeks, rec)
	}

	mq, wq := tx, tx
	if upsert {
		mq, wq = tx.Clauses(upsertMember), tx.Clauses(upsertWeek)
	}
	if len(members) > 0 {
		if err := mq.CreateInBatches(&members, 100).Error; err != nil {
			return err
		}
	}
	if len(weeks) > 0 {
		if err := wq.CreateInBatches(&weeks, 100).Error; err != nil {
			return err
		}
	}
	return nil
}

// RecordActivity appends an entry to the change feed, filling ID and Timestamp when empty
func (s *Store) RecordActivity(ctx context.Context, a Activity) (Activity, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	rec := ActivityRecord{
		ID:          a.ID,
		Timestamp:   a.Timestamp,
		Type:        a.Type,
		Title:       a.Title,
		Description: a.Description,
	}
	if a.Meta != nil {
		raw, err := json.Marshal(a.Meta)
		if err != nil {
			return a, fmt.Errorf("encode activity meta: %w", err)
		}
		rec.Meta = datatypes.JSON(raw)
	}
	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return a, fmt.Errorf("record activity: %w", err)
	}
	return a, nil
}

// ListActivities returns the newest entries first
func (s *Store) ListActivities(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var recs []ActivityRecord
	if err := s.DB.WithContext(ctx).Order("timestamp desc").Limit(limit).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	out := make([]Activity, 0, len(recs))
	for _, r := range recs {
		a := Activity{
			ID:          r.ID,
			Timestamp:   r.Timestamp,
			Type:        r.Type,
			Title:       r.Title,
			Description: r.Description,
		}
		if len(r.Meta) > 0 {
			if err := json.Unmarshal(r.Meta, &a.Meta); err != nil {
				s.Log.Warn("skipping unreadable activity meta", zap.String("id", r.ID), zap.Error(err))
			}
		}
		out = append(out, a)
	}
	return out, nil
}

// Ping checks connectivity and reports the round trip
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return 0, err
	}
	start := time.Now()
	if err := sqlDB.PingContext(ctx); err != nil {
		return 0, fmt.Errorf("ping database: %w", err)
	}
	return time.Since(start), nil
}
