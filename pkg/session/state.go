// Package session holds the application state shared by request handlers and
// notifies listeners after every change.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arnavshah/position-helper-go/pkg/models"
)

// EventType names a state change
type EventType string

const (
	EventLoaded        EventType = "loaded"
	EventAssigned      EventType = "assigned"
	EventWeekSaved     EventType = "week_saved"
	EventFinalized     EventType = "finalized"
	EventMemberSaved   EventType = "member_saved"
	EventMemberDeleted EventType = "member_deleted"
	EventReplaced      EventType = "replaced"
)

// Event describes a change after it was persisted
type Event struct {
	Type   EventType              `json:"type"`
	Date   string                 `json:"date,omitempty"`
	Slot   *models.SlotDescriptor `json:"slot,omitempty"`
	Member string                 `json:"member,omitempty"`
	Week   *models.WeekData       `json:"week,omitempty"`
	At     time.Time              `json:"at"`
}

// Store is the persistence the state writes through to
type Store interface {
	LoadAppData(ctx context.Context) (*models.AppData, error)
	SaveWeek(ctx context.Context, date string, week models.WeekData) error
	SaveMember(ctx context.Context, m models.Member) error
	RenameMember(ctx context.Context, from string, m models.Member) error
	DeleteMember(ctx context.Context, name string) error
	ReplaceAll(ctx context.Context, data *models.AppData) error
}

// State guards the current AppData snapshot
type State struct {
	mu    sync.RWMutex
	store Store
	data  *models.AppData

	lmu       sync.Mutex
	nextID    int
	listeners map[int]func(Event)

	now func() time.Time
}

// New creates an empty state backed by store
func New(store Store) *State {
	return &State{
		store:     store,
		data:      &models.AppData{Weeks: map[string]models.WeekData{}},
		listeners: make(map[int]func(Event)),
		now:       time.Now,
	}
}

// Subscribe registers fn for every future event and returns a func that removes it
func (s *State) Subscribe(fn func(Event)) func() {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *State) emit(ev Event) {
	ev.At = s.now()
	s.lmu.Lock()
	// subscription order
	fns := make([]func(Event), 0, len(s.listeners))
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.lmu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Refresh reloads the snapshot from the store
func (s *State) Refresh(ctx context.Context) error {
	data, err := s.store.LoadAppData(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()

	s.emit(Event{Type: EventLoaded})
	return nil
}

// Snapshot returns a deep copy callers may use freely
func (s *State) Snapshot() *models.AppData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

// Assign writes value into one slot of the week stored under date and persists the week.
// An empty value clears the slot; the blank marker leaves it intentionally empty.
func (s *State) Assign(ctx context.Context, date string, slot models.SlotDescriptor, value string) (models.WeekData, error) {
	if err := models.ValidateWeekDate(date); err != nil {
		return models.WeekData{}, err
	}
	if err := slot.Validate(); err != nil {
		return models.WeekData{}, err
	}
	value = models.NormalizeName(value)

	s.mu.Lock()
	week := s.data.Weeks[date]
	if models.IsMemberValue(value) {
		if !s.data.MemberNames()[value] {
			s.mu.Unlock()
			return models.WeekData{}, fmt.Errorf("%w: %q is not on the roster", models.ErrInvalidMember, value)
		}
		if slot.Role.IsDual() && models.NormalizeName(week.Part(slot.Part).Side[1-slot.SubIndex()]) == value {
			s.mu.Unlock()
			return models.WeekData{}, fmt.Errorf("%w: %q already holds the other side slot", models.ErrInvalidMember, value)
		}
	}
	week.Absences = append([]models.Absence(nil), week.Absences...)
	week.Part(slot.Part).Set(slot.Role, slot.SubIndex(), value)

	if err := s.store.SaveWeek(ctx, date, week); err != nil {
		s.mu.Unlock()
		return models.WeekData{}, err
	}
	s.setWeek(date, week)
	s.mu.Unlock()

	sl := slot
	s.emit(Event{Type: EventAssigned, Date: date, Slot: &sl, Member: value, Week: &week})
	return week, nil
}

func (s *State) setWeek(date string, week models.WeekData) {
	if s.data.Weeks == nil {
		s.data.Weeks = map[string]models.WeekData{}
	}
	s.data.Weeks[date] = week
}

// SaveWeek persists a whole week
func (s *State) SaveWeek(ctx context.Context, date string, week models.WeekData) error {
	return s.saveWeek(ctx, date, week, EventWeekSaved)
}

// Finalize persists the week as the confirmed schedule of date
func (s *State) Finalize(ctx context.Context, date string, week models.WeekData) error {
	return s.saveWeek(ctx, date, week, EventFinalized)
}

func (s *State) saveWeek(ctx context.Context, date string, week models.WeekData, typ EventType) error {
	if err := models.ValidateWeekDate(date); err != nil {
		return err
	}
	s.mu.Lock()
	if err := s.store.SaveWeek(ctx, date, week); err != nil {
		s.mu.Unlock()
		return err
	}
	s.setWeek(date, week)
	s.mu.Unlock()

	s.emit(Event{Type: typ, Date: date, Week: &week})
	return nil
}

// SaveMember adds or updates a roster entry. A stored legacy "20 Name" entry for
// the same member is renamed in place, along with its week references.
func (s *State) SaveMember(ctx context.Context, m models.Member) (models.Member, error) {
	m, err := models.NormalizeMember(m)
	if err != nil {
		return m, err
	}

	s.mu.Lock()
	legacy := s.legacyEntry(m.Name)
	if legacy >= 0 {
		from := models.NormalizeName(s.data.Members[legacy].Name)
		if m.Generation == nil {
			_, m.Generation = models.ParseLegacyName(from)
		}
		if err := s.store.RenameMember(ctx, from, m); err != nil {
			s.mu.Unlock()
			return m, err
		}
		s.data.Members = append(s.data.Members[:legacy:legacy], s.data.Members[legacy+1:]...)
		for date, week := range s.data.Weeks {
			week.Absences = append([]models.Absence(nil), week.Absences...)
			if week.RenameMember(from, m.Name) {
				s.data.Weeks[date] = week
			}
		}
	} else if err := s.store.SaveMember(ctx, m); err != nil {
		s.mu.Unlock()
		return m, err
	}

	replaced := false
	for i, cur := range s.data.Members {
		if models.NormalizeName(cur.Name) == m.Name {
			s.data.Members[i] = m
			replaced = true
		}
	}
	if !replaced {
		s.data.Members = append(s.data.Members, m)
	}
	s.mu.Unlock()

	s.emit(Event{Type: EventMemberSaved, Member: m.Name})
	return m, nil
}

// legacyEntry returns the index of a roster entry stored as "<gen> name", or -1
func (s *State) legacyEntry(name string) int {
	for i, cur := range s.data.Members {
		raw := models.NormalizeName(cur.Name)
		if raw == name {
			continue
		}
		if lifted, gen := models.ParseLegacyName(raw); gen != nil && lifted == name {
			return i
		}
	}
	return -1
}

// DeleteMember removes a roster entry. Weeks keep the name.
func (s *State) DeleteMember(ctx context.Context, name string) error {
	name = models.NormalizeName(name)

	s.mu.Lock()
	if err := s.store.DeleteMember(ctx, name); err != nil {
		s.mu.Unlock()
		return err
	}
	kept := s.data.Members[:0]
	for _, m := range s.data.Members {
		if models.NormalizeName(m.Name) != name {
			kept = append(kept, m)
		}
	}
	s.data.Members = kept
	s.mu.Unlock()

	s.emit(Event{Type: EventMemberDeleted, Member: name})
	return nil
}

// Replace swaps the whole dataset, used by imports and the health fix
func (s *State) Replace(ctx context.Context, data *models.AppData) error {
	cp := data.Clone()
	s.mu.Lock()
	if err := s.store.ReplaceAll(ctx, cp); err != nil {
		s.mu.Unlock()
		return err
	}
	s.data = cp
	s.mu.Unlock()

	s.emit(Event{Type: EventReplaced})
	return nil
}
