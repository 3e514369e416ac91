package models

import "fmt"

// SlotDescriptor addresses a single assignment cell.
// Index is set iff Role is the side role and must be 0 or 1.
type SlotDescriptor struct {
	Part  Part `json:"part"`
	Role  Role `json:"role"`
	Index *int `json:"index,omitempty"`
}

// NewSlot addresses a single-slot role
func NewSlot(part Part, role Role) SlotDescriptor {
	return SlotDescriptor{Part: part, Role: role}
}

// NewSideSlot addresses one of the two side slots
func NewSideSlot(part Part, index int) SlotDescriptor {
	i := index
	return SlotDescriptor{Part: part, Role: RoleSide, Index: &i}
}

// Validate rejects unknown parts/roles and a missing or out-of-range side index
func (s SlotDescriptor) Validate() error {
	if _, err := ParsePart(string(s.Part)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSlot, err)
	}
	if _, err := ParseRole(string(s.Role)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSlot, err)
	}
	if s.Role.IsDual() {
		if s.Index == nil {
			return fmt.Errorf("%w: side slot requires an index", ErrInvalidSlot)
		}
		if *s.Index != 0 && *s.Index != 1 {
			return fmt.Errorf("%w: side index %d out of range", ErrInvalidSlot, *s.Index)
		}
	} else if s.Index != nil {
		return fmt.Errorf("%w: role %s takes no index", ErrInvalidSlot, s.Role)
	}
	return nil
}

// SubIndex returns the side index, 0 for single-slot roles
func (s SlotDescriptor) SubIndex() int {
	if s.Index == nil {
		return 0
	}
	return *s.Index
}

// Equal compares two descriptors
func (s SlotDescriptor) Equal(o SlotDescriptor) bool {
	return s.Part == o.Part && s.Role == o.Role && (!s.Role.IsDual() || s.SubIndex() == o.SubIndex())
}

// Key is a compact identifier such as "part1-사이드-1"
func (s SlotDescriptor) Key() string {
	if s.Role.IsDual() {
		return fmt.Sprintf("%s-%s-%d", s.Part, s.Role, s.SubIndex())
	}
	return fmt.Sprintf("%s-%s", s.Part, s.Role)
}

// Label is the display label of the slot
func (s SlotDescriptor) Label() string {
	base := fmt.Sprintf("%s %s", s.Part.Label(), s.Role)
	if s.Role.IsDual() {
		return fmt.Sprintf("%s(%d)", base, s.SubIndex()+1)
	}
	return base
}

// ListSlots returns all twelve slots of a week in canonical order
func ListSlots() []SlotDescriptor {
	var slots []SlotDescriptor
	for _, p := range Parts {
		for _, r := range Roles {
			if r.IsDual() {
				slots = append(slots, NewSideSlot(p, 0), NewSideSlot(p, 1))
			} else {
				slots = append(slots, NewSlot(p, r))
			}
		}
	}
	return slots
}

// Get reads the addressed cell
func (d Draft) Get(slot SlotDescriptor) (string, error) {
	if err := slot.Validate(); err != nil {
		return "", err
	}
	return d.Part(slot.Part).Get(slot.Role, slot.SubIndex()), nil
}

// Set writes the addressed cell
func (d *Draft) Set(slot SlotDescriptor, value string) error {
	if err := slot.Validate(); err != nil {
		return err
	}
	d.Part(slot.Part).Set(slot.Role, slot.SubIndex(), value)
	return nil
}

// DraftAnalysis summarizes how much of a draft is filled
type DraftAnalysis struct {
	Total      int              `json:"total"`
	Assigned   int              `json:"assigned"`
	EmptySlots []SlotDescriptor `json:"empty_slots"`
}

// AnalyzeDraft counts filled slots. The blank marker counts as assigned.
func AnalyzeDraft(d Draft) DraftAnalysis {
	slots := ListSlots()
	res := DraftAnalysis{Total: len(slots)}
	for _, s := range slots {
		v, _ := d.Get(s)
		if IsFilled(v) {
			res.Assigned++
		} else {
			res.EmptySlots = append(res.EmptySlots, s)
		}
	}
	return res
}
