// Package dataio validates, merges and exports AppData snapshots.
package dataio

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/arnavshah/position-helper-go/pkg/models"
)

// ErrInvalidPayload is returned when an import cannot be decoded or fails validation
var ErrInvalidPayload = errors.New("invalid import payload")

// FieldIssue describes one failed validation rule
type FieldIssue struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func (f FieldIssue) String() string {
	return fmt.Sprintf("%s: %s", f.Field, f.Message)
}

// Validator wraps a configured go-playground validator
type Validator struct {
	v *validator.Validate
}

// NewValidator registers the schedule-specific rules
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("weekdate", func(fl validator.FieldLevel) bool {
		return models.ValidateWeekDate(fl.Field().String()) == nil
	})
	return &Validator{v: v}
}

// Struct validates any tagged value and converts failures to field issues
func (v *Validator) Struct(s interface{}) []FieldIssue {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldIssue{{Field: "", Tag: "invalid", Message: err.Error()}}
	}

	issues := make([]FieldIssue, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		issues = append(issues, FieldIssue{Field: field, Tag: fe.Tag(), Message: issueMessage(fe)})
	}
	return issues
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank", "required":
		return "required"
	case "weekdate":
		return fmt.Sprintf("%v is not a YYYY-MM-DD week key", fe.Value())
	case "unique":
		return "duplicate member names"
	}
	return fmt.Sprintf("failed %s", fe.Tag())
}

// Decode parses an import payload, lifts legacy member names in the roster and in
// every week, and validates the result.
// Field issues are returned alongside ErrInvalidPayload.
func (v *Validator) Decode(raw []byte) (*models.AppData, []FieldIssue, error) {
	var data models.AppData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if data.Weeks == nil {
		data.Weeks = map[string]models.WeekData{}
	}
	for i, m := range data.Members {
		// blank names are reported by the validator below
		if nm, err := models.NormalizeMember(m); err == nil {
			data.Members[i] = nm
		}
	}
	models.MigrateLegacyNames(&data)

	if issues := v.Struct(&data); len(issues) > 0 {
		return nil, issues, fmt.Errorf("%w: %d field issues", ErrInvalidPayload, len(issues))
	}
	return &data, nil, nil
}
