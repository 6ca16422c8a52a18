package types

import (
	"errors"
	"fmt"
	"strings"
)

// ------------------------------
// Shared Errors
// ------------------------------

var (
	// ErrNotFound is returned when an entity is absent both remotely and locally.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput wraps every local validation failure.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSystemFieldDelete is returned when deleting a system field.
	ErrSystemFieldDelete = errors.New("system fields cannot be deleted")
	// ErrNoToken is returned by operations that need an authenticated session.
	ErrNoToken = errors.New("no auth token")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ------------------------------
// Enumeration checks
// ------------------------------

// Valid reports whether s is one of the fixed status buckets.
func (s CaseStatus) Valid() bool {
	for _, v := range CaseStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskCancelled:
		return true
	}
	return false
}

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldNumber, FieldDate, FieldSelect, FieldMultiselect,
		FieldCheckbox, FieldURL, FieldEmail, FieldPhone, FieldTextarea:
		return true
	}
	return false
}

// HasOptions reports whether values of t are picked from an option list.
func (t FieldType) HasOptions() bool {
	return t == FieldSelect || t == FieldMultiselect
}

// Valid reports whether c is in the palette.
func (c WorkflowColor) Valid() bool {
	switch c {
	case ColorPrimary, ColorSecondary, ColorSuccess, ColorWarning, ColorError, ColorInfo, ColorNeutral:
		return true
	}
	return false
}

// Valid reports whether v is a known view type.
func (v ViewType) Valid() bool {
	return v == ViewBoard || v == ViewList
}

// ------------------------------
// Input validation
// ------------------------------

// ValidateID rejects empty identifiers.
func ValidateID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid("%s id is required", kind)
	}
	return nil
}

// ValidateDurationDays requires a positive duration.
func ValidateDurationDays(n int) error {
	if n < 1 {
		return invalid("duration_days must be positive, got %d", n)
	}
	return nil
}

// Validate checks the required case attributes.
func (r CreateCaseRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return invalid("title is required")
	}
	if strings.TrimSpace(r.BrandName) == "" {
		return invalid("brand_name is required")
	}
	if r.Status != "" && !r.Status.Valid() {
		return invalid("unknown case status %q", r.Status)
	}
	return nil
}

// Validate checks enum values carried by the patch.
func (r UpdateCaseRequest) Validate() error {
	if r.Status != nil && !r.Status.Valid() {
		return invalid("unknown case status %q", *r.Status)
	}
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return invalid("title cannot be empty")
	}
	return nil
}

// Validate checks the required task attributes.
func (r CreateTaskRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return invalid("task title is required")
	}
	return nil
}

// Validate checks enum values carried by the patch.
func (r UpdateTaskRequest) Validate() error {
	if r.Status != nil && !r.Status.Valid() {
		return invalid("unknown task status %q", *r.Status)
	}
	return nil
}

// Validate checks the phase name and duration.
func (r CreateCasePhaseRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return invalid("phase name is required")
	}
	if r.StartDate.IsZero() {
		return invalid("phase start_date is required")
	}
	return ValidateDurationDays(r.DurationDays)
}

// Validate checks a duration change.
func (r UpdateCasePhaseRequest) Validate() error {
	if r.DurationDays != nil {
		return ValidateDurationDays(*r.DurationDays)
	}
	return nil
}

// Validate checks the field definition.
func (r CreateFieldRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return invalid("field name is required")
	}
	if strings.TrimSpace(r.Label) == "" {
		return invalid("field label is required")
	}
	if !r.Type.Valid() {
		return invalid("unknown field type %q", r.Type)
	}
	if r.Type.HasOptions() && len(r.Options) == 0 {
		return invalid("%s field %q needs options", r.Type, r.Name)
	}
	return nil
}

// Validate checks the catalog item.
func (r CreateCollaborationItemRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return invalid("item title is required")
	}
	if r.Price < 0 {
		return invalid("item price cannot be negative")
	}
	return nil
}

// Validate checks the template name and color.
func (r CreateWorkflowTemplateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return invalid("workflow name is required")
	}
	if r.Color != "" && !r.Color.Valid() {
		return invalid("unknown workflow color %q", r.Color)
	}
	return nil
}

// Validate checks the color when it changes.
func (r UpdateWorkflowTemplateRequest) Validate() error {
	if r.Color != nil && !r.Color.Valid() {
		return invalid("unknown workflow color %q", *r.Color)
	}
	return nil
}

// Validate checks the template phase.
func (r CreateWorkflowPhaseRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return invalid("phase name is required")
	}
	return ValidateDurationDays(r.DurationDays)
}

// Validate checks a duration change.
func (r UpdateWorkflowPhaseRequest) Validate() error {
	if r.DurationDays != nil {
		return ValidateDurationDays(*r.DurationDays)
	}
	return nil
}
