// Package modal holds the create/edit form lifecycle shared by master-data
// pages. Edits happen on a private draft so cancelling never leaks partial
// changes into the listed record.
package modal

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/erp-portal/portal/internal/apiclient"
)

var (
	// ErrValidation is returned when required fields are missing.
	ErrValidation = errors.New("modal: validation failed")
	// ErrNotOpen is returned when submitting a closed modal.
	ErrNotOpen = errors.New("modal: not open")
)

// DefaultFallback is shown when the backend gives no detail.
const DefaultFallback = "Something went wrong. Please try again."

// State is the modal lifecycle position.
type State int

const (
	Closed State = iota
	OpenCreate
	OpenEdit
	Submitting
)

func (s State) String() string {
	switch s {
	case OpenCreate:
		return "create"
	case OpenEdit:
		return "edit"
	case Submitting:
		return "submitting"
	default:
		return "closed"
	}
}

// SubmitFunc persists draft. id is empty in create mode.
type SubmitFunc[D any] func(ctx context.Context, id string, draft D) error

// Modal is a form over a draft of type D.
type Modal[D any] struct {
	state    State
	id       string
	draft    D
	errMsg   string
	defaults func() D
	clone    func(D) D
	validate *validator.Validate

	// Fallback replaces DefaultFallback when set.
	Fallback string
}

// New constructs a closed Modal. clone must deep copy any reference fields of
// D; nil means a plain value copy.
func New[D any](defaults func() D, clone func(D) D) *Modal[D] {
	if defaults == nil {
		defaults = func() D {
			var zero D
			return zero
		}
	}
	if clone == nil {
		clone = func(d D) D { return d }
	}
	return &Modal[D]{defaults: defaults, clone: clone, validate: newValidator()}
}

// OpenCreate opens the modal with default values.
func (m *Modal[D]) OpenCreate() {
	m.state = OpenCreate
	m.id = ""
	m.draft = m.defaults()
	m.errMsg = ""
}

// OpenEdit opens the modal with a deep copy of record.
func (m *Modal[D]) OpenEdit(id string, record D) {
	m.state = OpenEdit
	m.id = id
	m.draft = m.clone(record)
	m.errMsg = ""
}

// Close discards the draft.
func (m *Modal[D]) Close() {
	var zero D
	m.state = Closed
	m.id = ""
	m.draft = zero
	m.errMsg = ""
}

// Update applies fn to the draft.
func (m *Modal[D]) Update(fn func(*D)) {
	fn(&m.draft)
}

// Draft returns a copy of the draft.
func (m *Modal[D]) Draft() D { return m.clone(m.draft) }

// ID returns the record id in edit mode.
func (m *Modal[D]) ID() string { return m.id }

// State returns the lifecycle position.
func (m *Modal[D]) State() State { return m.state }

// IsOpen reports whether the form is shown.
func (m *Modal[D]) IsOpen() bool { return m.state != Closed }

// Editing reports edit mode.
func (m *Modal[D]) Editing() bool { return m.state == OpenEdit }

// Error returns the banner text, if any.
func (m *Modal[D]) Error() string { return m.errMsg }

// Fail shows msg in the banner without leaving the open state.
func (m *Modal[D]) Fail(msg string) { m.errMsg = msg }

// Validate checks the draft's `validate` tags.
func (m *Modal[D]) Validate() error {
	if err := m.validate.Struct(m.draft); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			return fmt.Errorf("%w: %s", ErrValidation, describe(invalid))
		}
		var nonStruct *validator.InvalidValidationError
		if errors.As(err, &nonStruct) {
			return nil
		}
		return err
	}
	return nil
}

// Submit validates the draft and hands it to fn. Validation failures never
// reach fn. On failure the modal stays open with the draft intact and the
// banner set; on success it closes.
func (m *Modal[D]) Submit(ctx context.Context, fn SubmitFunc[D]) error {
	if m.state != OpenCreate && m.state != OpenEdit {
		return ErrNotOpen
	}
	if err := m.Validate(); err != nil {
		m.errMsg = strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
		return err
	}
	prev := m.state
	m.state = Submitting
	m.errMsg = ""
	if err := fn(ctx, m.id, m.clone(m.draft)); err != nil {
		m.state = prev
		fallback := m.Fallback
		if fallback == "" {
			fallback = DefaultFallback
		}
		m.errMsg = apiclient.Message(err, fallback)
		return err
	}
	m.Close()
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func describe(errs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "email":
			msgs = append(msgs, fe.Field()+" must be a valid email")
		case "min":
			msgs = append(msgs, fe.Field()+" needs at least "+fe.Param())
		case "gt":
			msgs = append(msgs, fe.Field()+" must be greater than "+fe.Param())
		case "gte":
			msgs = append(msgs, fe.Field()+" must be at least "+fe.Param())
		case "lte":
			msgs = append(msgs, fe.Field()+" must be at most "+fe.Param())
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
