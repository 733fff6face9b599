package modal

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// FieldType selects the input widget.
type FieldType string

const (
	Text        FieldType = "text"
	Email       FieldType = "email"
	Number      FieldType = "number"
	Textarea    FieldType = "textarea"
	Select      FieldType = "select"
	Checkbox    FieldType = "checkbox"
	Date        FieldType = "date"
	MultiSelect FieldType = "multiselect"
	// Password values are never echoed back into the form.
	Password FieldType = "password"
)

// Option is one choice of a Select field.
type Option struct {
	Value string
	Label string
}

// Accessor reads and writes one draft field as form text.
type Accessor[D any] struct {
	Get func(D) string
	Set func(*D, string) error
}

// FieldSpec describes one form input bound to the draft. Dotted names such as
// "billing_address.city" address nested objects.
type FieldSpec[D any] struct {
	Name        string
	Label       string
	Type        FieldType
	Required    bool
	Placeholder string
	Options     []Option
	Value       Accessor[D]
}

// FieldView is a FieldSpec resolved against a draft.
type FieldView struct {
	Name        string
	Label       string
	Type        FieldType
	Required    bool
	Placeholder string
	Options     []Option
	Value       string
	Checked     bool
	Selected    []string
}

// Bind copies the posted values of fields into the draft. Keys absent from
// form are left untouched, so nested objects are merged field by field.
func Bind[D any](m *Modal[D], fields []FieldSpec[D], form url.Values) error {
	var errs []string
	m.Update(func(d *D) {
		for _, f := range fields {
			values, ok := form[f.Name]
			if !ok || len(values) == 0 || f.Value.Set == nil {
				continue
			}
			// Checkboxes post a hidden "false" first; the last value wins.
			raw := values[len(values)-1]
			if f.Type == MultiSelect {
				raw = strings.Join(values, ",")
			}
			if f.Type != Textarea {
				raw = strings.TrimSpace(raw)
			}
			if err := f.Value.Set(d, raw); err != nil {
				errs = append(errs, f.Label+" "+err.Error())
			}
		}
	})
	if len(errs) > 0 {
		msg := strings.Join(errs, "; ")
		m.Fail(msg)
		return fmt.Errorf("%w: %s", ErrValidation, msg)
	}
	return nil
}

// Fields resolves fields against the current draft.
func Fields[D any](m *Modal[D], fields []FieldSpec[D]) []FieldView {
	draft := m.Draft()
	out := make([]FieldView, 0, len(fields))
	for _, f := range fields {
		fv := FieldView{
			Name:        f.Name,
			Label:       f.Label,
			Type:        f.Type,
			Required:    f.Required,
			Placeholder: f.Placeholder,
			Options:     f.Options,
		}
		if fv.Type == "" {
			fv.Type = Text
		}
		if f.Value.Get != nil && fv.Type != Password {
			fv.Value = f.Value.Get(draft)
		}
		fv.Checked = fv.Type == Checkbox && fv.Value == "true"
		if fv.Type == MultiSelect {
			fv.Selected = splitList(fv.Value)
		}
		out = append(out, fv)
	}
	return out
}

var errNotNumber = errors.New("must be a number")

// String binds a string field.
func String[D any](ptr func(*D) *string) Accessor[D] {
	return Accessor[D]{
		Get: func(d D) string { return *ptr(&d) },
		Set: func(d *D, v string) error {
			*ptr(d) = v
			return nil
		},
	}
}

// OptionalString binds a nullable string; empty input stores nil.
func OptionalString[D any](ptr func(*D) **string) Accessor[D] {
	return Accessor[D]{
		Get: func(d D) string {
			if p := *ptr(&d); p != nil {
				return *p
			}
			return ""
		},
		Set: func(d *D, v string) error {
			if v == "" {
				*ptr(d) = nil
				return nil
			}
			*ptr(d) = &v
			return nil
		},
	}
}

// Float binds a number field; empty input stores zero.
func Float[D any](ptr func(*D) *float64) Accessor[D] {
	return Accessor[D]{
		Get: func(d D) string { return strconv.FormatFloat(*ptr(&d), 'f', -1, 64) },
		Set: func(d *D, v string) error {
			if v == "" {
				*ptr(d) = 0
				return nil
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return errNotNumber
			}
			*ptr(d) = f
			return nil
		},
	}
}

// OptionalFloat binds a nullable number; empty input stores nil.
func OptionalFloat[D any](ptr func(*D) **float64) Accessor[D] {
	return Accessor[D]{
		Get: func(d D) string {
			if p := *ptr(&d); p != nil {
				return strconv.FormatFloat(*p, 'f', -1, 64)
			}
			return ""
		},
		Set: func(d *D, v string) error {
			if v == "" {
				*ptr(d) = nil
				return nil
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return errNotNumber
			}
			*ptr(d) = &f
			return nil
		},
	}
}

// Int binds an integer field; empty input stores zero.
func Int[D any](ptr func(*D) *int) Accessor[D] {
	return Accessor[D]{
		Get: func(d D) string { return strconv.Itoa(*ptr(&d)) },
		Set: func(d *D, v string) error {
			if v == "" {
				*ptr(d) = 0
				return nil
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return errNotNumber
			}
			*ptr(d) = n
			return nil
		},
	}
}

// Bool binds a checkbox.
func Bool[D any](ptr func(*D) *bool) Accessor[D] {
	return Accessor[D]{
		Get: func(d D) string { return strconv.FormatBool(*ptr(&d)) },
		Set: func(d *D, v string) error {
			*ptr(d) = v == "true" || v == "on" || v == "1"
			return nil
		},
	}
}

// StringList binds a multi-select; posted values arrive comma-joined.
func StringList[D any](ptr func(*D) *[]string) Accessor[D] {
	return Accessor[D]{
		Get: func(d D) string { return strings.Join(*ptr(&d), ",") },
		Set: func(d *D, v string) error {
			*ptr(d) = splitList(v)
			return nil
		},
	}
}

func splitList(v string) []string {
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
