// Package hr serves the employee onboarding draft with a debounced
// background autosave.
package hr

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/erp-portal/portal/internal/apiclient"
	"github.com/erp-portal/portal/internal/modal"
)

// Onboarding statuses.
const (
	StatusDraft     = "Draft"
	StatusSubmitted = "Submitted"
	StatusApproved  = "Approved"
	StatusRejected  = "Rejected"
)

// Section holds the free-form values of one onboarding step.
type Section map[string]any

// Record is the onboarding draft of the signed in user.
type Record struct {
	Basic     Section             `json:"basic"`
	Job       Section             `json:"job"`
	Contact   Section             `json:"contact"`
	Bank      Section             `json:"bank"`
	Docs      Section             `json:"docs"`
	Status    string              `json:"status"`
	UpdatedAt apiclient.Timestamp `json:"updated_at,omitempty"`
}

// Locked reports whether the draft no longer accepts edits.
func (r Record) Locked() bool {
	return r.Status == StatusSubmitted || r.Status == StatusApproved
}

func (r *Record) section(name string) *Section {
	switch name {
	case "basic":
		return &r.Basic
	case "job":
		return &r.Job
	case "contact":
		return &r.Contact
	case "bank":
		return &r.Bank
	case "docs":
		return &r.Docs
	}
	return nil
}

// Value returns one field as form text.
func (r Record) Value(section, key string) string {
	s := r.section(section)
	if s == nil || *s == nil {
		return ""
	}
	v, ok := (*s)[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func (r *Record) set(section, key, value string) {
	s := r.section(section)
	if s == nil {
		return
	}
	if *s == nil {
		*s = Section{}
	}
	(*s)[key] = value
}

type envelope struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Data    *Record `json:"data"`
}

func newRecord() Record {
	return Record{
		Basic:   Section{},
		Job:     Section{},
		Contact: Section{},
		Bank:    Section{},
		Docs:    Section{},
		Status:  StatusDraft,
	}
}

func cloneRecord(r Record) Record {
	out := r
	for _, name := range allSections {
		if s := out.section(name); *s != nil {
			*s = maps.Clone(*s)
		}
	}
	return out
}

// normalize fills missing sections so the record always encodes as objects.
func normalize(r Record) Record {
	out := cloneRecord(r)
	for _, name := range allSections {
		if s := out.section(name); *s == nil {
			*s = Section{}
		}
	}
	if out.Status == "" {
		out.Status = StatusDraft
	}
	return out
}

// Step groups the fields of one section for display.
type Step struct {
	ID     string
	Title  string
	Fields []modal.FieldView
}

// field describes one onboarding input.
type field struct {
	section     string
	key         string
	label       string
	kind        modal.FieldType
	placeholder string
	options     []string
}

var (
	sectionOrder = []string{"basic", "job", "contact", "bank"}
	allSections  = []string{"basic", "job", "contact", "bank", "docs"}
)

var sectionTitles = map[string]string{
	"basic":   "Basic Details",
	"job":     "Job Details",
	"contact": "Contact Info",
	"bank":    "Bank & Salary",
}

var layout = []field{
	{section: "basic", key: "fullName", label: "Full Name", kind: modal.Text, placeholder: "John Doe"},
	{section: "basic", key: "dateOfBirth", label: "Date of Birth", kind: modal.Date},
	{section: "basic", key: "gender", label: "Gender", kind: modal.Select, options: []string{"Male", "Female", "Other"}},
	{section: "basic", key: "nationality", label: "Nationality", kind: modal.Text, placeholder: "Indian"},
	{section: "job", key: "department", label: "Department", kind: modal.Select, options: []string{"Software", "Sales", "HR", "Admin"}},
	{section: "job", key: "designation", label: "Designation", kind: modal.Text, placeholder: "Senior Developer"},
	{section: "job", key: "dateOfJoining", label: "Date of Joining", kind: modal.Date},
	{section: "job", key: "employmentType", label: "Employment Type", kind: modal.Select, options: []string{"Full-time", "Contract", "Intern"}},
	{section: "contact", key: "email", label: "Email Address", kind: modal.Email, placeholder: "john@company.com"},
	{section: "contact", key: "phone", label: "Phone Number", kind: modal.Text, placeholder: "+91 9876543210"},
	{section: "contact", key: "address", label: "Address", kind: modal.Text, placeholder: "123 Street, City"},
	{section: "contact", key: "city", label: "City", kind: modal.Text, placeholder: "Bangalore"},
	{section: "bank", key: "bankName", label: "Bank Name", kind: modal.Text, placeholder: "HDFC Bank"},
	{section: "bank", key: "accountNumber", label: "Account Number", kind: modal.Text, placeholder: "50100..."},
	{section: "bank", key: "ifscCode", label: "IFSC Code", kind: modal.Text, placeholder: "HDFC0001"},
	{section: "bank", key: "salary", label: "Proposed Annual CTC", kind: modal.Text, placeholder: "12,00,000"},
}

// documents lists the supporting documents tracked in the docs section.
var documents = []struct{ key, label string }{
	{"aadhar", "Aadhar Card / ID Proof"},
	{"pan", "PAN Card"},
	{"resume", "Resume"},
	{"certificates", "Education Certificates"},
	{"experienceLetter", "Experience Letter"},
}

// provided reports whether a docs entry marks the document as handed in.
func provided(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != "" && t != "false"
	}
	return true
}

func docSpec(key, label string) modal.FieldSpec[Record] {
	return modal.FieldSpec[Record]{
		Name:  "docs." + key,
		Label: label,
		Type:  modal.Checkbox,
		Value: modal.Accessor[Record]{
			Get: func(r Record) string {
				if r.Docs == nil {
					return "false"
				}
				return strconv.FormatBool(provided(r.Docs[key]))
			},
			Set: func(r *Record, v string) error {
				if r.Docs == nil {
					r.Docs = Section{}
				}
				r.Docs[key] = v == "true" || v == "on"
				return nil
			},
		},
	}
}

func (f field) name() string { return f.section + "." + f.key }

func (f field) spec() modal.FieldSpec[Record] {
	spec := modal.FieldSpec[Record]{
		Name:        f.name(),
		Label:       f.label,
		Type:        f.kind,
		Required:    true,
		Placeholder: f.placeholder,
		Value: modal.Accessor[Record]{
			Get: func(r Record) string { return r.Value(f.section, f.key) },
			Set: func(r *Record, v string) error {
				r.set(f.section, f.key, v)
				return nil
			},
		},
	}
	for _, o := range f.options {
		spec.Options = append(spec.Options, modal.Option{Value: o, Label: o})
	}
	return spec
}

// specs holds every bindable input: the section fields, then the documents.
var specs = func() []modal.FieldSpec[Record] {
	out := make([]modal.FieldSpec[Record], 0, len(layout)+len(documents))
	for _, f := range layout {
		out = append(out, f.spec())
	}
	for _, d := range documents {
		out = append(out, docSpec(d.key, d.label))
	}
	return out
}()

// Steps resolves the form sections against the draft held by m.
func Steps(m *modal.Modal[Record]) []Step {
	views := modal.Fields(m, specs)
	byName := make(map[string]modal.FieldView, len(views))
	for _, v := range views {
		byName[v.Name] = v
	}
	steps := make([]Step, 0, len(sectionOrder)+1)
	for _, id := range sectionOrder {
		step := Step{ID: id, Title: sectionTitles[id]}
		for _, f := range layout {
			if f.section == id {
				step.Fields = append(step.Fields, byName[f.name()])
			}
		}
		steps = append(steps, step)
	}
	docs := Step{ID: "docs", Title: "Documents"}
	for _, d := range documents {
		docs.Fields = append(docs.Fields, byName["docs."+d.key])
	}
	return append(steps, docs)
}

// Missing returns the label of the first empty field, in display order.
func Missing(r Record) (string, bool) {
	for _, f := range layout {
		if r.Value(f.section, f.key) == "" {
			return f.label, true
		}
	}
	return "", false
}
