package masters

import (
	"github.com/erp-portal/portal/internal/mastertable"
	"github.com/erp-portal/portal/internal/modal"
)

// Category groups items, optionally under a parent.
type Category struct {
	ID               string  `json:"_id" validate:"required"`
	Name             string  `json:"name"`
	ParentCategoryID *string `json:"parent_category_id"`
	IsActive         bool    `json:"is_active"`
}

func (c Category) RowID() string { return c.ID }
func (c Category) Active() bool  { return c.IsActive }

func (c Category) Field(key string) string {
	switch key {
	case "name":
		return c.Name
	case "level":
		if c.ParentCategoryID == nil {
			return "Top level"
		}
		return "Sub-category"
	case "status":
		return status(c.IsActive)
	}
	return ""
}

// CategoryDraft is the create payload.
type CategoryDraft struct {
	Name             string  `json:"name" validate:"required" label:"Category name"`
	ParentCategoryID *string `json:"parent_category_id"`
}

// Categories configures the categories screen. Categories cannot be edited,
// only created and deleted.
func Categories() Entity[Category, CategoryDraft] {
	return Entity[Category, CategoryDraft]{
		Slug:              "categories",
		Resource:          "categories/",
		Title:             "Categories",
		Singular:          "Category",
		PermissionPrefix:  "categories",
		SearchPlaceholder: "Search categories...",
		EmptyMessage:      "No categories yet.",
		Columns: []mastertable.Column[Category]{
			{Key: "name", Label: "Category"},
			{Key: "level", Label: "Level"},
			{Key: "status", Label: "Status", Render: statusCell[Category]},
		},
		SearchFields:   []string{"name"},
		ServerSearch:   true,
		DeactivateVerb: "Delete",
		Support:        map[string]string{"categories": "categories/"},
		Fields: func(support map[string][]modal.Option) []modal.FieldSpec[CategoryDraft] {
			parents := append([]modal.Option{{Value: "", Label: "None (top level)"}}, support["categories"]...)
			return []modal.FieldSpec[CategoryDraft]{
				{Name: "name", Label: "Category name", Required: true, Value: modal.String(func(d *CategoryDraft) *string { return &d.Name })},
				{Name: "parent_category_id", Label: "Parent category", Type: modal.Select, Options: parents,
					Value: modal.OptionalString(func(d *CategoryDraft) **string { return &d.ParentCategoryID })},
			}
		},
		Draft: func(c Category) CategoryDraft {
			return CategoryDraft{Name: c.Name, ParentCategoryID: cloneString(c.ParentCategoryID)}
		},
		Clone: func(d CategoryDraft) CategoryDraft {
			d.ParentCategoryID = cloneString(d.ParentCategoryID)
			return d
		},
	}
}
