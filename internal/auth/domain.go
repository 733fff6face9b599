package auth

import "github.com/erp-portal/portal/internal/apiclient"

// Credentials are posted to the login and register endpoints.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Company is a tenant the user belongs to.
type Company struct {
	ID          string              `json:"id" validate:"required"`
	Name        string              `json:"name" validate:"required"`
	Description *string             `json:"description"`
	IsActive    bool                `json:"is_active"`
	CreatedAt   apiclient.Timestamp `json:"created_at"`
}

// CompanyInput creates a company.
type CompanyInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}
