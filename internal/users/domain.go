// Package users serves the company user directory, user invitations and
// per-user role assignment.
package users

// User is a member of the active company.
type User struct {
	ID       string `json:"_id" validate:"required"`
	Email    string `json:"email" validate:"required"`
	FullName string `json:"full_name"`
	Status   string `json:"status"`
}

// DisplayName prefers the full name and falls back to the email.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

// RowID implements mastertable.Row.
func (u User) RowID() string { return u.ID }

// Field implements mastertable.Row.
func (u User) Field(key string) string {
	switch key {
	case "full_name":
		return u.DisplayName()
	case "email":
		return u.Email
	case "status":
		if u.Status == "" {
			return "active"
		}
		return u.Status
	}
	return ""
}

// Active implements mastertable.Row.
func (u User) Active() bool { return u.Status == "" || u.Status == "active" }

// Invite is the body that adds a user to the company.
type Invite struct {
	FullName string `json:"full_name" label:"Full name"`
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required,min=8" label:"Temporary password"`
}

func newInvite() Invite { return Invite{} }

func cloneInvite(i Invite) Invite { return i }
