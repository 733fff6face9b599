package tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Pair is the access/refresh token pair issued by the backend on login,
// registration, company selection and refresh.
type Pair struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
	TokenType    string `json:"token_type,omitempty"`
}

// Claims are the access token fields the portal reads for routing decisions.
// They are never trusted for authorization; the backend verifies every call.
type Claims struct {
	Subject         string
	UserID          string
	ActiveCompanyID string
	Role            string
	ExpiresAt       time.Time
}

// HasCompany reports whether the token carries an active tenant.
func (c Claims) HasCompany() bool {
	return c.ActiveCompanyID != ""
}

// ParseJWT decodes the payload of a three-part token without checking the
// signature. Segments may be padded or unpadded base64url. The header must
// still decode and name an algorithm the jwt package knows; any other input
// returns nil.
func ParseJWT(token string) jwt.MapClaims {
	if token == "" {
		return nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser(jwt.WithPaddingAllowed()).ParseUnverified(token, claims); err != nil {
		return nil
	}
	return claims
}

// ClaimsOf maps a token into typed Claims. ok is false for malformed tokens.
func ClaimsOf(token string) (Claims, bool) {
	raw := ParseJWT(token)
	if raw == nil {
		return Claims{}, false
	}
	c := Claims{
		Subject:         stringClaim(raw, "sub"),
		UserID:          stringClaim(raw, "user_id"),
		ActiveCompanyID: stringClaim(raw, "active_company_id"),
		Role:            stringClaim(raw, "role"),
	}
	if exp, err := raw.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, true
}

func stringClaim(raw jwt.MapClaims, key string) string {
	v, ok := raw[key].(string)
	if !ok {
		return ""
	}
	return v
}
