package entity

// User is the authenticated caller, built from verified token claims.
// There is no local user table; the identity provider owns accounts.
type User struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}
