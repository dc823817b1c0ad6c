package models

// User is the authenticated caller. ID is the opaque subject issued by the
// identity provider; the service never stores users itself.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}
