package models

// User is the identity snapshot attached to a session.
type User struct {
	ID    string `json:"id" yaml:"id"`
	Email string `json:"email" yaml:"email"`
	Name  string `json:"name" yaml:"name"`
}

// Session represents the authenticated principal: an opaque bearer
// token plus the identity it was issued for. Expiry is server-defined
// and reported via 401; no expiry clock is tracked client-side.
type Session struct {
	Token string `yaml:"token"`
	User  *User  `yaml:"user,omitempty"`
}
