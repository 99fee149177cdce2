package models

// User is the logical view of a user row. Historical rows come in two
// shapes (numeric-style keys and UUID-style keys); UserID is the canonical
// identifier derived by the identity resolver regardless of shape.
type User struct {
	PartitionKey string `json:"-"`
	SortKey      string `json:"-"`
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	AccessLevel  string `json:"accessLevel,omitempty"`
}

// Principal is the authenticated caller as reported by the credential
// verifier. The core trusts the username as-is.
type Principal struct {
	Username    string
	AccessLevel string
}

// IsAdmin reports whether the principal carries the admin access level.
func (p Principal) IsAdmin() bool {
	return p.AccessLevel == "admin"
}
