package user

// User represents a user entity in the system.
type User struct {
	ID    *int32 `json:"id"`    // ID is assigned by the database; nil until the row exists
	Name  string `json:"name"`  // Name is the full name of the user
	Email string `json:"email"` // Email is the contact address of the user
}

// Persisted reports whether the user carries a database-assigned id.
func (u *User) Persisted() bool {
	return u != nil && u.ID != nil
}
