package model

// User is a single row of the users table.
// The db tags drive SQL generation in the mapper layer; json tags shape the HTTP payloads.
type User struct {
	ID   int64  `json:"id" db:"id,pk"`
	Name string `json:"name" db:"name"`
}

// TableName binds User to its table.
func (u *User) TableName() string {
	return "users"
}
