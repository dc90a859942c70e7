package model

// Role names stored in users.role.
const (
    RoleUser  = "user"
    RoleAdmin = "admin"
)

// User represents an application user record as stored in the
// `users` table.  The identifier is a UUID string generated by the
// application, never by the database.
//
// Fields:
//  ID           – UUID primary key.
//  Username     – unique, case-sensitive login name.
//  PasswordHash – bcrypt hashed password.
//  Role         – "user" or "admin".  The first registered user is admin.
type User struct {
    ID           string // users.id
    Username     string // users.username
    PasswordHash string // users.password_hash
    Role         string // users.role
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
