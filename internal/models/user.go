package models

// Roles a user can hold.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents an account that can log in and belongs to libraries.
type User struct {
	ID           string   `json:"id" bson:"_id"`
	Username     string   `json:"username" bson:"username"`
	PasswordHash string   `json:"-" bson:"password_hash"` // Never expose this to the client
	Country      string   `json:"country" bson:"country"`
	Libraries    []string `json:"libraries" bson:"libraries"`
	Role         string   `json:"role" bson:"role"`
}
