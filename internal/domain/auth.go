package domain

type ContextKey string

const UserContextKey ContextKey = "user"

const RoleAdmin = "admin"

// User is the caller identity carried by an access token. Accounts live in
// the storefront's auth service; this service only reads the claims.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
