package domain

// User is the identity returned by the remote login exchange.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
