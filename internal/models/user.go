package models

// User represents a dashboard user. The password column holds a bcrypt hash
// and never leaves the auth path.
type User struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Email    string `json:"email" db:"email"`
	Password string `json:"-" db:"password"`
}

// Revenue is one month of the dashboard revenue chart
type Revenue struct {
	Month   string `json:"month" db:"month"`
	Revenue int64  `json:"revenue" db:"revenue"`
}
