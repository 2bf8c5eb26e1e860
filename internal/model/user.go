package model

import "time"

// User represents an account row in the users table.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    *string
	LastName     *string
	Gender       *string
	Age          *int
	Nationality  *string
	CreatedAt    time.Time
}

// SignupRequest represents a signup request body.
type SignupRequest struct {
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	FirstName   *string  `json:"first_name"`
	LastName    *string  `json:"last_name"`
	Gender      *string  `json:"gender"`
	Age         *FlexInt `json:"age"`
	Nationality *string  `json:"nationality"`
}

// LoginRequest represents a login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MessageResponse is the body shape used by the account routes.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginResponse represents a successful login.
type LoginResponse struct {
	Message string      `json:"message"`
	User    UserProfile `json:"user"`
	Token   string      `json:"token"`
}

// ProfileResponse wraps the profile returned by /me.
type ProfileResponse struct {
	User UserProfile `json:"user"`
}

// UserProfile is the public view of a user. It never carries the password hash.
type UserProfile struct {
	Email       string  `json:"email"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Gender      *string `json:"gender"`
	Age         *int    `json:"age"`
	Nationality *string `json:"nationality"`
}

// Profile returns the public view of u.
func (u *User) Profile() UserProfile {
	return UserProfile{
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Gender:      u.Gender,
		Age:         u.Age,
		Nationality: u.Nationality,
	}
}
