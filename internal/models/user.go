package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is an account that can author posts and comments and follow other users.
// Password holds a bcrypt hash and is empty for accounts created through
// Firebase login.
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Username    string    `json:"username" gorm:"size:150;not null;uniqueIndex"`
	Email       string    `json:"-" gorm:"size:254"`
	FirstName   string    `json:"first_name,omitempty" gorm:"size:150"`
	LastName    string    `json:"last_name,omitempty" gorm:"size:150"`
	Password    string    `json:"-"`
	FirebaseUID *string   `json:"-" gorm:"size:128;uniqueIndex"`
	CreatedAt   time.Time `json:"date_joined"`
}

// UserCompact is the author summary embedded in post and comment payloads.
type UserCompact struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
}

// ToCompact converts a User to its public summary.
func (u *User) ToCompact() UserCompact {
	full := u.FirstName
	if u.LastName != "" {
		if full != "" {
			full += " "
		}
		full += u.LastName
	}
	return UserCompact{ID: u.ID, Username: u.Username, FullName: full}
}

// SignupRequest defines the form for creating a local account
type SignupRequest struct {
	Username string `form:"username" json:"username" validate:"required,username"`
	Email    string `form:"email" json:"email" validate:"omitempty,email"`
	Password string `form:"password" json:"password" validate:"required,min=8"`
}

// LoginRequest defines the login form
type LoginRequest struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
	Next     string `form:"next" json:"next"`
}

// FirebaseLoginRequest carries a Firebase ID token obtained by the client
type FirebaseLoginRequest struct {
	IDToken string `form:"id_token" json:"idToken" validate:"required"`
}

// JwtCustomClaims are the claims stored in the session cookie.
type JwtCustomClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
