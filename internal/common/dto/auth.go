package dto

import "time"

// RegisterRequest represents a sign-up request
type RegisterRequest struct {
	Name            string `json:"name" binding:"required,min=2,max=15"`
	Username        string `json:"username" binding:"required,min=3,max=30,alphanum"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

// LoginRequest represents a login request by email or username
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

// ChangePasswordRequest represents a request to change password
type ChangePasswordRequest struct {
	OldPassword     string `json:"oldPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=NewPassword"`
}

// UserInfo is the public profile of a user
type UserInfo struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email,omitempty"`
	Name      string     `json:"name"`
	Bio       string     `json:"bio"`
	Avatar    string     `json:"avatar"`
	Online    bool       `json:"online"`
	LastSeen  *time.Time `json:"lastSeen,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// UpdateProfileRequest changes the caller's profile. Nil fields are left as they are.
type UpdateProfileRequest struct {
	Name   *string `json:"name" binding:"omitempty,min=2,max=15"`
	Bio    *string `json:"bio" binding:"omitempty,max=200"`
	Avatar *string `json:"avatar" binding:"omitempty,max=500"`
}

// DeleteAccountRequest confirms account deletion with the current password
type DeleteAccountRequest struct {
	Password string `json:"password" binding:"required"`
}
