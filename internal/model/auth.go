package model

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are the JWT claims carried by a user session token.
type SessionClaims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for sign-in.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful sign-in.
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
