package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the access token payload minted by the identity service.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Site     string   `json:"site"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
