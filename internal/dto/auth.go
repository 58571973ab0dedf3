package dto

import "time"

// LoginRequest defines the credentials for signing in.
type LoginRequest struct {
	OwnerHandle string `json:"ownerHandle" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

// LoginResponse carries the bearer token for subsequent requests.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
