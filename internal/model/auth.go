package model

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are JWT claims binding a bearer to one quiz session
type SessionClaims struct {
	SessionID string `json:"sessionId"`
	jwt.RegisteredClaims
}

// CreateSessionResponse is returned when a session is opened
type CreateSessionResponse struct {
	SessionID string `json:"sessionId"`
	Token     string `json:"token"`
}
