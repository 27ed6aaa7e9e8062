package model

import "time"

// TokenData contains the data stored with a session token.
type TokenData struct {
	AccountID int64     `json:"account_id"`
	ClientID  string    `json:"client_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AccountValidation contains the result of an API key validation.
type AccountValidation struct {
	AccountID int64
	ClientID  string
	Email     string
	Status    string
}
