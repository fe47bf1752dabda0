package auth

import "time"

// UserAuthResponse is the response for GET /auth/me: the acting identity
// plus the raw permission strings of its role.
type UserAuthResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Provider    string    `json:"provider"`
	Verified    bool      `json:"verified"`
	TfaMethods  []string  `json:"tfa_methods"`
	Permissions []string  `json:"permissions"`
	API         *string   `json:"api,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// APIKeyResponse is the response for POST /auth/generate_api_key.
type APIKeyResponse struct {
	APIKey string `json:"api_key"`
}
