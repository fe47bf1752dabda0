package auth

// LoginRequest represents the request body for POST /auth/login.
type LoginRequest struct {
	// Email is the account identifier.
	Email string `json:"email"`
	// Password is the plaintext password to verify.
	Password string `json:"password"`
	// Remember controls whether a refresh token cookie is issued.
	Remember bool `json:"remember,omitempty"`
}

// TokenResponse is the response for a fully authenticated login.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

// TfaChallengeResponse is returned when the account has MFA enrolled
// and the request did not carry a valid second-factor proof.
type TfaChallengeResponse struct {
	TfaRequired bool     `json:"tfa_required"`
	TfaMethods  []string `json:"tfa_methods"`
}

// LoginResult is the internal result from LoginService.
type LoginResult struct {
	// TfaRequired signals the MFA gate: TfaToken carries the challenge,
	// no session tokens are present.
	TfaRequired bool
	TfaMethods  []string
	TfaToken    string

	AccessToken  string
	RefreshToken string
}
