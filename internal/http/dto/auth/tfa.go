package auth

// AuthenticatorSetupResponse is the response for POST /auth/tfa/setup/authenticator.
type AuthenticatorSetupResponse struct {
	// TfaLink is the otpauth:// provisioning URI for authenticator apps.
	TfaLink string `json:"tfa_link"`
}

// EmailSetupResponse is the response for email-based TFA endpoints.
type EmailSetupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TfaVerifyRequest represents the request body for POST /auth/tfa/verify/{method}.
type TfaVerifyRequest struct {
	Code string `json:"code"`
}

// TfaVerificationResponse is the response for a TFA code verification.
type TfaVerificationResponse struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
}
