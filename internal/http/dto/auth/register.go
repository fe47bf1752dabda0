package auth

// RegisterForm represents the request body for POST /auth/register.
type RegisterForm struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	// Password is subject to confirmation: both fields must match.
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// RegisterResult is the internal result from RegisterService.
type RegisterResult struct {
	UserID       int64
	AccessToken  string
	RefreshToken string
	// VerificationPending indicates an email verification was enqueued.
	VerificationPending bool
}
