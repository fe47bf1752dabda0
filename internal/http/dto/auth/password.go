package auth

// ForgotPasswordForm represents the request body for POST /auth/forgot_password.
type ForgotPasswordForm struct {
	Email string `json:"email"`
}

// ResetPasswordForm represents the request body for POST /auth/reset_password.
// The single-use token travels as a query parameter.
type ResetPasswordForm struct {
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// UpdatePasswordForm represents the request body for POST /auth/update_password.
type UpdatePasswordForm struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}
