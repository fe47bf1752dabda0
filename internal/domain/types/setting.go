package types

// Nombres de settings de aplicación que este core consume.
// Son filas seed: su ausencia es un error de deployment, no de request.
const (
	SettingUserVerification = "user_verification"
	SettingBaseURL          = "base_url"
	SettingSMTPServer       = "smtp_server"
	SettingSMTPPort         = "smtp_port"
	SettingSMTPUsername     = "smtp_username"
	SettingSMTPPassword     = "smtp_password"
)

// Métodos de verificación de cuenta (valor del setting user_verification).
const (
	VerificationNone  = "none"
	VerificationEmail = "email"
)

// Nombres de templates de email usados por los flows de auth.
const (
	TemplateEmailVerification = "email_verification"
	TemplateResetPassword     = "reset_password"
	TemplateTfa               = "tfa"
)
