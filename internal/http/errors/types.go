package errors

import (
	"fmt"
	"net/http"
)

// AppError define la estructura estándar para errores de la aplicación.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"` // No se serializa, usado para el header
	Err        error  `json:"-"` // Causa original, útil para logs, no se expone al cliente
}

// Error implementa la interfaz error
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original
func (e *AppError) Unwrap() error {
	return e.Err
}

// New crea un nuevo AppError
func New(status int, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}

// FromError intenta convertir un error genérico en un AppError.
// Si no es un AppError, devuelve un error interno genérico conservando la
// causa: ningún error inesperado filtra detalle al cliente.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternal.WithCause(err)
}

// WithDetail agrega detalle al error.
// Devuelve una COPIA para no mutar las variables globales base.
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause agrega la causa original. Devuelve una COPIA.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// =================================================================================
// TAXONOMÍA DE ERRORES DEL CORE DE AUTH
// =================================================================================

var (
	// ErrAuthenticationRequired: ninguna credencial utilizable en el request.
	ErrAuthenticationRequired = &AppError{
		Code:       "AUTHENTICATION_REQUIRED",
		Message:    "Authentication required",
		HTTPStatus: http.StatusUnauthorized,
	}

	// ErrInvalidCredentials: password incorrecto o código no matcheado.
	ErrInvalidCredentials = &AppError{
		Code:       "INVALID_CREDENTIALS",
		Message:    "Invalid credentials",
		HTTPStatus: http.StatusUnauthorized,
	}

	// ErrTokenInvalid: firma, propósito o edad inválida.
	// Nunca se distingue más fino hacia el cliente.
	ErrTokenInvalid = &AppError{
		Code:       "TOKEN_INVALID",
		Message:    "Could not validate credentials",
		HTTPStatus: http.StatusUnauthorized,
	}

	// ErrUserNotVerified: credencial correcta pero cuenta sin verificar.
	ErrUserNotVerified = &AppError{
		Code:       "USER_NOT_VERIFIED",
		Message:    "User not verified. Please contact admin for more details!",
		HTTPStatus: http.StatusUnauthorized,
	}

	// ErrPermissionDenied: identidad resuelta pero acción no permitida.
	// Distinto de AUTHENTICATION_REQUIRED a propósito.
	ErrPermissionDenied = &AppError{
		Code:       "PERMISSION_DENIED",
		Message:    "No access to this resource",
		HTTPStatus: http.StatusForbidden,
	}

	// ErrTfaRequired: credencial primaria correcta, challenge MFA pendiente.
	ErrTfaRequired = &AppError{
		Code:       "TFA_REQUIRED",
		Message:    "Two-factor verification required",
		HTTPStatus: http.StatusUnauthorized,
	}

	// ErrMisconfiguredSettings: falta una fila de settings requerida.
	// Es un error de deployment (seed faltante), clase startup-fatal.
	ErrMisconfiguredSettings = &AppError{
		Code:       "MISCONFIGURED_SETTINGS",
		Message:    "Required application setting is missing. Perhaps you forgot to run the seed?",
		HTTPStatus: http.StatusInternalServerError,
	}

	// ErrBadRequest: sintaxis inválida o parámetros faltantes.
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "The request contains invalid syntax or missing parameters",
		HTTPStatus: http.StatusBadRequest,
	}

	// ErrPasswordMismatch: confirmación de password no coincide.
	ErrPasswordMismatch = &AppError{
		Code:       "PASSWORD_MISMATCH",
		Message:    "Passwords do not match",
		HTTPStatus: http.StatusBadRequest,
	}

	// ErrEmailTaken: ya existe una cuenta con ese email.
	ErrEmailTaken = &AppError{
		Code:       "EMAIL_TAKEN",
		Message:    "Email/Username already registered",
		HTTPStatus: http.StatusBadRequest,
	}

	// ErrInternal: cualquier error inesperado. Sin detalle hacia afuera.
	ErrInternal = &AppError{
		Code:       "INTERNAL",
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
	}
)
