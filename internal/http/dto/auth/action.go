package auth

// ActionResponse is the generic response for side-effect endpoints.
type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
