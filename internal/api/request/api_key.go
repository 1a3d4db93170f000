package request

// CreateAPIKey is the request body for creating an API key.
type CreateAPIKey struct {
	Name string `json:"name" validate:"required,max=100"`
	Role string `json:"role" validate:"required,oneof=viewer analyst admin"`
}
