package request

// CreateProfile is the request body for registering a profile.
type CreateProfile struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
	Password    string `json:"password" validate:"required,min=12,max=128"`
	Role        string `json:"role" validate:"omitempty,oneof=viewer analyst admin"`
}

// SetRole is the request body for changing a profile's role.
type SetRole struct {
	Role string `json:"role" validate:"required,oneof=viewer analyst admin"`
}
