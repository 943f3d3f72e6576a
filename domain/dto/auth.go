package dto

import "time"

type RegisterRequest struct {
	Name              string `json:"name" validate:"required,min=1,max=100"`
	Email             string `json:"email" validate:"required,email,max=255"`
	Password          string `json:"password" validate:"required,min=8,max=72"`
	PreferredLanguage string `json:"preferredLanguage" validate:"omitempty,oneof=en de fr"`
	Timezone          string `json:"timezone" validate:"omitempty,max=64"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=1"`
	// Remember ขอ token อายุยาว และไม่ revoke session อื่น
	Remember bool `json:"remember"`
}

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

type LogoutResponse struct {
	Message string `json:"message"`
}
