package handler

import "github.com/usermanager/user-management/internal/core/domain"

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name"`
	City     string `json:"city"`
	Role     string `json:"role"     validate:"required,oneof=ADMIN USER"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type updateUserRequest struct {
	Email    string `json:"email"    validate:"omitempty,email"`
	Name     string `json:"name"`
	City     string `json:"city"`
	Role     string `json:"role"     validate:"omitempty,oneof=ADMIN USER"`
	Password string `json:"password"`
}

// Every response carries statusCode and message alongside its payload.

type messageResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

type userResponse struct {
	StatusCode int          `json:"statusCode"`
	Message    string       `json:"message"`
	User       *domain.User `json:"user"`
}

type usersResponse struct {
	StatusCode int            `json:"statusCode"`
	Message    string         `json:"message"`
	UsersList  []*domain.User `json:"usersList"`
}

type tokenResponse struct {
	StatusCode   int    `json:"statusCode"`
	Message      string `json:"message"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Role         string `json:"role"`
	ExpiresIn    string `json:"expiresIn"`
}

// errorResponse documents the envelope rendered by the API error handler.
type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}
