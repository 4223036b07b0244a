package http

import (
	"encoding/json"
	"net/http"

	"flaretrack/internal/infrastructure/auth"
	"flaretrack/pkg/errors"
	"flaretrack/pkg/middleware"
	"flaretrack/pkg/response"
)

// HTTPAuthController handles registration and login
type HTTPAuthController struct {
	authService *auth.Service
}

// NewHTTPAuthController creates a new HTTP auth controller
func NewHTTPAuthController(authService *auth.Service) *HTTPAuthController {
	return &HTTPAuthController{
		authService: authService,
	}
}

// Register handles POST /auth/register
func (c *HTTPAuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name,omitempty"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.HandleError(w, r, errors.NewValidationError("Invalid JSON format"))
		return
	}

	userID, err := c.authService.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	response.SendCreated(w, r, map[string]interface{}{
		"user_id": userID,
	})
}

// Login handles POST /auth/login
func (c *HTTPAuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.HandleError(w, r, errors.NewValidationError("Invalid JSON format"))
		return
	}

	token, err := c.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	response.SendSuccess(w, r, map[string]interface{}{
		"token": token,
	})
}
