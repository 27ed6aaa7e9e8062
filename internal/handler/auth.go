package handler

import (
	"encoding/json"
	"net/http"

	"catalog-rest-api/internal/model"
	"catalog-rest-api/internal/repository"
	"catalog-rest-api/internal/service"
	"catalog-rest-api/pkg/apierror"
	"catalog-rest-api/pkg/response"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	tokenService *service.TokenService
	accountRepo  repository.AccountRepository
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(tokenService *service.TokenService, accountRepo repository.AccountRepository) *AuthHandler {
	return &AuthHandler{
		tokenService: tokenService,
		accountRepo:  accountRepo,
	}
}

// TokenRequest represents the request body for token generation.
type TokenRequest struct {
	APIKey   string `json:"api_key"`
	ClientID string `json:"client_id"`
}

// TokenResponse represents the response for token generation.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// GenerateToken handles POST /auth/token
func (h *AuthHandler) GenerateToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.APIKey == "" {
		response.Error(w, apierror.BadRequest("api_key is required"))
		return
	}
	if req.ClientID == "" {
		response.Error(w, apierror.BadRequest("client_id is required"))
		return
	}

	validation, err := h.accountRepo.ValidateCredentials(r.Context(), req.APIKey, req.ClientID)
	if err != nil {
		response.Error(w, apierror.Unauthorized(err.Error()))
		return
	}

	tokenData := model.TokenData{
		AccountID: validation.AccountID,
		ClientID:  validation.ClientID,
		Email:     validation.Email,
	}

	token, err := h.tokenService.GenerateToken(r.Context(), tokenData)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to generate token"))
		return
	}

	response.OK(w, TokenResponse{
		Token:     token,
		ExpiresIn: int(service.TokenTTL.Seconds()),
	})
}

// RevokeToken handles POST /auth/revoke
func (h *AuthHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.tokenService.RevokeToken(r.Context(), token); err != nil {
		response.Error(w, apierror.InternalError("failed to revoke token"))
		return
	}

	response.OK(w, map[string]string{"status": "revoked"})
}

// RefreshToken handles POST /auth/refresh
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.tokenService.RefreshToken(r.Context(), token); err != nil {
		response.Error(w, apierror.Unauthorized(err.Error()))
		return
	}

	response.OK(w, map[string]interface{}{
		"status":     "refreshed",
		"expires_in": int(service.TokenTTL.Seconds()),
	})
}
