package service

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/forteleaf/bill-and-pay-sub001/internal/auth"
	"github.com/forteleaf/bill-and-pay-sub001/internal/middleware"
)

// AuthService serves operator registration and login.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		logger:        logger,
	}
}

type credentialsRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	Password    string `json:"password"`
}

type operatorResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Token       string `json:"token,omitempty"`
}

// Register creates a new operator account and returns a session token.
func (s *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, webhookResponse{Status: "error", Message: "invalid request body"})
		return
	}
	if req.Email == "" || req.DisplayName == "" {
		writeJSON(w, http.StatusBadRequest, webhookResponse{Status: "error", Message: "email and display_name required"})
		return
	}

	operator, err := s.authenticator.Register(r.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		s.logger.Error("registration failed", "email", req.Email, "error", err)
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			writeJSON(w, http.StatusConflict, webhookResponse{Status: "error", Message: err.Error()})
		case errors.Is(err, auth.ErrWeakPassword):
			writeJSON(w, http.StatusBadRequest, webhookResponse{Status: "error", Message: err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, webhookResponse{Status: "error", Message: "registration failed"})
		}
		return
	}

	token, err := s.jwtManager.Generate(operator)
	if err != nil {
		s.logger.Error("failed to generate token", "operator_id", operator.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, webhookResponse{Status: "error", Message: "registration failed"})
		return
	}

	s.logger.Info("operator registered", "operator_id", operator.ID, "email", operator.Email)
	writeJSON(w, http.StatusCreated, operatorResponse{
		ID:          operator.ID,
		Email:       operator.Email,
		DisplayName: operator.DisplayName,
		Token:       token,
	})
}

// Login authenticates an operator and returns a session token.
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, webhookResponse{Status: "error", Message: "invalid request body"})
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, webhookResponse{Status: "error", Message: "email and password required"})
		return
	}

	operator, err := s.authenticator.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.logger.Warn("login failed", "email", req.Email, "error", err)
		writeJSON(w, http.StatusUnauthorized, webhookResponse{Status: "error", Message: auth.ErrInvalidCredentials.Error()})
		return
	}

	token, err := s.jwtManager.Generate(operator)
	if err != nil {
		s.logger.Error("failed to generate token", "operator_id", operator.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, webhookResponse{Status: "error", Message: "login failed"})
		return
	}

	s.logger.Info("operator logged in", "operator_id", operator.ID, "email", operator.Email)
	writeJSON(w, http.StatusOK, operatorResponse{
		ID:          operator.ID,
		Email:       operator.Email,
		DisplayName: operator.DisplayName,
		Token:       token,
	})
}

// CurrentOperator returns the authenticated operator from the token claims.
func (s *AuthService) CurrentOperator(w http.ResponseWriter, r *http.Request) {
	operatorID := middleware.GetOperatorID(r.Context())
	if operatorID == "" {
		writeJSON(w, http.StatusUnauthorized, webhookResponse{Status: "error", Message: auth.ErrMissingToken.Error()})
		return
	}

	writeJSON(w, http.StatusOK, operatorResponse{
		ID:    operatorID,
		Email: middleware.GetEmail(r.Context()),
	})
}
