package auth

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/redmonkez12/teamtasks/internal/httputil"
	"github.com/redmonkez12/teamtasks/internal/logging"
	"github.com/redmonkez12/teamtasks/internal/ratelimit"
	"github.com/redmonkez12/teamtasks/internal/token"
	"github.com/redmonkez12/teamtasks/internal/user"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service     *Service
	rateLimiter *ratelimit.Limiter
	logger      *logging.Logger
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter, logger *logging.Logger) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// SignUpRequest represents the registration request body
type SignUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ErrorResponse represents an error response
type ErrorResponse = httputil.ErrorResponse

// TokenResponse is returned by sign-up and sign-in
type TokenResponse = token.Token

// UserResponse represents the current user in API responses
type UserResponse struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// MessageResponse carries a human readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// SignUp handles user registration
// @Summary      Register a new user
// @Description  Create a user with a credential and return an access token for it.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignUpRequest true "Registration data"
// @Success      200 {object} TokenResponse
// @Failure      400 {object} ErrorResponse "Invalid request, validation error or user already exists"
// @Failure      429 {object} ErrorResponse "Too many requests"
// @Failure      503 {object} ErrorResponse "Service unavailable"
// @Router       /auth/sign-up [post]
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.rateLimited(w, r, "sign-up") {
		return
	}

	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid sign-up request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	tok, err := h.service.Register(r.Context(), SignUpInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.handleServiceError(w, logger, "sign-up", err)
		return
	}

	logger.Info("user registered successfully")
	httputil.RespondJSON(w, tok, http.StatusOK)
}

// SignIn handles user login
// @Summary      User login
// @Description  Authenticate with an OAuth2 password form. The username field carries the email.
// @Tags         auth
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        username formData string true "Email"
// @Param        password formData string true "Password"
// @Success      200 {object} TokenResponse
// @Failure      400 {object} ErrorResponse "Malformed form"
// @Failure      401 {object} ErrorResponse "Incorrect password"
// @Failure      404 {object} ErrorResponse "User not found"
// @Failure      429 {object} ErrorResponse "Too many requests"
// @Failure      503 {object} ErrorResponse "Service unavailable"
// @Router       /auth/sign-in [post]
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.rateLimited(w, r, "sign-in") {
		return
	}

	if err := r.ParseForm(); err != nil {
		logger.Warn("invalid sign-in form", "error", err.Error())
		respondError(w, "invalid form", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	email := r.PostForm.Get("username")
	raw := r.PostForm.Get("password")
	if email == "" || raw == "" {
		logger.Warn("sign-in form missing username or password")
		respondError(w, "username and password are required", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": email})

	tok, err := h.service.Authenticate(r.Context(), email, raw)
	if err != nil {
		h.handleServiceError(w, logger, "sign-in", err)
		return
	}

	logger.Info("user signed in successfully")
	httputil.RespondJSON(w, tok, http.StatusOK)
}

// CurrentUser returns the identity carried by the bearer token
// @Summary      Current user
// @Description  Return the user snapshot embedded in the access token.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} UserResponse
// @Failure      400 {object} ErrorResponse "Cannot validate token"
// @Failure      401 {object} ErrorResponse "Not authenticated"
// @Router       /auth/user [get]
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := GetIdentityFromContext(r.Context())
	if !ok {
		httputil.RespondUnauthorized(w, "not authenticated", httputil.CodeMissingAuth)
		return
	}

	httputil.RespondJSON(w, UserResponse{
		Email:    identity.Email,
		Username: identity.Username,
	}, http.StatusOK)
}

// ConfirmEmail confirms an email address
// @Summary      Confirm email
// @Description  Mark the account owning the confirmation token as confirmed.
// @Tags         auth
// @Produce      json
// @Param        token query string true "Confirmation token"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse "Invalid or expired token"
// @Failure      503 {object} ErrorResponse "Service unavailable"
// @Router       /auth/confirm [get]
func (h *Handler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if err := h.service.ConfirmEmail(r.Context(), r.URL.Query().Get("token")); err != nil {
		h.handleServiceError(w, logger, "email confirmation", err)
		return
	}

	logger.Info("email confirmed")
	httputil.RespondJSON(w, MessageResponse{Message: "Email confirmed."}, http.StatusOK)
}

// rateLimited counts a request for purpose and writes 429 once the IP is over
// its limit. Limiter failures never block a request.
func (h *Handler) rateLimited(w http.ResponseWriter, r *http.Request, purpose string) bool {
	logger := logging.GetLoggerFromContext(r.Context())
	ip := getClientIP(r)

	allowed, err := h.rateLimiter.AllowIPRequestWithPurpose(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
		return false
	}
	if !allowed {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return true
	}

	return false
}

func (h *Handler) handleServiceError(w http.ResponseWriter, logger *logging.Logger, op string, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		logger.Warn(op+" failed: validation error", "error", err.Error())
		respondError(w, strings.TrimPrefix(err.Error(), ErrValidation.Error()+": "), httputil.CodeValidationFailed, http.StatusBadRequest)
	case errors.Is(err, user.ErrDuplicateUser):
		logger.Warn(op + " failed: user already exists")
		respondError(w, "User already exists", httputil.CodeUserAlreadyExists, http.StatusBadRequest)
	case errors.Is(err, ErrUserNotFound):
		logger.Warn(op + " failed: user not found")
		respondError(w, "User not found", httputil.CodeUserNotFound, http.StatusNotFound)
	case errors.Is(err, ErrIncorrectPassword):
		logger.Warn(op + " failed: incorrect password")
		respondError(w, "Incorrect password", httputil.CodeIncorrectPassword, http.StatusUnauthorized)
	case errors.Is(err, ErrInvalidCredentials):
		logger.Warn(op + " failed: invalid credentials")
		respondError(w, "Invalid email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
	case errors.Is(err, ErrInvalidConfirmationToken):
		logger.Warn(op + " failed: invalid confirmation token")
		respondError(w, "Invalid or expired confirmation token", httputil.CodeInvalidConfirmationToken, http.StatusBadRequest)
	case errors.Is(err, user.ErrStoreUnavailable):
		logger.Error(op+" failed: store unavailable", "error", err.Error())
		respondError(w, "Service Unavailable", httputil.CodeServiceUnavailable, http.StatusServiceUnavailable)
	default:
		logger.Error(op+" failed: internal error", "error", err.Error())
		respondError(w, "Something went wrong", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}

func respondError(w http.ResponseWriter, message, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}

// getClientIP extracts the client IP address from the request.
// chi's RealIP middleware has already applied X-Forwarded-For and X-Real-IP.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ConfirmationEnabled reports whether the confirmation route should be served
func (h *Handler) ConfirmationEnabled() bool {
	return h.service.ConfirmationEnabled()
}
