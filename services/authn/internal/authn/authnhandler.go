package authn

import (
	"errors"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/web"
)

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token,omitempty"`
}

type AuthHandler struct {
	service *Service
	issuer  *auth.TokenIssuer
	logger  apt.Logger
	tlm     *telemetry.HTTP
}

func NewAuthHandler(service *Service, issuer *auth.TokenIssuer, logger apt.Logger) *AuthHandler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &AuthHandler{
		service: service,
		issuer:  issuer,
		logger:  logger,
		tlm:     telemetry.NewHTTP(),
	}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/authn", func(r chi.Router) {
		r.Post("/signup", h.SignUp)
		r.Post("/signin", h.SignIn)
		r.Post("/signout", h.SignOut)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate(h.issuer), auth.RequireAuth)
			r.Get("/me", h.Me)
			r.Put("/me", h.UpdateMe)
		})
	})
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "AuthHandler.SignUp")
	defer finish()

	log := h.log(r)

	var req SignUpInput
	if !web.Decode(w, r, &req) {
		return
	}

	user, err := h.service.SignUp(r.Context(), req)
	if err != nil {
		respondServiceError(w, log, err, "Could not create account")
		return
	}

	log.Info("user signed up", "user_id", user.ID)
	web.RespondCreated(w, AuthResponse{User: user})
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "AuthHandler.SignIn")
	defer finish()

	log := h.log(r)

	var req SignInRequest
	if !web.Decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		apt.RespondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, token, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			log.Debug("invalid credentials")
			apt.RespondError(w, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, ErrInactiveAccount):
			log.Debug("user not active")
			apt.RespondError(w, http.StatusForbidden, "Account is not active")
		default:
			log.Error("error signing in", "error", err)
			apt.RespondError(w, http.StatusInternalServerError, "Authentication failed")
		}
		return
	}

	apt.RespondSuccess(w, AuthResponse{User: user, Token: token})
}

// SignOut is stateless, clients drop the token.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "AuthHandler.SignOut")
	defer finish()

	h.log(r).Debug("user signed out")
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "AuthHandler.Me")
	defer finish()

	p, _ := auth.PrincipalFrom(r.Context())
	user, err := h.service.Get(r.Context(), p.ID())
	if err != nil {
		respondServiceError(w, h.log(r), err, "Could not retrieve user")
		return
	}

	apt.RespondSuccess(w, user)
}

func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "AuthHandler.UpdateMe")
	defer finish()

	var req ProfileInput
	if !web.Decode(w, r, &req) {
		return
	}

	p, _ := auth.PrincipalFrom(r.Context())
	user, err := h.service.UpdateProfile(r.Context(), p.ID(), req)
	if err != nil {
		respondServiceError(w, h.log(r), err, "Could not update profile")
		return
	}

	apt.RespondSuccess(w, user)
}

func (h *AuthHandler) log(r *http.Request) apt.Logger {
	return h.logger.With(
		"request_id", apt.RequestIDFrom(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
}

func respondServiceError(w http.ResponseWriter, log apt.Logger, err error, fallback string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		log.Debug("validation failed", "errors", verr.Fields)
		apt.RespondError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, ErrUserExists):
		apt.RespondError(w, http.StatusBadRequest, "A user with this email already exists")
	case errors.Is(err, ErrInvalidRole):
		apt.RespondError(w, http.StatusBadRequest, "Invalid role")
	case errors.Is(err, ErrInvalidStatus):
		apt.RespondError(w, http.StatusBadRequest, "Invalid status")
	case errors.Is(err, ErrUserNotFound):
		apt.RespondError(w, http.StatusNotFound, "User not found")
	default:
		log.Error(fallback, "error", err)
		apt.RespondError(w, http.StatusInternalServerError, fallback)
	}
}
