package authn

import (
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/enums/role"
	"github.com/appetiteclub/catering/pkg/web"
)

// UserHandler serves admin user management and the internal lookups used by other services.
type UserHandler struct {
	service *Service
	issuer  *auth.TokenIssuer
	logger  apt.Logger
	tlm     *telemetry.HTTP
}

func NewUserHandler(service *Service, issuer *auth.TokenIssuer, logger apt.Logger) *UserHandler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &UserHandler{
		service: service,
		issuer:  issuer,
		logger:  logger,
		tlm:     telemetry.NewHTTP(),
	}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Use(auth.Authenticate(h.issuer), auth.RequireRoles(role.Roles.Admin.Name))
		r.Get("/", h.ListUsers)
		r.Post("/", h.CreateUser)
		r.Get("/{id}", h.GetUser)
		r.Put("/{id}", h.UpdateUser)
		r.Delete("/{id}", h.DeleteUser)
	})

	r.Route("/internal/users", func(r chi.Router) {
		r.Use(middleware.InternalOnly())
		r.Get("/", h.ListUsers)
		r.Get("/{id}", h.GetUser)
	})
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "UserHandler.CreateUser")
	defer finish()

	var req StaffInput
	if !web.Decode(w, r, &req) {
		return
	}

	p, _ := auth.PrincipalFrom(r.Context())
	user, err := h.service.CreateStaff(r.Context(), req, p.UserID)
	if err != nil {
		respondServiceError(w, h.log(r), err, "Could not create user")
		return
	}

	h.log(r).Info("staff user created", "user_id", user.ID, "role", user.Role)
	web.RespondCreated(w, user)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "UserHandler.GetUser")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.log(r), err, "Could not retrieve user")
		return
	}

	apt.RespondSuccess(w, user)
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "UserHandler.ListUsers")
	defer finish()

	q := r.URL.Query()
	filter := UserFilter{
		Role:   q.Get("role"),
		Status: q.Get("status"),
		Query:  q.Get("q"),
	}

	users, err := h.service.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.log(r), err, "Could not list users")
		return
	}

	apt.RespondCollection(w, users, "user")
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "UserHandler.UpdateUser")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}

	var req AdminUpdateInput
	if !web.Decode(w, r, &req) {
		return
	}

	p, _ := auth.PrincipalFrom(r.Context())
	user, err := h.service.AdminUpdate(r.Context(), id, req, p.UserID)
	if err != nil {
		respondServiceError(w, h.log(r), err, "Could not update user")
		return
	}

	apt.RespondSuccess(w, user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "UserHandler.DeleteUser")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.log(r), err, "Could not delete user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) log(r *http.Request) apt.Logger {
	return h.logger.With(
		"request_id", apt.RequestIDFrom(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
}
