package operations

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/enums/role"
	"github.com/appetiteclub/catering/pkg/event"
)

const DefaultCookieName = "catering_session"

type sessionKey struct{}

// DeliveryStream relays live delivery events to one browser.
type DeliveryStream interface {
	Stream(w http.ResponseWriter, r *http.Request, allow func(event.DeliveryEvent) bool)
}

type Deps struct {
	Backend  Backend
	Issuer   *auth.TokenIssuer
	Sessions *SessionStore
	Audit    *AuditLogger
	Renderer *Renderer
	Stream   DeliveryStream
	Logger   apt.Logger

	CookieName   string
	SecureCookie bool
}

type Handler struct {
	backend  Backend
	issuer   *auth.TokenIssuer
	sessions *SessionStore
	audit    *AuditLogger
	renderer *Renderer
	stream   DeliveryStream
	logger   apt.Logger
	tlm      *telemetry.HTTP

	cookieName   string
	secureCookie bool
}

func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	cookieName := deps.CookieName
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	audit := deps.Audit
	if audit == nil {
		audit = NewAuditLogger(nil, logger)
	}
	return &Handler{
		backend:      deps.Backend,
		issuer:       deps.Issuer,
		sessions:     deps.Sessions,
		audit:        audit,
		renderer:     deps.Renderer,
		stream:       deps.Stream,
		logger:       logger,
		tlm:          telemetry.NewHTTP(),
		cookieName:   cookieName,
		secureCookie: deps.SecureCookie,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/signin", h.ShowSignIn)
	r.Post("/signin", h.SignIn)
	r.Post("/signout", h.SignOut)

	r.Group(func(r chi.Router) {
		r.Use(h.SessionMiddleware)

		r.Get("/", h.Home)
		for _, area := range Areas {
			r.Get(area.Path, h.AreaDashboard(area))
		}
		r.Get("/admin/audit", h.Audit)
		r.Get("/stream/deliveries", h.StreamDeliveries)
	})
}

func (h *Handler) ShowSignIn(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "OperationsHandler.ShowSignIn")
	defer finish()

	if s, ok := h.currentSession(r); ok {
		if home := HomePath(s.Role()); home != "" {
			http.Redirect(w, r, home, http.StatusSeeOther)
			return
		}
	}
	h.render(w, r, http.StatusOK, PageSignIn, PageData{Title: "Sign in"})
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "OperationsHandler.SignIn")
	defer finish()

	log := h.log(r)

	fail := func(status int, email, message, reason string) {
		h.audit.LogSignInFailed(r.Context(), email, reason, clientAddr(r))
		h.render(w, r, status, PageSignIn, PageData{Title: "Sign in", Email: email, Error: message})
	}

	if err := r.ParseForm(); err != nil {
		log.Debug("cannot parse signin form", "error", err)
		fail(http.StatusBadRequest, "", "Could not read the form, please try again.", "malformed form")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	if email == "" || password == "" {
		fail(http.StatusBadRequest, email, "Email and password are required.", "missing credentials")
		return
	}

	result, err := h.backend.SignIn(r.Context(), email, password)
	if err != nil {
		switch {
		case IsStatus(err, http.StatusUnauthorized):
			fail(http.StatusUnauthorized, email, "Invalid email or password.", "invalid credentials")
		case IsStatus(err, http.StatusForbidden):
			fail(http.StatusForbidden, email, "This account is not active.", "inactive account")
		default:
			log.Error("authn signin failed", "error", err)
			fail(http.StatusBadGateway, email, "Authentication is unavailable, please try again later.", "authn unavailable")
		}
		return
	}

	claims, err := h.issuer.Parse(result.Token)
	if err != nil {
		log.Error("authn issued an unreadable token", "error", err)
		fail(http.StatusBadGateway, email, "Authentication is unavailable, please try again later.", "invalid token")
		return
	}

	p := auth.Principal{
		UserID:     claims.Sub,
		Role:       claims.Role,
		Email:      claims.Email,
		Name:       claims.Name,
		Department: claims.Dept,
	}
	if p.Name == "" {
		p.Name = result.User.Name()
	}

	home := HomePath(p.Role)
	if home == "" {
		fail(http.StatusForbidden, email, "Your role has no console access.", "role without console")
		return
	}

	var expiry time.Time
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}
	session := h.sessions.Create(uuid.NewString(), result.Token, p, expiry)

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		Expires:  session.ExpiresAt,
	})

	h.audit.LogSignIn(r.Context(), p, clientAddr(r))
	http.Redirect(w, r, home, http.StatusSeeOther)
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "OperationsHandler.SignOut")
	defer finish()

	if s, ok := h.currentSession(r); ok {
		h.sessions.Delete(s.ID)
		h.audit.LogSignOut(r.Context(), s.Principal, clientAddr(r))
	}
	h.clearCookie(w)
	http.Redirect(w, r, "/signin", http.StatusSeeOther)
}

// SessionMiddleware sends anonymous browsers to the sign-in page.
func (h *Handler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := h.currentSession(r)
		if !ok {
			h.clearCookie(w)
			http.Redirect(w, r, "/signin", http.StatusSeeOther)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, s)
		ctx = auth.WithPrincipal(ctx, s.Principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "OperationsHandler.Home")
	defer finish()

	s := sessionFrom(r.Context())
	home := HomePath(s.Role())
	if home == "" {
		h.render(w, r, http.StatusForbidden, PageError, PageData{
			Title:   "No dashboard",
			Session: s,
			Error:   "Your role has no dashboard.",
		})
		return
	}
	http.Redirect(w, r, home, http.StatusSeeOther)
}

// AreaDashboard renders the service dashboard of area for the session role.
func (h *Handler) AreaDashboard(area Area) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w, r, finish := h.tlm.Start(w, r, "OperationsHandler.Dashboard")
		defer finish()

		s := sessionFrom(r.Context())
		if target, ok := Guard(area, s.Role()); !ok {
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}

		src, ok := SourceFor(area, s.Role())
		if !ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		data := PageData{
			Title:   src.Title,
			Session: s,
			Nav:     navFor(s.Role(), area.Path),
			Area:    area.Name,
			Filters: filtersFrom(r),
			Stream:  area.Name == AreaDelivery.Name,
		}

		dashboard, err := h.backend.Fetch(r.Context(), src.Service, src.WithQuery(r.URL.Query()), s.Token)
		switch {
		case err == nil:
			data.View = BuildView(dashboard)
		case IsStatus(err, http.StatusUnauthorized):
			h.sessions.Delete(s.ID)
			h.clearCookie(w)
			http.Redirect(w, r, "/signin", http.StatusSeeOther)
			return
		case IsStatus(err, http.StatusForbidden):
			data.Error = "You are not allowed to see this dashboard."
		case IsStatus(err, http.StatusBadRequest):
			data.Error = "The filters are not valid."
		default:
			h.log(r).Error("cannot fetch dashboard", "service", src.Service, "path", src.Path, "error", err)
			data.Error = "The dashboard is unavailable, please try again later."
		}

		h.render(w, r, http.StatusOK, PageDashboard, data)
	}
}

// Audit lists the latest console sign-ins.
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "OperationsHandler.Audit")
	defer finish()

	s := sessionFrom(r.Context())
	if target, ok := Guard(AreaAdmin, s.Role()); !ok {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	data := PageData{Title: "Sign-ins", Session: s, Nav: navFor(s.Role(), "/admin/audit")}
	entries, err := h.audit.Recent(r.Context(), 100)
	if err != nil {
		h.log(r).Error("cannot list audit entries", "error", err)
		data.Error = "The audit log is unavailable."
		h.render(w, r, http.StatusInternalServerError, PageError, data)
		return
	}
	data.Entries = entries
	h.render(w, r, http.StatusOK, PageAudit, data)
}

// StreamDeliveries relays delivery changes. Drivers only receive their own deliveries.
func (h *Handler) StreamDeliveries(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r.Context())
	if !AreaDelivery.Allows(s.Role()) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if h.stream == nil {
		http.Error(w, "Delivery stream unavailable", http.StatusServiceUnavailable)
		return
	}

	var allow func(event.DeliveryEvent) bool
	if s.Role() == role.Roles.Driver.Name {
		driverID := s.Principal.UserID
		allow = func(e event.DeliveryEvent) bool { return e.DriverID == driverID }
	}
	h.stream.Stream(w, r, allow)
}

func (h *Handler) currentSession(r *http.Request) (*Session, bool) {
	cookie, err := r.Cookie(h.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	s, err := h.sessions.Get(cookie.Value)
	if err != nil {
		return nil, false
	}
	return s, true
}

func (h *Handler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		MaxAge:   -1,
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data PageData) {
	if data.Filters == nil {
		data.Filters = map[string]string{}
	}
	if err := h.renderer.Render(w, status, page, data); err != nil {
		h.log(r).Error("cannot render page", "page", page, "error", err)
	}
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With(
		"request_id", apt.RequestIDFrom(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
}

func sessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	if s == nil {
		return &Session{}
	}
	return s
}

func navFor(roleName, current string) []NavLink {
	var links []NavLink
	for _, area := range Areas {
		if !area.Allows(roleName) {
			continue
		}
		links = append(links, NavLink{Label: Label(area.Name), Path: area.Path, Active: area.Path == current})
	}
	if AreaAdmin.Allows(roleName) {
		links = append(links, NavLink{Label: "Sign-ins", Path: "/admin/audit", Active: current == "/admin/audit"})
	}
	return links
}

func filtersFrom(r *http.Request) map[string]string {
	filters := make(map[string]string, len(forwardedParams))
	for _, key := range forwardedParams {
		filters[key] = r.URL.Query().Get(key)
	}
	return filters
}

func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	return r.RemoteAddr
}
