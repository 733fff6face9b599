package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/erp-portal/portal/internal/apiclient"
	"github.com/erp-portal/portal/internal/shared"
	"github.com/erp-portal/portal/internal/tokens"
	"github.com/erp-portal/portal/internal/view"
)

// Handler wires HTTP endpoints for authentication and company onboarding.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	pages          *view.Responder
	sessionManager *shared.SessionManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, pages *view.Responder, sessions *shared.SessionManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		pages:          pages,
		sessionManager: sessions,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router. guest wraps the pages
// that signed-in users should skip.
func (h *Handler) MountRoutes(r chi.Router, guest func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(guest)
		r.Get("/login", h.showLogin)
		r.Post("/login", h.handleLogin)
		r.Get("/register", h.showRegister)
		r.Post("/register", h.handleRegister)
	})
	r.Post("/logout", h.handleLogout)
}

// MountOnboarding registers the company selection routes.
func (h *Handler) MountOnboarding(r chi.Router) {
	r.Get("/", h.showOnboarding)
	r.Post("/companies", h.createCompany)
	r.Post("/select/{id}", h.selectCompany)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type registerForm struct {
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=8"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

type formPageData struct {
	Form   any
	Errors map[string]string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, r, view.Page{Template: "pages/auth/login.html", Title: "Sign in", Data: formPageData{Form: loginForm{}}})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := loginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	errs := h.validate(form)
	if len(errs) == 0 {
		sess := tokens.FromContext(r.Context())
		err := h.service.Login(r.Context(), sess, Credentials{Email: form.Email, Password: form.Password})
		if err == nil {
			h.pages.RedirectWithFlash(w, r, Landing(sess), "success", "Welcome back")
			return
		}
		h.logger.Warn("login failed", slog.String("email", form.Email), slog.Any("error", err))
		errs["general"] = apiclient.Message(err, "Login failed. Please check your credentials.")
	}
	form.Password = ""
	h.pages.Render(w, r, view.Page{
		Template: "pages/auth/login.html",
		Title:    "Sign in",
		Data:     formPageData{Form: form, Errors: errs},
		Status:   http.StatusBadRequest,
	})
}

func (h *Handler) showRegister(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, r, view.Page{Template: "pages/auth/register.html", Title: "Create account", Data: formPageData{Form: registerForm{}}})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := registerForm{
		Email:           strings.TrimSpace(r.PostFormValue("email")),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	errs := h.validate(form)
	if len(errs) == 0 {
		sess := tokens.FromContext(r.Context())
		err := h.service.Register(r.Context(), sess, Credentials{Email: form.Email, Password: form.Password})
		if err == nil {
			h.pages.RedirectWithFlash(w, r, OnboardingPath, "success", "Account created. Set up your company to continue.")
			return
		}
		h.logger.Warn("register failed", slog.String("email", form.Email), slog.Any("error", err))
		errs["general"] = apiclient.Message(err, "Registration failed. Please try again.")
	}
	form.Password, form.ConfirmPassword = "", ""
	h.pages.Render(w, r, view.Page{
		Template: "pages/auth/register.html",
		Title:    "Create account",
		Data:     formPageData{Form: form, Errors: errs},
		Status:   http.StatusBadRequest,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), tokens.FromContext(r.Context())); err != nil {
		h.logger.Warn("logout", slog.Any("error", err))
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil && h.sessionManager != nil {
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, view.LoginPath, http.StatusSeeOther)
}

type onboardingData struct {
	Companies []Company
	Form      CompanyInput
	Errors    map[string]string
}

func (h *Handler) showOnboarding(w http.ResponseWriter, r *http.Request) {
	h.renderOnboarding(w, r, CompanyInput{}, nil, http.StatusOK)
}

func (h *Handler) renderOnboarding(w http.ResponseWriter, r *http.Request, form CompanyInput, errs map[string]string, status int) {
	companies, err := h.service.Companies(r.Context(), tokens.FromContext(r.Context()))
	toast := ""
	if err != nil {
		if h.pages.Expired(w, r, err) {
			return
		}
		toast = h.pages.Upstream("list companies", err, "Failed to load companies")
	}
	h.pages.Render(w, r, view.Page{
		Template: "pages/onboarding.html",
		Title:    "Choose a company",
		Data:     onboardingData{Companies: companies, Form: form, Errors: errs},
		Status:   status,
		Toast:    toast,
	})
}

func (h *Handler) createCompany(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := CompanyInput{
		Name:        strings.TrimSpace(r.PostFormValue("name")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
	}
	if errs := h.validate(form); len(errs) > 0 {
		h.renderOnboarding(w, r, form, errs, http.StatusUnprocessableEntity)
		return
	}
	company, err := h.service.CreateCompany(r.Context(), tokens.FromContext(r.Context()), form)
	if err != nil {
		if h.pages.Expired(w, r, err) {
			return
		}
		h.logger.Error("create company", slog.Any("error", err))
		h.renderOnboarding(w, r, form, map[string]string{"general": apiclient.Message(err, "Failed to create company")}, http.StatusBadRequest)
		return
	}
	h.pages.RedirectWithFlash(w, r, DashboardPath, "success", "Welcome to "+company.Name)
}

func (h *Handler) selectCompany(w http.ResponseWriter, r *http.Request) {
	err := h.service.SelectCompany(r.Context(), tokens.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		if h.pages.Expired(w, r, err) {
			return
		}
		h.pages.RedirectWithFlash(w, r, OnboardingPath, "error", h.pages.Upstream("select company", err, "Failed to select company"))
		return
	}
	http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
}

func (h *Handler) validate(form any) map[string]string {
	errs := make(map[string]string)
	err := h.validator.Struct(form)
	if err == nil {
		return errs
	}
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		errs["general"] = err.Error()
		return errs
	}
	for _, fieldErr := range invalid {
		errs[fieldErr.Field()] = fieldMessage(fieldErr)
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Enter a valid email address"
	case "min":
		return "Must be at least " + fe.Param() + " characters"
	case "eqfield":
		return "Passwords do not match"
	default:
		return "Invalid value"
	}
}
