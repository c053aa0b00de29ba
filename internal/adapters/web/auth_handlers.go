package web

import (
	"errors"
	"net/http"

	"github.com/ulisescolosimo/scraping-alquileres/internal/adapters/session"
	"github.com/ulisescolosimo/scraping-alquileres/internal/contextkeys"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port/usecases_port"
)

const (
	msgInvalidCredentials = "Credenciales incorrectas. Por favor, verifica tu correo y contraseña."
	msgSignInFailed       = "Hubo un problema al iniciar sesión. Intenta nuevamente."
)

const (
	pathHome       = "/"
	pathLogin      = "/login"
	pathProperties = "/properties"
)

type authFormView struct {
	Email string
	Error string
}

type AuthHandler struct {
	signInUC  usecases_port.SignInUseCasePort
	signUpUC  usecases_port.SignUpUseCasePort
	signOutUC usecases_port.SignOutUseCasePort
	store     *session.CookieStore
	views     *Views
}

func NewAuthHandler(signInUC usecases_port.SignInUseCasePort,
	signUpUC usecases_port.SignUpUseCasePort,
	signOutUC usecases_port.SignOutUseCasePort,
	store *session.CookieStore,
	views *Views) *AuthHandler {
	return &AuthHandler{
		signInUC:  signInUC,
		signUpUC:  signUpUC,
		signOutUC: signOutUC,
		store:     store,
		views:     views,
	}
}

func (h *AuthHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, page, title string, form authFormView) {
	err := h.views.Render(w, status, page, viewData{
		Title: title,
		User:  currentUser(r.Context()),
		Page:  form,
	})
	if err != nil {
		contextkeys.LoggerFromContext(r.Context()).Error("Failed to render page", err, port.Fields{"page": page})
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func readCredentials(r *http.Request) domain.Credentials {
	return domain.Credentials{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
}

// LoginForm handles GET /login.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, pageLogin, "Login", authFormView{})
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "Login"})

	if err := r.ParseForm(); err != nil {
		logger.Warn("Malformed login form", port.Fields{"error": err.Error()})
		h.renderForm(w, r, http.StatusBadRequest, pageLogin, "Login", authFormView{Error: msgSignInFailed})
		return
	}
	creds := readCredentials(r)
	b := browserSessionFromContext(r.Context())

	var saveErr error
	authSession, err := h.signInUC.Execute(r.Context(), b.ID, creds, func(s domain.Session) error {
		b.Auth = s
		if saveErr = h.store.Save(w, r, b); saveErr != nil {
			b.Auth = domain.Session{}
		}
		return saveErr
	})
	if saveErr != nil {
		logger.Error("Failed to save session cookie", saveErr, nil)
		h.renderForm(w, r, http.StatusInternalServerError, pageLogin, "Login", authFormView{Email: creds.Email, Error: msgSignInFailed})
		return
	}
	if err != nil {
		form := authFormView{Email: creds.Email}
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrInvalidInput):
			form.Error = msgInvalidCredentials
			status = http.StatusUnauthorized
		default:
			logger.Error("Sign in failed", err, nil)
			form.Error = msgSignInFailed
		}
		h.renderForm(w, r, status, pageLogin, "Login", form)
		return
	}

	logger.Info("User signed in", port.Fields{"user_id": authSession.User.ID})
	http.Redirect(w, r, pathProperties, http.StatusSeeOther)
}

// RegisterForm handles GET /register. Signed-in users go straight to the listing.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if currentUser(r.Context()) != nil {
		http.Redirect(w, r, pathProperties, http.StatusFound)
		return
	}
	h.renderForm(w, r, http.StatusOK, pageRegister, "Register", authFormView{})
}

// Register handles POST /register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "Register"})

	if err := r.ParseForm(); err != nil {
		logger.Warn("Malformed register form", port.Fields{"error": err.Error()})
		h.renderForm(w, r, http.StatusBadRequest, pageRegister, "Register", authFormView{Error: err.Error()})
		return
	}
	creds := readCredentials(r)

	user, err := h.signUpUC.Execute(r.Context(), creds)
	if err != nil {
		logger.Warn("Registration failed", port.Fields{"error": err.Error()})
		h.renderForm(w, r, http.StatusBadRequest, pageRegister, "Register", authFormView{
			Email: creds.Email,
			Error: domain.CauseMessage(err),
		})
		return
	}

	logger.Info("User registered", port.Fields{"user_id": user.ID})
	http.Redirect(w, r, pathLogin, http.StatusSeeOther)
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "Logout"})
	b := browserSessionFromContext(r.Context())

	if err := h.signOutUC.Execute(r.Context(), b.ID, b.Auth); err != nil {
		logger.Error("Sign out use case failed", err, nil)
	}
	if err := h.store.ClearAuth(w, r, b); err != nil {
		logger.Error("Failed to clear session cookie", err, nil)
	}

	http.Redirect(w, r, pathHome, http.StatusSeeOther)
}
