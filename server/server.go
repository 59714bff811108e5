// Package server exposes the web UI: login/signup, the generation form,
// export, and the prior-session sidebar. All state beyond the store lives
// in per-user session objects held in memory; identity travels in a JWT
// cookie.
package server

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"eduquiz/generator"
	"eduquiz/session"
	"eduquiz/store"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pages = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

type Server struct {
	ctrl      *session.Controller
	secret    []byte
	outputDir string
	log       *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session.Session
}

func New(ctrl *session.Controller, authSecret, outputDir string, log *slog.Logger) (*Server, error) {
	if ctrl == nil {
		return nil, errors.New("session controller required")
	}
	if authSecret == "" {
		return nil, errors.New("auth secret required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		ctrl:      ctrl,
		secret:    []byte(authSecret),
		outputDir: outputDir,
		log:       log,
		sessions:  make(map[string]*session.Session),
	}, nil
}

// Routes assembles the router. Everything except login and signup sits
// behind requireAuth.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logMiddleware)
	r.Use(s.authMiddleware)

	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Get("/signup", s.handleSignupPage)
	r.Post("/signup", s.handleSignup)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", s.handleDashboard)
		r.Post("/generate", s.handleGenerate)
		r.Post("/export", s.handleExport)
		r.Get("/sessions/{id}", s.handleLoadSession)
		r.Post("/logout", s.handleLogout)
		r.Handle("/outputs/*", http.StripPrefix("/outputs/",
			http.FileServer(http.Dir(s.outputDir))))
	})

	return r
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}

// sessionFor returns the live session for email, resuming an empty one
// when the auth cookie outlived the in-memory state.
func (s *Server) sessionFor(email string) *session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[email]; ok {
		return sess
	}
	sess := s.ctrl.Resume(email)
	s.sessions[email] = sess
	return sess
}

func (s *Server) dropSession(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, email)
}

// --- Auth pages ---

type authPage struct {
	Error   string
	Message string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if identityFrom(r.Context()) != "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, "login.html", authPage{
		Error:   r.URL.Query().Get("err"),
		Message: r.URL.Query().Get("msg"),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	sess, err := s.ctrl.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			redirectWithError(w, r, "/login", "Invalid email or password")
			return
		}
		s.internalError(w, r, "/login", err)
		return
	}

	token, err := generateToken(s.secret, email)
	if err != nil {
		s.internalError(w, r, "/login", err)
		return
	}
	setTokenCookie(w, token)

	s.mu.Lock()
	s.sessions[email] = sess
	s.mu.Unlock()

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, "signup.html", authPage{
		Error:   r.URL.Query().Get("err"),
		Message: r.URL.Query().Get("msg"),
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	err := s.ctrl.Signup(r.Context(), email, password)
	switch {
	case err == nil:
		redirectWithMessage(w, r, "/login", "Account created. Please login.")
	case errors.Is(err, store.ErrEmailTaken):
		redirectWithError(w, r, "/signup", "User already exists")
	case errors.Is(err, session.ErrValidation):
		redirectWithError(w, r, "/signup", userMessage(err))
	default:
		s.internalError(w, r, "/signup", err)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	email := identityFrom(r.Context())
	s.sessionFor(email).Logout()
	s.dropSession(email)
	clearTokenCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// --- Dashboard ---

type dashboardPage struct {
	Owner      string
	Topic      string
	Count      int
	Level      generator.Level
	Levels     []generator.Level
	MCQHTML    template.HTML
	HasOutput  bool
	History    []store.HistoryEntry
	Error      string
	Message    string
	MaxCount   int
	DefaultNum int
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	email := identityFrom(r.Context())
	sess := s.sessionFor(email)
	state := sess.State()

	history, err := sess.History(r.Context())

	page := dashboardPage{
		Owner:      email,
		Topic:      state.Topic,
		Count:      state.Count,
		Level:      state.Level,
		Levels:     generator.Levels,
		History:    history,
		Error:      r.URL.Query().Get("err"),
		Message:    r.URL.Query().Get("msg"),
		MaxCount:   session.MaxQuestions,
		DefaultNum: 5,
	}
	if err != nil {
		s.log.Error("listing history failed", "owner", email, "err", err)
		page.Error = "Could not load history"
	}
	if page.Count == 0 {
		page.Count = page.DefaultNum
	}
	if state.MCQText != "" {
		page.MCQHTML = renderMCQ(state.MCQText)
		page.HasOutput = true
	}
	s.render(w, "dashboard.html", page)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	email := identityFrom(r.Context())
	sess := s.sessionFor(email)

	count, err := strconv.Atoi(r.FormValue("count"))
	if err != nil {
		redirectWithError(w, r, "/", "Question count must be a number")
		return
	}
	topic := r.FormValue("topic")
	level := generator.Level(r.FormValue("level"))

	if err := sess.Generate(r.Context(), topic, count, level); err != nil {
		if errors.Is(err, session.ErrValidation) {
			redirectWithError(w, r, "/", userMessage(err))
			return
		}
		// Collaborator failure: recoverable, prior output is intact.
		redirectWithError(w, r, "/", "Generation failed: "+userMessage(err))
		return
	}
	redirectWithMessage(w, r, "/", "MCQs generated successfully!")
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	email := identityFrom(r.Context())
	sess := s.sessionFor(email)

	path, _, err := sess.ExportAndSave(r.Context())
	if err != nil {
		if errors.Is(err, session.ErrNothingToExport) {
			redirectWithError(w, r, "/", "Generate questions before exporting")
			return
		}
		redirectWithError(w, r, "/", "Export failed: "+userMessage(err))
		return
	}
	redirectWithMessage(w, r, "/", "PDF saved at "+path)
}

func (s *Server) handleLoadSession(w http.ResponseWriter, r *http.Request) {
	email := identityFrom(r.Context())
	sess := s.sessionFor(email)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		redirectWithError(w, r, "/", "Invalid session id")
		return
	}
	if err := sess.LoadSession(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			redirectWithError(w, r, "/", "Session not found")
			return
		}
		s.internalError(w, r, "/", err)
		return
	}
	redirectWithMessage(w, r, "/", "Previous session loaded")
}

// --- Helpers ---

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error("template render failed", "template", name, "err", err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, target string, err error) {
	s.log.Error("request failed", "path", r.URL.Path, "err", err)
	redirectWithError(w, r, target, "Something went wrong, please try again")
}

func redirectWithError(w http.ResponseWriter, r *http.Request, target, msg string) {
	http.Redirect(w, r, target+"?err="+url.QueryEscape(msg), http.StatusSeeOther)
}

func redirectWithMessage(w http.ResponseWriter, r *http.Request, target, msg string) {
	http.Redirect(w, r, target+"?msg="+url.QueryEscape(msg), http.StatusSeeOther)
}

// userMessage strips the wrapped sentinel prefix, keeping the part meant
// for the user.
func userMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []string{
		session.ErrValidation.Error() + ": ",
		"generation failed: ",
		"export failed: ",
	} {
		if len(msg) > len(sentinel) && msg[:len(sentinel)] == sentinel {
			msg = msg[len(sentinel):]
		}
	}
	return msg
}
