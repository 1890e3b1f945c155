package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"

	"github.com/arawak/devboard/internal/config"
	"github.com/arawak/devboard/internal/media"
	"github.com/arawak/devboard/internal/metrics"
	"github.com/arawak/devboard/internal/session"
	"github.com/arawak/devboard/internal/store"
	"github.com/arawak/devboard/internal/swaggerui"
)

// Store is the persistence the handlers need; *store.Store satisfies it.
type Store interface {
	Ping(ctx context.Context) error
	CreateUser(ctx context.Context, email, passwordHash string, role store.Role) (*store.User, error)
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
	GetProfile(ctx context.Context, userID string) (*store.Profile, error)
	ListDevelopers(ctx context.Context) ([]store.Profile, error)
	UpdateDeveloperProfile(ctx context.Context, userID string, in store.DeveloperProfileInput) (*store.Profile, error)
	UpdateEmployerProfile(ctx context.Context, userID string, in store.EmployerProfileInput) (*store.Profile, error)
	SetAvatarURL(ctx context.Context, userID, url string) (*store.Profile, error)
	SetResumeURL(ctx context.Context, userID, url string) (*store.Profile, error)
	CreateJob(ctx context.Context, ownerID string, in store.JobInput) (*store.Job, error)
	GetJob(ctx context.Context, id string) (*store.Job, error)
	ListJobs(ctx context.Context) ([]store.Job, error)
	Apply(ctx context.Context, userID, jobID string) (*store.Application, error)
	HasApplied(ctx context.Context, userID, jobID string) (bool, error)
	ListApplicationsByUser(ctx context.Context, userID string) ([]store.DeveloperApplication, error)
	DecideApplication(ctx context.Context, employerID, applicationID string, decision store.ApplicationStatus) (*store.Application, error)
	RecordJobView(ctx context.Context, jobID string, viewerID *string) error
	ListEmployerJobs(ctx context.Context, ownerID string) ([]store.EmployerJob, error)
}

type Deps struct {
	Store   Store
	Uploads *media.Uploader
	Tokens  *session.Tokens
	APIKeys *APIKeyStore
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

type Server struct {
	cfg      *config.Config
	store    Store
	uploads  *media.Uploader
	tokens   *session.Tokens
	apiKeys  *APIKeyStore
	metrics  *metrics.Metrics
	logger   *slog.Logger
	validate *validator.Validate
}

var (
	openapiOnce sync.Once
	openapiData []byte
	openapiErr  error
)

func loadOpenAPI() ([]byte, error) {
	openapiOnce.Do(func() {
		path := filepath.Clean("openapi.yaml")
		openapiData, openapiErr = os.ReadFile(path)
	})
	return openapiData, openapiErr
}

func newServer(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	return &Server{
		cfg:      cfg,
		store:    deps.Store,
		uploads:  deps.Uploads,
		tokens:   deps.Tokens,
		apiKeys:  deps.APIKeys,
		metrics:  deps.Metrics,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	s := newServer(cfg, deps)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(observeMiddleware(s.logger, s.metrics))

	if len(cfg.CORSAllowedOrigins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept", "X-Api-Key"},
			AllowCredentials: true,
		})
		r.Use(c.Handler)
	}

	r.Get("/healthz", s.GetHealthz)
	r.Get("/readyz", s.GetReadyz)
	r.Get(cfg.OpenAPIPath, s.serveOpenAPI)
	r.Mount(cfg.SwaggerUIPath, swaggerui.Handler(cfg.OpenAPIPath, cfg.SwaggerUIPath))
	if s.metrics != nil {
		r.Method(http.MethodGet, cfg.MetricsPath, s.metrics.Handler())
	}
	if fs, ok := s.uploads.Storage().(*media.FSStorage); ok {
		r.Get("/media/*", s.serveMedia(fs))
	}

	r.Post("/api/auth/signup", s.Signup)
	r.Post("/api/auth/login", s.Login)
	r.Post("/api/auth/logout", s.Logout)

	// browsing jobs and developer pages does not require a session
	r.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware(false))
		r.Get("/api/jobs", s.ListJobs)
		r.Get("/api/jobs/{id}", s.GetJob)
		r.Get("/api/developers/{id}", s.GetDeveloper)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware(true))
		r.Get("/api/session", s.GetSession)
		r.Get("/api/developers", s.ListDevelopers)
		r.Get("/api/profile", s.GetProfile)
		r.Put("/api/profile", s.UpdateProfile)
		r.Post("/api/profile/avatar", s.UploadAvatar)

		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(store.RoleDeveloper))
			r.Post("/api/profile/resume", s.UploadResume)
			r.Post("/api/jobs/{id}/applications", s.ApplyToJob)
			r.Get("/api/applications", s.ListMyApplications)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(store.RoleEmployer))
			r.Post("/api/jobs", s.CreateJob)
			r.Get("/api/employer/jobs", s.ListEmployerJobs)
			r.Post("/api/applications/{id}/decision", s.DecideApplication)
		})
	})

	return r
}

func (s *Server) serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	data, err := loadOpenAPI()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "unable to load openapi.yaml", map[string]any{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) GetHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Health{Status: Ok})
}

func (s *Server) GetReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_ready", "database unreachable", map[string]any{"error": err.Error()})
		return
	}
	if err := s.uploads.Storage().Check(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_ready", "storage not writable", map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, Health{Status: Ok})
}

func (s *Server) serveMedia(fs *media.FSStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := path.Clean("/" + chi.URLParam(r, "*"))
		if key == "/" || strings.HasPrefix(path.Base(key), ".") {
			writeError(w, http.StatusNotFound, "not_found", "file not found", nil)
			return
		}
		file, err := os.Open(filepath.Join(fs.Root(), filepath.FromSlash(key)))
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found", "file not found", nil)
			return
		}
		defer file.Close()
		info, err := file.Stat()
		if err != nil || info.IsDir() {
			writeError(w, http.StatusNotFound, "not_found", "file not found", nil)
			return
		}
		w.Header().Set("Content-Type", media.ContentTypeForKey(key))
		w.Header().Set("Cache-Control", "public, max-age=300")
		http.ServeContent(w, r, info.Name(), info.ModTime(), file)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	e := Error{Code: code, Message: message}
	if len(details) > 0 {
		e.Details = &details
	}
	writeJSON(w, status, e)
}

// writeStoreError maps store sentinels onto HTTP statuses.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error, what string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", what+" not found", nil)
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, "duplicate", what+" already exists", nil)
	case errors.Is(err, store.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "not allowed to modify this "+what, nil)
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.Is(err, store.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
	default:
		s.logger.Error("store failure", "what", what, "error", err, "request_id", middleware.GetReqID(r.Context()))
		writeError(w, http.StatusInternalServerError, "internal", "failed to load "+what, nil)
	}
}

// decodeJSON reads a JSON body into dst and runs struct validation on it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json", map[string]any{"error": err.Error()})
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]any, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			writeError(w, http.StatusBadRequest, "validation_failed", "request failed validation", fields)
			return false
		}
		writeError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return false
	}
	return true
}

func pathID(r *http.Request) (string, error) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", fmt.Errorf("invalid format for parameter id: %w", err)
	}
	return id, nil
}

type listingParams struct {
	Query string
	Tag   string
}

func bindListingParams(r *http.Request) (listingParams, error) {
	var q, tag *string
	if err := runtime.BindQueryParameter("form", true, false, "q", r.URL.Query(), &q); err != nil {
		return listingParams{}, fmt.Errorf("invalid format for parameter q: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "tag", r.URL.Query(), &tag); err != nil {
		return listingParams{}, fmt.Errorf("invalid format for parameter tag: %w", err)
	}
	return listingParams{Query: getStringPtr(q), Tag: getStringPtr(tag)}, nil
}

func observeMiddleware(logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			elapsed := time.Since(start)

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveRequest(r.Method, route, status, elapsed)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration", elapsed.String(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func getStringPtr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
