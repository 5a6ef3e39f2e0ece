package handler

import (
	"net/http"

	"shared-notes-server/internal/middleware"
	"shared-notes-server/internal/ratelimit"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth       *AuthHandler
	User       *UserHandler
	Note       *NoteHandler
	Version    *VersionHandler
	Permission *PermissionHandler
	Conflict   *ConflictHandler
	Folder     *FolderHandler
}

type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
	// Limiter is optional. When nil no rate limiting is applied.
	Limiter ratelimit.Limiter
}

func NewRouter(h Handlers, cfg RouterConfig, log *zap.SugaredLogger) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins, cfg.AllowedMethods, cfg.AllowedHeaders))

	r.HandleFunc("/health", healthHandler).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	public := api.PathPrefix("/auth").Subrouter()
	if cfg.Limiter != nil {
		public.Use(middleware.RateLimitMiddleware(cfg.Limiter, log))
	}
	public.HandleFunc("/register", h.Auth.Register).Methods("POST", "OPTIONS")
	public.HandleFunc("/login", h.Auth.Login).Methods("POST", "OPTIONS")
	public.HandleFunc("/refresh", h.Auth.Refresh).Methods("POST", "OPTIONS")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	if cfg.Limiter != nil {
		protected.Use(middleware.RateLimitMiddleware(cfg.Limiter, log))
	}

	protected.HandleFunc("/users/me", h.User.GetMe).Methods("GET", "OPTIONS")
	protected.HandleFunc("/users/me/preferences", h.User.GetPreferences).Methods("GET", "OPTIONS")
	protected.HandleFunc("/users/me/preferences", h.User.UpdatePreferences).Methods("PUT", "OPTIONS")

	protected.HandleFunc("/folders", h.Folder.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/folders", h.Folder.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/folders/{id:[0-9]+}", h.Folder.Delete).Methods("DELETE", "OPTIONS")
	protected.HandleFunc("/folders/{id:[0-9]+}/notes", h.Note.ListByFolder).Methods("GET", "OPTIONS")

	protected.HandleFunc("/notes", h.Note.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/notes", h.Note.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/notes/stats", h.Note.Stats).Methods("GET", "OPTIONS")
	protected.HandleFunc("/notes/shared", h.Permission.SharedWithMe).Methods("GET", "OPTIONS")
	protected.HandleFunc("/notes/{id:[0-9]+}", h.Note.Get).Methods("GET", "OPTIONS")
	protected.HandleFunc("/notes/{id:[0-9]+}", h.Note.Update).Methods("PUT", "OPTIONS")
	protected.HandleFunc("/notes/{id:[0-9]+}", h.Note.Delete).Methods("DELETE", "OPTIONS")
	protected.HandleFunc("/notes/{id:[0-9]+}/folder", h.Note.Move).Methods("PUT", "OPTIONS")
	protected.HandleFunc("/notes/{id:[0-9]+}/copy", h.Note.Copy).Methods("POST", "OPTIONS")

	protected.HandleFunc("/notes/{id:[0-9]+}/versions", h.Version.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/notes/{id:[0-9]+}/versions/count", h.Version.Count).Methods("GET", "OPTIONS")
	protected.HandleFunc("/notes/{id:[0-9]+}/versions/prune", h.Version.Prune).Methods("POST", "OPTIONS")
	protected.HandleFunc("/notes/{id:[0-9]+}/versions/{version:[0-9]+}", h.Version.Get).Methods("GET", "OPTIONS")
	protected.HandleFunc("/notes/{id:[0-9]+}/versions/{version:[0-9]+}/restore", h.Version.Restore).Methods("POST", "OPTIONS")

	protected.HandleFunc("/notes/{id:[0-9]+}/share", h.Permission.Share).Methods("POST", "OPTIONS")
	protected.HandleFunc("/notes/{id:[0-9]+}/permissions", h.Permission.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/notes/{id:[0-9]+}/permissions/{userId:[0-9]+}", h.Permission.Update).Methods("PUT", "OPTIONS")
	protected.HandleFunc("/notes/{id:[0-9]+}/permissions/{userId:[0-9]+}", h.Permission.Revoke).Methods("DELETE", "OPTIONS")
	protected.HandleFunc("/notes/{id:[0-9]+}/leave", h.Permission.Leave).Methods("DELETE", "OPTIONS")

	protected.HandleFunc("/notes/{id:[0-9]+}/conflicts", h.Conflict.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/notes/{id:[0-9]+}/conflicts/active", h.Conflict.Active).Methods("GET", "OPTIONS")
	protected.HandleFunc("/notes/{id:[0-9]+}/conflicts/detect", h.Conflict.Detect).Methods("POST", "OPTIONS")
	protected.HandleFunc("/notes/{id:[0-9]+}/resolve", h.Conflict.Resolve).Methods("POST", "OPTIONS")

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"shared-notes-server"}`))
}
