package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/cinehub/backoffice/internal/activity"
	"github.com/cinehub/backoffice/internal/api/handlers"
	"github.com/cinehub/backoffice/internal/api/middleware"
	"github.com/cinehub/backoffice/internal/auth"
	"github.com/cinehub/backoffice/internal/db"
	"github.com/cinehub/backoffice/internal/db/models"
	"github.com/cinehub/backoffice/internal/job"
	"github.com/cinehub/backoffice/internal/movies"
	"github.com/cinehub/backoffice/internal/notify"
	"github.com/cinehub/backoffice/internal/storage"
	"github.com/cinehub/backoffice/internal/subtitle/translate"
	"github.com/cinehub/backoffice/internal/upload"
	"github.com/cinehub/backoffice/internal/workbench"
)

// jsonBodyLimit caps non-upload request bodies.
const jsonBodyLimit = 1 << 20

// Deps are the services the HTTP layer is built from.
type Deps struct {
	DB           *db.Database
	JWT          *auth.JWTService
	Activity     activity.Recorder
	Gateway      *upload.Gateway
	Translator   *translate.Service
	Workbenches  *workbench.Manager
	Movies       *movies.Service
	Notes        *notify.NoteStore
	Jobs         *job.Tracker
	Uploads      *storage.Store
	MovieFiles   *storage.Store
	LoginLimiter *middleware.RateLimiter
	CORSOrigins  []string
	UploadPath   string
}

func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)

	// Handlers
	maxUpload := d.Gateway.MaxMovieSize() + 1<<20
	authHandler := handlers.NewAuthHandler(d.DB, d.JWT)
	adminHandler := handlers.NewAdminHandler(d.DB, d.Activity, d.Workbenches, d.UploadPath)
	translatorHandler := handlers.NewTranslatorHandler(d.Gateway, d.Translator, d.Activity)
	workbenchHandler := handlers.NewWorkbenchHandler(d.Workbenches, maxUpload)
	movieHandler := handlers.NewMovieHandler(d.Movies, maxUpload)
	noteHandler := handlers.NewNoteHandler(d.Notes, d.Activity)
	jobHandler := handlers.NewJobHandler(d.Jobs)
	filesHandler := handlers.NewFilesHandler(d.Uploads, map[string]*storage.Store{
		"translator": d.Uploads,
		"movies":     d.MovieFiles,
	})

	apiCORS := middleware.CORS(d.CORSOrigins)

	r.Route("/api", func(r chi.Router) {
		r.Use(apiCORS)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
		r.With(d.LoginLimiter.Handler, middleware.MaxBodySize(jsonBodyLimit)).Post("/auth/login", authHandler.Login)
		r.With(middleware.AuthMiddleware(d.JWT)).Get("/auth/me", authHandler.Me)
	})

	// Uploaded files are only visible to signed-in users. CORS runs first so
	// preflight requests, which carry no token, are answered.
	r.Route("/uploads", func(r chi.Router) {
		r.Use(middleware.FileCORS(d.CORSOrigins))
		r.Use(middleware.AuthMiddleware(d.JWT))
		r.Get("/*", filesHandler.Serve)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(apiCORS)
		r.Use(middleware.AuthMiddleware(d.JWT))
		r.Use(middleware.RequireRole(models.RoleAdmin))

		// Multipart uploads enforce their own limits
		r.Post("/uploadMovieFile", translatorHandler.UploadMovieFile)
		r.Post("/uploadSubtitleFile", translatorHandler.UploadSubtitleFile)
		r.Post("/workbench/movie", workbenchHandler.UploadMovie)
		r.Post("/workbench/subtitle", workbenchHandler.UploadSubtitle)
		r.Post("/movies", movieHandler.Create)
		r.Put("/movies/{id}", movieHandler.Update)

		// Subtitle text bodies are bounded by the handlers
		r.Post("/translateSubtitle", translatorHandler.TranslateSubtitle)
		r.Put("/workbench/original", workbenchHandler.EditOriginal)
		r.Put("/workbench/translated", workbenchHandler.EditTranslated)

		r.Group(func(r chi.Router) {
			r.Use(middleware.MaxBodySize(jsonBodyLimit))

			// Users
			r.Get("/users", adminHandler.ListUsers)
			r.Post("/users", adminHandler.CreateUser)
			r.Get("/users/{id}", adminHandler.GetUser)
			r.Put("/users/{id}", adminHandler.UpdateUser)
			r.Delete("/users/{id}", adminHandler.DeleteUser)
			r.Get("/users/{id}/activities", adminHandler.GetUserActivities)

			// Analytics
			r.Get("/analytics", adminHandler.Analytics)

			// Translator panel
			r.Get("/translator", translatorHandler.Index)
			r.Get("/translator/uploads", filesHandler.ListUploads)

			// Notes
			r.Get("/translatorNote", noteHandler.Get)
			r.Post("/saveTranslatorNote", noteHandler.Save)
			r.Delete("/translatorNote", noteHandler.Clear)

			// Workbench
			r.Get("/workbench", workbenchHandler.State)
			r.Put("/workbench/languages", workbenchHandler.SetLanguages)
			r.Post("/workbench/swap", workbenchHandler.Swap)
			r.Post("/workbench/translate", workbenchHandler.StartTranslation)
			r.Delete("/workbench/translate", workbenchHandler.CancelTranslation)
			r.Post("/workbench/format", workbenchHandler.Format)
			r.Post("/workbench/clear", workbenchHandler.Clear)
			r.Get("/workbench/download", workbenchHandler.Download)
			r.Get("/workbench/notifications", workbenchHandler.Notifications)

			// Jobs
			r.Get("/translator/jobs", jobHandler.ListJobs)
			r.Get("/translator/jobs/{id}", jobHandler.GetJob)

			// Movies
			r.Get("/movies", movieHandler.List)
			r.Get("/movies/{id}", movieHandler.Get)
			r.Delete("/movies/{id}", movieHandler.Delete)
		})
	})

	return r
}
