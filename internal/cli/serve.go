package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/cinehub/backoffice/internal/activity"
	"github.com/cinehub/backoffice/internal/api"
	"github.com/cinehub/backoffice/internal/api/middleware"
	"github.com/cinehub/backoffice/internal/auth"
	"github.com/cinehub/backoffice/internal/config"
	"github.com/cinehub/backoffice/internal/db"
	"github.com/cinehub/backoffice/internal/ffmpeg"
	"github.com/cinehub/backoffice/internal/job"
	"github.com/cinehub/backoffice/internal/movies"
	"github.com/cinehub/backoffice/internal/notify"
	"github.com/cinehub/backoffice/internal/scheduler"
	"github.com/cinehub/backoffice/internal/storage"
	"github.com/cinehub/backoffice/internal/subtitle/translate"
	"github.com/cinehub/backoffice/internal/upload"
	"github.com/cinehub/backoffice/internal/workbench"
)

const (
	tokenTTL        = 24 * time.Hour
	shutdownTimeout = 15 * time.Second
	activityQueue   = 256
)

func newServeCommand(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := os.MkdirAll(cfg.DataPath, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another backoffice instance is already running")
	}
	defer lock.Unlock()

	database, err := db.NewSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer database.Close()

	created, err := database.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	if created {
		log.Printf("Admin user created: %s", cfg.AdminUsername)
	}

	activities := activity.NewLogger(database, activityQueue)
	defer activities.Close()

	translatorFiles, err := storage.NewStore(cfg.TranslatorUploadPath(), "/uploads/translator")
	if err != nil {
		return err
	}
	movieFiles, err := storage.NewStore(cfg.MovieUploadPath(), "/uploads/movies")
	if err != nil {
		return err
	}

	translator := translate.NewService(cfg.TranslationEngine,
		translate.WithEngine(translate.NewMockTranslator(cfg.TranslationDelay())))
	gateway := upload.NewGateway(translatorFiles,
		upload.WithMaxMovieSize(cfg.MaxMovieSize),
		upload.WithActivity(activities))
	tracker := job.NewTracker(database.DB())

	workbenches := workbench.NewManager(workbench.Config{
		Uploader:   gateway,
		Translator: translator,
		Jobs:       tracker,
		Activity:   activities,
	})
	defer workbenches.Close()

	movieService := movies.NewService(database, movieFiles,
		movies.WithProber(ffmpeg.Prober{}),
		movies.WithActivity(activities),
		movies.WithMaxVideoSize(cfg.MaxMovieSize))

	limiter := middleware.NewRateLimiter(cfg.LoginRateLimit, time.Minute)

	sched, err := scheduler.New(scheduler.Config{
		Sessions:          workbenches,
		SessionIdle:       cfg.SessionIdle(),
		Activities:        database,
		ActivityRetention: cfg.ActivityRetention(),
		Limiter:           limiter,
	})
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	sched.Start()

	router := api.NewRouter(api.Deps{
		DB:           database,
		JWT:          auth.NewJWTService(cfg.JWTSecret, tokenTTL),
		Activity:     activities,
		Gateway:      gateway,
		Translator:   translator,
		Workbenches:  workbenches,
		Movies:       movieService,
		Notes:        notify.NewNoteStore(database),
		Jobs:         tracker,
		Uploads:      translatorFiles,
		MovieFiles:   movieFiles,
		LoginLimiter: limiter,
		CORSOrigins:  cfg.CORSOrigins,
		UploadPath:   cfg.UploadPath,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", srv.Addr)
		log.Printf("Data path: %s", cfg.DataPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Println("Shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	sched.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	return nil
}
