// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/blango/internal/broker"
	"github.com/olegiv/blango/internal/cache"
	"github.com/olegiv/blango/internal/config"
	"github.com/olegiv/blango/internal/geoip"
	"github.com/olegiv/blango/internal/handler"
	"github.com/olegiv/blango/internal/handler/api"
	"github.com/olegiv/blango/internal/logging"
	"github.com/olegiv/blango/internal/metrics"
	"github.com/olegiv/blango/internal/middleware"
	"github.com/olegiv/blango/internal/render"
	"github.com/olegiv/blango/internal/scheduler"
	"github.com/olegiv/blango/internal/service"
	"github.com/olegiv/blango/internal/session"
	"github.com/olegiv/blango/internal/storage"
	"github.com/olegiv/blango/internal/store"
	"github.com/olegiv/blango/internal/version"
	"github.com/olegiv/blango/web"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Blango - a small blog engine\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLANGO_SESSION_SECRET      Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLANGO_DB_PATH             SQLite database path (default: ./data/blango.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLANGO_SERVER_PORT         Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLANGO_ENV                 Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLANGO_STORAGE             Upload storage: disk|s3 (default: disk)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLANGO_REDIS_URL           Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLANGO_KAFKA_BROKERS       Kafka brokers for domain events (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLANGO_REQUIRE_ACTIVATION  Create new accounts inactive (default: false)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		info := version.Get()
		_, _ = fmt.Printf("blango %s (commit: %s, built: %s)\n", info.Version, info.GitCommit, info.BuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	versionInfo := version.Get()

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// WARN and ERROR records also go to the event log table from here on.
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if err := store.Seed(ctx, db, store.SeedOptions{
		Enabled:       cfg.DoSeed,
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	}); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	cacheTTL := time.Duration(cfg.CacheTTL) * time.Second
	appCache := cache.New(cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      cacheTTL,
		MaxEntries:      cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	})
	defer func() { _ = appCache.Close() }()

	uploads, mediaDir, err := newStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	var publisher broker.Publisher = broker.NewLogPublisher(logger)
	if cfg.UseKafka() {
		publisher = broker.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		slog.Info("domain events published to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	if cfg.WebhookURL != "" {
		publisher = broker.Multi{publisher, broker.NewWebhookPublisher(cfg.WebhookURL, cfg.WebhookSecret, logger)}
		slog.Info("domain events posted to webhook", "url", cfg.WebhookURL)
	}
	defer func() { _ = publisher.Close() }()

	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		slog.Warn("geoip lookups disabled", "error", err)
		geo, _ = geoip.Open("")
	}
	defer func() { _ = geo.Close() }()
	var geoReloader scheduler.Reloader
	if geo.Enabled() {
		geoReloader = geo
		slog.Info("geoip database loaded", "path", cfg.GeoIPDBPath)
	}

	m := metrics.New()

	// Services
	eventService := service.NewEventService(db)
	siteConfig := service.NewSiteConfigService(db, appCache)
	widgets := service.NewWidgetService(db, appCache, siteConfig, cacheTTL)
	media := service.NewMediaService(uploads)
	posts := service.NewPostService(db, media, widgets, publisher, m)
	comments := service.NewCommentService(db, siteConfig, publisher, m)
	search := service.NewSearchService(db)
	accounts := service.NewAccountService(db, siteConfig, eventService, publisher, m, service.AccountOptions{
		RequireActivation: cfg.RequireActivation,
		SiteURL:           cfg.SiteURL,
	})
	profiles := service.NewProfileService(db, media, widgets)
	taxonomy := service.NewTaxonomyService(db, widgets)
	stats := service.NewStatsService(db, m)
	sitemap := service.NewSitemapService(db, appCache, cfg.SiteURL, time.Hour)

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		MediaURL:       media.URL,
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	slog.Info("template renderer initialized")

	sched := scheduler.New(scheduler.Deps{
		Posts:    posts,
		Stats:    stats,
		Accounts: accounts,
		Events:   eventService,
		GeoIP:    geoReloader,
	}, scheduler.Options{
		EventRetention: time.Duration(cfg.EventRetentionDays) * 24 * time.Hour,
	}, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(m.Middleware)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(chimw.RedirectSlashes)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))

	csrfConfig := middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.SiteURL, cfg.IsDevelopment())
	csrfMiddleware := middleware.CSRF(csrfConfig)
	slog.Info("CSRF protection initialized", "trusted_origins", csrfConfig.TrustedOrigins)

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer loginProtection.Close()

	publicRateLimiter := middleware.NewRateLimiter(10.0, 20)
	apiRateLimiter := middleware.NewRateLimiter(5.0, 10)

	// Handlers
	blogHandler := handler.NewBlogHandler(renderer, posts, comments, widgets, search, cfg.SiteURL, cfg.PostsPerPage)
	authHandler := handler.NewAuthHandler(renderer, sessionManager, accounts, eventService, loginProtection)
	authoringHandler := handler.NewAuthoringHandler(renderer, posts, cfg.Location())
	profileHandler := handler.NewProfileHandler(renderer, profiles)
	adminHandler := handler.NewAdminHandler(renderer, stats, eventService)
	taxonomyHandler := handler.NewTaxonomyHandler(renderer, taxonomy, eventService)
	commentsHandler := handler.NewCommentsHandler(renderer, comments, eventService)
	configHandler := handler.NewConfigHandler(renderer, siteConfig, eventService)
	eventsHandler := handler.NewEventsHandler(renderer, eventService)
	cacheHandler := handler.NewCacheHandler(renderer, appCache, eventService)
	healthHandler := handler.NewHealthHandler(db, mediaDir, versionInfo.String())
	seoHandler := handler.NewSEOHandler(sitemap, cfg.SiteURL, cfg.DisallowRobots)
	apiHandler := api.NewHandler(posts, taxonomy, appCache, cacheTTL)

	// Probes and metrics need no session.
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)
	r.Handle("/metrics", m.Handler())

	r.With(apiRateLimiter.Middleware()).Mount("/api/v1", apiHandler.Routes(cfg.CORSOrigins))
	slog.Info("REST API v1 mounted at /api/v1")

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	r.Handle("/static/*", middleware.StaticCache(365*24*time.Hour, true)(
		http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))))
	if mediaDir != "" {
		r.Handle(storage.MediaURLPrefix+"*", middleware.StaticCache(7*24*time.Hour, false)(
			http.StripPrefix(storage.MediaURLPrefix, http.FileServer(http.Dir(mediaDir)))))
	}

	r.Group(func(r chi.Router) {
		r.Use(sessionManager.LoadAndSave)
		r.Use(middleware.LoadUser(sessionManager, db))
		r.Use(middleware.RequestInfo(geo))
		r.Use(middleware.LoadSiteSettings(siteConfig))
		r.Use(csrfMiddleware)

		r.Get("/health", healthHandler.Health)
		r.Get("/sitemap.xml", seoHandler.Sitemap)
		r.Get("/robots.txt", seoHandler.Robots)

		// Public blog
		r.Get("/", blogHandler.Index)
		r.Get("/post/{slug}", blogHandler.PostDetail)
		r.Post("/post/{slug}", blogHandler.AddComment)
		r.Get("/category/{id}", blogHandler.CategoryPosts)
		r.Get("/tag/{id}", blogHandler.TagPosts)
		r.Get("/results", blogHandler.Search)

		// Accounts
		r.Group(func(r chi.Router) {
			r.Use(publicRateLimiter.HTMLMiddleware())
			r.Get("/accounts/register", authHandler.RegisterForm)
			r.Post("/accounts/register", authHandler.Register)
			r.Get(handler.RouteRegistrationComplete, authHandler.RegistrationComplete)
			r.Get("/accounts/activate/{key}", authHandler.Activate)
			r.Get(middleware.LoginPath, authHandler.LoginForm)
			r.With(loginProtection.Middleware()).Post(middleware.LoginPath, authHandler.Login)
			r.Get("/accounts/logout", authHandler.Logout)
			r.Post("/accounts/logout", authHandler.Logout)
			r.Get("/accounts/custom_logout", authHandler.Logout)
			r.Post("/accounts/custom_logout", authHandler.Logout)
		})

		// Signed-in users
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Get("/accounts/password_change", authHandler.PasswordChangeForm)
			r.Post("/accounts/password_change", authHandler.PasswordChange)
			r.Get(handler.RouteProfile, profileHandler.Profile)
			r.Get("/accounts/profile/edit", profileHandler.EditProfileForm)
			r.Post("/accounts/profile/edit", profileHandler.EditProfile)
			r.Get("/accounts/profile/create_post", authoringHandler.CreatePostForm)
			r.Post("/accounts/profile/create_post", authoringHandler.CreatePost)
			r.Get("/edit_post/{id}", authoringHandler.EditPostForm)
			r.Post("/edit_post/{id}", authoringHandler.EditPost)
			r.Post("/edit_post/{id}/delete", authoringHandler.DeletePost)
			r.Post("/summernote/upload", authoringHandler.EditorUpload)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(eventService))

			r.Get("/", adminHandler.Dashboard)
			r.Get("/events", eventsHandler.List)

			r.Get("/categories", taxonomyHandler.ListCategories)
			r.Post("/categories", taxonomyHandler.CreateCategory)
			r.Post("/categories/{id}", taxonomyHandler.UpdateCategory)
			r.Post("/categories/{id}/delete", taxonomyHandler.DeleteCategory)

			r.Get("/tags", taxonomyHandler.ListTags)
			r.Post("/tags", taxonomyHandler.CreateTag)
			r.Post("/tags/{id}", taxonomyHandler.UpdateTag)
			r.Post("/tags/{id}/delete", taxonomyHandler.DeleteTag)

			r.Get("/comments", commentsHandler.List)
			r.Post("/comments/{id}/delete", commentsHandler.Delete)

			r.Get("/config", configHandler.List)
			r.Post("/config", configHandler.Update)

			r.Get("/cache", cacheHandler.Stats)
			r.Post("/cache/clear", cacheHandler.Clear)
			r.Post("/cache/clear/widgets", cacheHandler.ClearWidgets)
			r.Post("/cache/clear/sitemap", cacheHandler.ClearSitemap)
			r.Post("/cache/reset-stats", cacheHandler.ResetStats)
		})

		r.NotFound(renderer.NotFound)
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // uploads over slow connections
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// newStorage returns the upload backend and, for disk storage, the
// directory served under /media/.
func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, string, error) {
	if cfg.UseS3Storage() {
		s3, err := storage.NewS3(ctx, storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, "", err
		}
		slog.Info("uploads stored in bucket", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
		return s3, "", nil
	}

	disk, err := storage.NewDisk(cfg.UploadsDir)
	if err != nil {
		return nil, "", err
	}
	slog.Info("uploads stored on disk", "dir", disk.Root())
	return disk, disk.Root(), nil
}
