package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/course-portal/internal/handlers"
	"github.com/example/course-portal/internal/platform/auth"
	"github.com/example/course-portal/internal/platform/config"
	"github.com/example/course-portal/internal/platform/db"
	"github.com/example/course-portal/internal/platform/events"
	"github.com/example/course-portal/internal/platform/httpserver"
	"github.com/example/course-portal/internal/platform/logging"
	"github.com/example/course-portal/internal/platform/natsconn"
	"github.com/example/course-portal/internal/platform/run"
	"github.com/example/course-portal/internal/platform/signing"
	"github.com/example/course-portal/internal/store"
	"github.com/example/course-portal/internal/tokens"
	"github.com/example/course-portal/internal/worker"
)

type stores struct {
	users   store.UserStore
	catalog store.CatalogStore
	comment store.CommentStore
	uploads store.UploadStore
	subs    store.SubscriptionStore
	pool    *pgxpool.Pool
}

// initStores opens Postgres when DATABASE_URL is set and falls back to
// in-memory stores for local development. Production refuses to start
// without a database.
func initStores(cfg config.AppConfig, log *zap.Logger) (stores, func()) {
	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		if cfg.IsProduction() {
			log.Error("DATABASE_URL is required in production")
			run.Exit(1)
		}
		log.Warn("DATABASE_URL not set, using in-memory stores")
		return stores{
			users:   store.NewInMemoryUserStore(),
			catalog: store.NewInMemoryCatalogStore(),
			comment: store.NewInMemoryCommentStore(),
			uploads: store.NewInMemoryUploadStore(),
			subs:    store.NewInMemorySubscriptionStore(),
		}, nil
	}

	if err := db.Migrate(dsn); err != nil {
		log.Error("migrate", zap.Error(err))
		run.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := db.OpenURL(ctx, dsn)
	if err != nil {
		log.Error("db connect", zap.Error(err))
		run.Exit(1)
	}

	return stores{
		users:   store.NewPostgresUserStore(pool),
		catalog: store.NewPostgresCatalogStore(pool),
		comment: store.NewPostgresCommentStore(pool),
		uploads: store.NewPostgresUploadStore(pool),
		subs:    store.NewPostgresSubscriptionStore(pool),
		pool:    pool,
	}, pool.Close
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	st, closePool := initStores(cfg, log)
	if closePool != nil {
		defer closePool()
	}

	verifier := auth.JWTVerifier{Secret: []byte(cfg.Auth.JWTSecret)}
	tokenSvc := tokens.Service{
		Secret:          []byte(cfg.Auth.JWTSecret),
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 30 * 24 * time.Hour,
	}
	feedSigner := signing.New(cfg.Auth.FeedSecret)

	// NATS is optional: without it events go nowhere and the catalog cache
	// relies on TTL expiry alone.
	var nc *nats.Conn
	var pub *events.Publisher
	if strings.TrimSpace(os.Getenv("NATS_URL")) != "" {
		nc, err = natsconn.Connect(natsconn.Options{})
		if err != nil {
			log.Error("nats connect", zap.Error(err))
		} else if js, jsErr := nc.JetStream(); jsErr == nil {
			pub = events.New(js, log)
		}
	}

	cache := handlers.NewTTLCache(cfg.CacheTTLSeconds, nc, "portal.catalog.invalidate")

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		ReadyFunc: func() error {
			if st.pool == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return st.pool.Ping(ctx)
		},
	})

	// Auth
	r.Post("/v1/auth/register", handlers.Register(st.users, tokenSvc, pub))
	r.Post("/v1/auth/login", handlers.Login(st.users, tokenSvc, pub))
	r.Post("/v1/auth/refresh", handlers.Refresh(st.users, tokenSvc))

	// Catalog and calendars (public)
	r.Get("/v1/semesters", handlers.ListSemesters(st.catalog, cache))
	r.Get("/v1/semesters/current", handlers.CurrentSemester(st.catalog))
	r.Get("/v1/semesters/{semester_id}/courses", handlers.ListCourses(st.catalog, cache))
	r.Get("/v1/teachers", handlers.ListTeachers(st.catalog, cache))
	r.Get("/v1/teachers/{teacher_id}", handlers.GetTeacher(st.catalog))
	r.Get("/v1/courses/{course_id}/sections", handlers.ListSections(st.catalog))
	r.Get("/v1/sections/{section_id}", handlers.GetSection(st.catalog))
	r.Get("/v1/sections/{section_id}/calendar.ics", handlers.SectionCalendar(st.catalog))
	r.Get("/v1/users/{user_id}/calendar.ics", handlers.PersonalCalendar(st.catalog, st.subs, feedSigner))

	// Comment threads render per viewer, so the read is token-optional.
	r.Group(func(r chi.Router) {
		r.Use(auth.OptionalUser(verifier))
		r.Get("/v1/comments/{target_type}/{target_id}", handlers.GetThread(st.comment))
	})

	// Authenticated surface
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Get("/v1/me", handlers.Me(st.users))
		r.Get("/v1/me/calendar-url", handlers.FeedURL(feedSigner, cfg.PublicBaseURL))
		r.Get("/v1/me/subscriptions", handlers.ListSubscriptions(st.subs))
		r.Post("/v1/me/subscriptions", handlers.CreateSubscription(st.subs, st.catalog, pub))
		r.Delete("/v1/me/subscriptions/{section_id}", handlers.DeleteSubscription(st.subs, pub))

		r.Post("/v1/comments/{target_type}/{target_id}", handlers.CreateComment(st.comment, st.users, pub))
		r.Put("/v1/comments/{comment_id}", handlers.UpdateComment(st.comment, st.users))
		r.Delete("/v1/comments/{comment_id}", handlers.DeleteComment(st.comment))
		r.Post("/v1/comments/{comment_id}/reactions", handlers.AddReaction(st.comment, st.users))
		r.Delete("/v1/comments/{comment_id}/reactions/{type}", handlers.RemoveReaction(st.comment))

		r.Post("/v1/uploads", handlers.CreateUpload(st.uploads, st.users))
		r.Post("/v1/uploads/{upload_id}/complete", handlers.CompleteUpload(st.uploads))
		r.Get("/v1/uploads/{upload_id}", handlers.GetUpload(st.uploads))
	})

	// Admin surface
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Use(auth.RequireAdmin)
		r.Get("/v1/admin/comments", handlers.ModerationQueue(st.comment))
		r.Post("/v1/admin/comments/{comment_id}/status", handlers.SetCommentStatus(st.comment, pub))
		r.Get("/v1/admin/users", handlers.ListUsers(st.users))
		r.Post("/v1/admin/users/{user_id}/suspend", handlers.SuspendUser(st.users, pub))
		r.Delete("/v1/admin/suspensions/{suspension_id}", handlers.LiftSuspension(st.users))
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		if nc != nil {
			defer nc.Close()
			if st.pool != nil {
				worker.StartAuditConsumer(ctx, nc, st.pool, log)
			}
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}
