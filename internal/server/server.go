package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/punchcard/internal/backup"
	"github.com/dukerupert/punchcard/internal/config"
	"github.com/dukerupert/punchcard/internal/handler"
	"github.com/dukerupert/punchcard/internal/middleware"
	"github.com/dukerupert/punchcard/internal/push"
	"github.com/dukerupert/punchcard/internal/store"
	"github.com/dukerupert/punchcard/internal/timer"
	ws "github.com/dukerupert/punchcard/internal/websocket"
)

type Server struct {
	db     *sql.DB
	hub    *ws.Hub
	logger *slog.Logger

	authH         *handler.AuthHandler
	timerH        *handler.TimerHandler
	timesheetH    *handler.TimesheetHandler
	adminH        *handler.AdminHandler
	notificationH *handler.NotificationHandler
	settingsH     *handler.SettingsHandler
	pushH         *handler.PushHandler
	backupH       *handler.BackupHandler

	authSessions  *store.AuthSessionStore
	userStore     *store.UserStore
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	timesheetStore := store.NewTimesheetStore(db)
	sessionStore := store.NewSessionStore(db)
	authSessionStore := store.NewAuthSessionStore(db)
	notificationStore := store.NewNotificationStore(db)
	settingsStore := store.NewSettingsStore(db)
	pushStore := store.NewPushStore(db)
	backupStore := store.NewBackupStore(db)

	timerSvc := timer.NewService(db)

	var pushSvc *push.Service
	var pushH *handler.PushHandler
	if cfg.PushEnabled() {
		pushSvc = push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.PushSubscriber, pushStore, logger.With("component", "push"))
		pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler"))
	}

	backupMgr := backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.BackupS3Endpoint,
			Bucket:    cfg.BackupS3Bucket,
			Region:    cfg.BackupS3Region,
			AccessKey: cfg.BackupS3AccessKey,
			SecretKey: cfg.BackupS3SecretKey,
		},
		DBPath:     cfg.DBPath,
		Passphrase: cfg.BackupPassphrase,
		Interval:   time.Duration(cfg.BackupIntervalHrs) * time.Hour,
	}, db, backupStore, logger.With("component", "backup"))

	return &Server{
		db:            db,
		hub:           hub,
		logger:        logger,
		authH:         handler.NewAuthHandler(userStore, authSessionStore, logger.With("component", "auth")),
		timerH:        handler.NewTimerHandler(timerSvc, sessionStore, hub, logger.With("component", "timer")),
		timesheetH:    handler.NewTimesheetHandler(timesheetStore, sessionStore, logger.With("component", "timesheet")),
		adminH:        handler.NewAdminHandler(timerSvc, userStore, sessionStore, notificationStore, settingsStore, hub, pushSvc, logger.With("component", "admin")),
		notificationH: handler.NewNotificationHandler(notificationStore, logger.With("component", "notification")),
		settingsH:     handler.NewSettingsHandler(settingsStore, logger.With("component", "settings")),
		pushH:         pushH,
		backupH:       handler.NewBackupHandler(backupMgr, backupStore, logger.With("component", "backup_handler")),
		authSessions:  authSessionStore,
		userStore:     userStore,
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
	}
}

// AuthSessionStore returns the login session store for cleanup tasks.
func (s *Server) AuthSessionStore() *store.AuthSessionStore {
	return s.authSessions
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager so main can run its schedule.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	loginLimit := middleware.RateLimit(s.rateLimiter, 10, time.Minute)
	outerMux.Handle("POST /api/register", loginLimit(http.HandlerFunc(s.authH.Register)))
	outerMux.Handle("POST /api/login", loginLimit(http.HandlerFunc(s.authH.Login)))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Everything else requires a session cookie
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.authSessions, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/user", s.authH.CurrentUser)

	// Timer
	mux.HandleFunc("POST /api/timer/start", s.timerH.Start)
	mux.HandleFunc("POST /api/timer/stop", s.timerH.Stop)
	mux.HandleFunc("GET /api/timer/status", s.timerH.Status)

	// Timesheet
	mux.HandleFunc("GET /api/timesheet", s.timesheetH.Get)

	// Notifications
	mux.HandleFunc("GET /api/notifications", s.notificationH.List)
	mux.HandleFunc("PUT /api/notifications/{id}/read", s.notificationH.MarkRead)

	// Company settings: read for everyone, write for staff
	mux.HandleFunc("GET /api/settings", s.settingsH.Get)
	mux.Handle("PUT /api/settings", middleware.RequireStaff(http.HandlerFunc(s.settingsH.Update)))

	// Staff-only admin surface
	staff := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireStaff(h)
	}
	mux.Handle("GET /api/admin/users", staff(s.adminH.ListUsers))
	mux.Handle("GET /api/admin/stats", staff(s.adminH.Stats))
	mux.Handle("GET /api/admin/user/{id}/sessions", staff(s.adminH.UserSessions))
	mux.Handle("POST /api/admin/session", staff(s.adminH.CreateSession))
	mux.Handle("PUT /api/admin/session/{id}", staff(s.adminH.UpdateSession))
	mux.Handle("DELETE /api/admin/session/{id}", staff(s.adminH.DeleteSession))
	mux.Handle("GET /api/admin/backups", staff(s.backupH.List))
	mux.Handle("POST /api/admin/backups/run", staff(s.backupH.Run))

	// Push subscriptions, only when VAPID keys are configured
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	}

	// Live sync
	mux.HandleFunc("GET /ws", ws.Handle(s.hub, s.logger.With("component", "websocket")))
}
