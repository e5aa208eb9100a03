package handler

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"webnotes/internal/cache"
	"webnotes/internal/config"
	"webnotes/internal/middleware"
	"webnotes/internal/note"
	"webnotes/internal/observability"
	"webnotes/internal/session"
	"webnotes/internal/user"
)

// SetupHandler initializes all dependencies and routes
func SetupHandler(db *sql.DB, rdb *redis.Client, cfg *config.Config) *gin.Engine {

	r := gin.Default()
	r.LoadHTMLGlob("templates/*.html")

	// Must be installed before any route is registered
	if observability.GlobalMetrics != nil {
		r.Use(middleware.PrometheusMiddleware(observability.GlobalMetrics))
		r.GET("/metrics", func(c *gin.Context) {
			promhttp.Handler().ServeHTTP(c.Writer, c.Request)
		})
	}

	// Shared redis-backed collaborators; both tolerate rdb == nil
	sessionManager := session.NewManager(rdb)
	sharedCache := cache.New(rdb)

	// Initialize repositories
	userRepo := user.NewUserRepository()
	noteRepo := note.NewNoteRepository()

	// Initialize services
	userService := user.NewUserService(userRepo, db, sharedCache, sessionManager)
	noteService := note.NewNoteService(noteRepo, db, sharedCache)

	// Initialize controllers
	userController := user.NewUserController(userService)
	noteController := note.NewNoteController(noteService)

	registerRoutes(r, userController, noteController, sessionManager, rdb)
	r.GET("/health", healthHandler(db, rdb))

	return r
}

// registerRoutes configures all application routes
func registerRoutes(r *gin.Engine, userCtrl *user.UserController, noteCtrl *note.NoteController, resolver middleware.SessionResolver, rdb *redis.Client) {

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusSeeOther, "/login/")
	})

	// Public routes - Authentication, strictly rate limited per client IP
	authLimiter := middleware.RateLimiterMiddleware(rdb, middleware.StrictRateLimiterConfig(), middleware.ClientIPKeyFunc)
	r.GET("/login/", userCtrl.LoginPage)
	r.POST("/login/", authLimiter, userCtrl.Login)
	r.POST("/register/", authLimiter, userCtrl.Register)
	r.GET("/logout/", userCtrl.Logout)

	// Protected routes - session cookie required
	authed := r.Group("/")
	authed.Use(middleware.RequireSession(resolver))
	authed.Use(middleware.RateLimiterMiddleware(rdb, middleware.DefaultRateLimiterConfig(), middleware.SessionKeyFunc))
	{
		authed.GET("/notes/", noteCtrl.NotesPage)
		authed.POST("/notes/", noteCtrl.CreateNote)
		authed.PUT("/notes/:id", noteCtrl.UpdateNote)
		authed.DELETE("/notes/:id", noteCtrl.DeleteNote)
		authed.GET("/search/", noteCtrl.SearchPage)
		authed.GET("/profile", userCtrl.Profile)
		authed.POST("/logout/all/", userCtrl.LogoutAll)
	}
}
