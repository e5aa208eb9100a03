package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"webnotes/internal/middleware"
	"webnotes/internal/session"
)

type UserController struct {
	userService UserServiceInterface
}

func NewUserController(userService UserServiceInterface) *UserController {
	return &UserController{
		userService: userService,
	}
}

// LoginPage serves the login form, or redirects straight to the notes
// page when the browser already holds a valid session.
func (a *UserController) LoginPage(c *gin.Context) {
	if sessionID, err := c.Cookie(middleware.CookieName); err == nil {
		identity, err := a.userService.ResolveSession(c.Request.Context(), sessionID)
		if err == nil && identity != nil {
			c.Redirect(http.StatusSeeOther, "/notes/")
			return
		}
	}
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

// Register handles user registration
func (a *UserController) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=3,max=50"`
		Password string `json:"password" binding:"required,min=6"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	userID, err := a.userService.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrUsernameTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username already exists"})
		case errors.Is(err, ErrValidation):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid username or password"})
		default:
			logrus.WithError(err).Error("Registration failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User registered successfully",
		"user_id": userID,
	})
}

// Login verifies credentials and sets the session cookie.
func (a *UserController) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	sessionID, _, err := a.userService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		case errors.Is(err, session.ErrUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Sessions temporarily unavailable"})
		default:
			logrus.WithError(err).Error("Login failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		}
		return
	}

	setSessionCookie(c, sessionID)
	c.Redirect(http.StatusSeeOther, "/notes/")
}

// Logout destroys the current session and clears the cookie. Always
// succeeds, even without a session.
func (a *UserController) Logout(c *gin.Context) {
	if sessionID, err := c.Cookie(middleware.CookieName); err == nil {
		if err := a.userService.Logout(c.Request.Context(), sessionID); err != nil {
			logrus.WithError(err).Warn("Failed to destroy session on logout")
		}
	}

	clearSessionCookie(c)
	c.Redirect(http.StatusSeeOther, "/login/")
}

// LogoutAll destroys every session of the authenticated user.
func (a *UserController) LogoutAll(c *gin.Context) {
	identity, err := middleware.GetIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	if err := a.userService.LogoutAll(c.Request.Context(), identity.UserID); err != nil {
		logrus.WithError(err).Error("Failed to destroy user sessions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log out"})
		return
	}

	clearSessionCookie(c)
	c.Redirect(http.StatusSeeOther, "/login/")
}

// Profile reports the authenticated identity and its active session count.
func (a *UserController) Profile(c *gin.Context) {
	identity, err := middleware.GetIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	activeSessions, err := a.userService.ActiveSessions(c.Request.Context(), identity.UserID)
	if err != nil {
		logrus.WithError(err).Warn("Failed to count active sessions")
	}

	c.JSON(http.StatusOK, gin.H{
		"username":        identity.Username,
		"user_id":         identity.UserID,
		"active_sessions": activeSessions,
		"last_activity":   identity.LastActivity,
	})
}

func setSessionCookie(c *gin.Context, sessionID string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.CookieName, sessionID, int(session.Expiry.Seconds()), "/", "", false, true)
}

func clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.CookieName, "", -1, "/", "", false, true)
}
