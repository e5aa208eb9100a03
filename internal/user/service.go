package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/sirupsen/logrus"

	"webnotes/internal/auth"
	"webnotes/internal/cache"
	"webnotes/internal/observability"
	"webnotes/internal/session"
	"webnotes/internal/utils"
)

var (
	// ErrInvalidCredentials covers unknown user and wrong password alike:
	// the distinction is never revealed to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("invalid input")
)

// cachedCredentials is the user record shape stored in the read-through
// cache, keyed by cache.UserKey(username).
type cachedCredentials struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}

type UserService struct {
	repo     UserRepositoryInterface
	db       *sql.DB
	cache    *cache.Cache
	sessions *session.Manager
}

type UserServiceInterface interface {
	Register(ctx context.Context, username, password string) (int, error)
	Login(ctx context.Context, username, password string) (string, *User, error)
	Logout(ctx context.Context, sessionID string) error
	LogoutAll(ctx context.Context, userID int) error
	ResolveSession(ctx context.Context, sessionID string) (*session.Identity, error)
	ActiveSessions(ctx context.Context, userID int) (int64, error)
}

func NewUserService(repo UserRepositoryInterface, db *sql.DB, userCache *cache.Cache, sessions *session.Manager) UserServiceInterface {
	return &UserService{
		repo:     repo,
		db:       db,
		cache:    userCache,
		sessions: sessions,
	}
}

// Register creates a new user with a hashed password. The duplicate check
// consults the cache first purely to spare the store a round trip, the
// store check and its unique constraint remain authoritative.
func (s *UserService) Register(ctx context.Context, username, password string) (int, error) {
	if len(username) < 3 || len(password) < 6 {
		return 0, ErrValidation
	}

	exists, err := s.cache.Exists(ctx, cache.UserKey(username))
	if err != nil {
		logrus.WithError(err).Warn("Cache lookup failed during registration")
	}
	if exists {
		return 0, ErrUsernameTaken
	}

	if _, err := s.repo.GetByUsername(s.db, username); err == nil {
		return 0, ErrUsernameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return 0, err
	}

	hashedPassword, err := auth.GeneratePasswordHash(password)
	if err != nil {
		return 0, err
	}

	newUser := &User{
		Username:     username,
		PasswordHash: hashedPassword,
	}

	var id int
	if err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		id, err = s.repo.Create(tx, newUser)
		return err
	}); err != nil {
		return 0, err
	}

	return id, nil
}

// Login verifies credentials (cache first, store on miss), records the
// login and issues a session.
func (s *UserService) Login(ctx context.Context, username, password string) (string, *User, error) {
	account, fromCache := s.lookupCredentials(ctx, username)
	if account == nil {
		observability.RecordLogin("failure")
		return "", nil, ErrInvalidCredentials
	}

	if err := auth.ComparePasswordHash([]byte(account.PasswordHash), password); err != nil {
		// A stale cache entry must not lock a user out after a password
		// change: re-verify against the store before rejecting.
		if fromCache {
			if fresh, err := s.repo.GetByUsername(s.db, username); err == nil {
				account = fresh
				s.repopulateCache(ctx, fresh)
				if auth.ComparePasswordHash([]byte(fresh.PasswordHash), password) == nil {
					return s.issueSession(ctx, account)
				}
			}
		}
		observability.RecordLogin("failure")
		return "", nil, ErrInvalidCredentials
	}

	return s.issueSession(ctx, account)
}

// lookupCredentials tries the cache, then the store, repopulating the
// cache on a store hit. Returns nil when the user does not exist.
func (s *UserService) lookupCredentials(ctx context.Context, username string) (*User, bool) {
	data, err := s.cache.Get(ctx, cache.UserKey(username))
	if err != nil {
		logrus.WithError(err).Warn("User cache read failed, falling back to store")
	}
	if data != nil {
		var cached cachedCredentials
		if json.Unmarshal(data, &cached) == nil {
			observability.RecordCacheHit("user")
			return &User{ID: cached.ID, Username: cached.Username, PasswordHash: cached.PasswordHash}, true
		}
	}
	observability.RecordCacheMiss("user")

	account, err := s.repo.GetByUsername(s.db, username)
	if err != nil {
		return nil, false
	}

	s.repopulateCache(ctx, account)
	return account, false
}

func (s *UserService) repopulateCache(ctx context.Context, account *User) {
	record := cachedCredentials{
		ID:           account.ID,
		Username:     account.Username,
		PasswordHash: account.PasswordHash,
	}
	if err := s.cache.Set(ctx, cache.UserKey(account.Username), record, cache.UserCacheTTL); err != nil {
		logrus.WithError(err).Warn("Failed to cache user record")
	}
}

func (s *UserService) issueSession(ctx context.Context, account *User) (string, *User, error) {
	if err := s.repo.TouchLastLogin(s.db, account.ID); err != nil {
		logrus.WithError(err).Warn("Failed to record last login")
	}

	sessionID, err := s.sessions.Create(ctx, account.ID, account.Username)
	if err != nil {
		return "", nil, err
	}

	observability.RecordLogin("success")
	observability.RecordSessionCreated()
	return sessionID, account, nil
}

func (s *UserService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		return err
	}
	observability.RecordSessionDestroyed()
	return nil
}

func (s *UserService) LogoutAll(ctx context.Context, userID int) error {
	return s.sessions.DestroyAll(ctx, userID)
}

func (s *UserService) ResolveSession(ctx context.Context, sessionID string) (*session.Identity, error) {
	return s.sessions.Resolve(ctx, sessionID)
}

func (s *UserService) ActiveSessions(ctx context.Context, userID int) (int64, error) {
	return s.sessions.ActiveSessions(ctx, userID)
}
