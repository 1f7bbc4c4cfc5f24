package command

import (
	"context"
	"errors"
	"time"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/player"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/session"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/shared"
	"github.com/wikichallenge/wikichallenge-server/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// CreateAccountCommand registers a new player.
type CreateAccountCommand struct {
	Name     string
	Password string
	AvatarID int
}

// Validate checks the command.
func (c CreateAccountCommand) Validate() error {
	_, err := player.NewUser(c.Name, "", c.AvatarID, time.Time{})
	return err
}

// LoginCommand authenticates by credential.
type LoginCommand struct {
	Name     string
	Password string
}

// SaveUserDataCommand applies client profile changes for the owner of Token.
type SaveUserDataCommand struct {
	Token  string
	Update player.ProfileUpdate
}

// AuthResult is returned by every successful authentication.
type AuthResult struct {
	Token string
	View  *player.View
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION MANAGER
// ══════════════════════════════════════════════════════════════════════════════

// SessionManager issues, validates and expires session tokens.
type SessionManager struct {
	users    player.Repository
	sessions session.Repository
	hasher   PasswordHasher
	tokens   TokenDeriver
	progress *ProgressTracker
	now      Clock
	log      *logger.Logger
}

// NewSessionManager creates a session manager.
func NewSessionManager(
	users player.Repository,
	sessions session.Repository,
	hasher PasswordHasher,
	tokens TokenDeriver,
	progress *ProgressTracker,
	clock Clock,
	log *logger.Logger,
) *SessionManager {
	if log == nil {
		log = logger.Nop()
	}
	return &SessionManager{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		progress: progress,
		now:      clock.orSystem(),
		log:      log.Named("session_manager"),
	}
}

// CreateAccount registers the player and returns a fresh session token.
//
// The user row and the session row are separate writes: when issuing the
// session fails the account still exists and the player can log in.
func (m *SessionManager) CreateAccount(ctx context.Context, cmd CreateAccountCommand) (string, error) {
	if err := cmd.Validate(); err != nil {
		return "", err
	}

	taken, err := m.users.ExistsByName(ctx, cmd.Name)
	if err != nil {
		return "", err
	}
	if taken {
		return "", shared.ErrNameTaken
	}

	hash, err := m.hasher.Hash(cmd.Password)
	if err != nil {
		return "", shared.WrapError(shared.ErrHashFailure, err)
	}

	now := m.now()
	u, err := player.NewUser(cmd.Name, hash, cmd.AvatarID, now)
	if err != nil {
		return "", err
	}
	if err := m.users.Create(ctx, u); err != nil {
		return "", err
	}

	token, err := m.issue(ctx, u.ID)
	if err != nil {
		m.log.Warn("account created without session", logger.UserID(u.ID), logger.Err(err))
		return "", err
	}

	m.log.Info("account created", logger.UserID(u.ID))
	return token, nil
}

// Login checks the credential, issues a session and returns the refreshed
// view. Unknown names and wrong passwords are indistinguishable.
func (m *SessionManager) Login(ctx context.Context, cmd LoginCommand) (*AuthResult, error) {
	u, err := m.users.GetByName(ctx, cmd.Name)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrBadCredential
		}
		return nil, err
	}
	if !m.hasher.Verify(cmd.Password, u.PasswordHash) {
		return nil, shared.ErrBadCredential
	}

	token, err := m.issue(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	view, err := m.progress.Refresh(ctx, u.ID, nil)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, View: view}, nil
}

// AuthenticateByToken resolves the token and returns the refreshed view.
// No session is created.
func (m *SessionManager) AuthenticateByToken(ctx context.Context, token string) (*AuthResult, error) {
	sess, err := m.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	view, err := m.progress.Refresh(ctx, sess.UserID, nil)
	if err != nil {
		if errors.Is(err, shared.ErrUserNotFound) {
			return nil, shared.ErrInvalidToken
		}
		return nil, err
	}
	return &AuthResult{Token: sess.Token, View: view}, nil
}

// SaveUserData applies the client's profile changes together with the
// login bookkeeping in one write.
func (m *SessionManager) SaveUserData(ctx context.Context, cmd SaveUserDataCommand) error {
	sess, err := m.Authenticate(ctx, cmd.Token)
	if err != nil {
		return err
	}

	if _, err := m.progress.Refresh(ctx, sess.UserID, &cmd.Update); err != nil {
		if errors.Is(err, shared.ErrUserNotFound) {
			return shared.ErrInvalidToken
		}
		return err
	}
	return nil
}

// Authenticate resolves a token to its session. A token past its max age
// is deleted and reported as expired.
func (m *SessionManager) Authenticate(ctx context.Context, token string) (*session.Session, error) {
	token = session.NormalizeToken(token)
	if token == "" {
		return nil, shared.ErrInvalidToken
	}

	sess, err := m.sessions.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if sess.IsExpired(m.now()) {
		if err := m.sessions.Delete(ctx, token); err != nil {
			return nil, err
		}
		m.log.Info("session expired", logger.UserID(sess.UserID))
		return nil, shared.ErrSessionExpired
	}
	return sess, nil
}

func (m *SessionManager) issue(ctx context.Context, userID int64) (string, error) {
	now := m.now()

	token, err := m.tokens.DeriveToken(userID, now)
	if err != nil {
		return "", shared.WrapError(shared.ErrHashFailure, err)
	}
	if err := m.sessions.Create(ctx, session.New(token, userID, now)); err != nil {
		return "", err
	}
	return token, nil
}
