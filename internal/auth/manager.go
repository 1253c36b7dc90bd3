package auth

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultRefreshWindow is the lead time before expiry at which a bearer
// session is proactively refreshed instead of used until it expires.
const DefaultRefreshWindow = 5 * time.Minute

// AuthManager coordinates login flows, credential persistence, and
// refresh-on-read for a named profile. A session is never handed to callers
// before it has been durably persisted.
type AuthManager struct {
	store         CredentialStore
	oauth         *OAuthClient
	profile       string
	refreshWindow time.Duration
}

// NewAuthManager creates a manager for a profile with the default refresh
// window.
func NewAuthManager(store CredentialStore, oauth *OAuthClient, profile string) *AuthManager {
	return &AuthManager{
		store:         store,
		oauth:         oauth,
		profile:       profile,
		refreshWindow: DefaultRefreshWindow,
	}
}

// WithRefreshWindow overrides the refresh lead time. Larger windows refresh
// more eagerly.
func (m *AuthManager) WithRefreshWindow(window time.Duration) *AuthManager {
	m.refreshWindow = window
	return m
}

// CurrentSession loads the stored session without refreshing it.
func (m *AuthManager) CurrentSession() (*AuthSession, error) {
	return m.store.Load(m.profile)
}

// EnsureFreshSession loads the stored session and refreshes it when a bearer
// token is inside the refresh window, persisting the replacement before
// returning it. API-key sessions and bearer sessions not near expiry are
// returned unchanged. Refresh failures propagate; the caller decides whether
// to prompt for a new login. A missing session returns (nil, nil).
func (m *AuthManager) EnsureFreshSession(ctx context.Context) (*AuthSession, error) {
	session, err := m.CurrentSession()
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	if session.TokenType == TokenTypeBearer && session.WillExpireWithin(m.refreshWindow) {
		log.Debugf("session for profile %q is near expiry, refreshing", m.profile)
		result, errRefresh := m.oauth.RefreshSession(ctx, session)
		if errRefresh != nil {
			return nil, errRefresh
		}
		session = result.Session
		if err = m.persist(session); err != nil {
			return nil, err
		}
	}
	return session, nil
}

// AuthenticateBrowser runs the loopback flow on an ephemeral port and
// persists the resulting session.
func (m *AuthManager) AuthenticateBrowser(ctx context.Context, openBrowser bool, notify NotifyAuthorizationURL) (*AuthSession, error) {
	session, err := RunLoopbackFlow(ctx, m.oauth, openBrowser, notify)
	if err != nil {
		return nil, err
	}
	if err = m.persist(session); err != nil {
		return nil, err
	}
	return session, nil
}

// AuthenticateBrowserPortRange runs the loopback flow on the first available
// port in the inclusive range and persists the resulting session.
func (m *AuthManager) AuthenticateBrowserPortRange(ctx context.Context, startPort, endPort int, openBrowser bool, notify NotifyAuthorizationURL) (*AuthSession, error) {
	session, err := RunLoopbackFlowPortRange(ctx, m.oauth, startPort, endPort, openBrowser, notify)
	if err != nil {
		return nil, err
	}
	if err = m.persist(session); err != nil {
		return nil, err
	}
	return session, nil
}

// AuthenticateManual runs the copy/paste flow and persists the resulting
// session.
func (m *AuthManager) AuthenticateManual(ctx context.Context, openBrowser bool, notify NotifyAuthorizationURL, readInput ReadAuthorizationInput) (*AuthSession, error) {
	session, err := RunManualFlow(ctx, m.oauth, openBrowser, notify, readInput)
	if err != nil {
		return nil, err
	}
	if err = m.persist(session); err != nil {
		return nil, err
	}
	return session, nil
}

// AuthenticateAPIKey stores a static API key as a non-expiring session. No
// network call is made.
func (m *AuthManager) AuthenticateAPIKey(key string) (*AuthSession, error) {
	session := NewAPIKeySession(key)
	if err := m.persist(session); err != nil {
		return nil, err
	}
	return session, nil
}

// AuthenticateClientCredentials performs the machine-to-machine grant and
// persists the resulting session.
func (m *AuthManager) AuthenticateClientCredentials(ctx context.Context, scopes []string) (*AuthSession, error) {
	result, err := m.oauth.ClientCredentials(ctx, scopes)
	if err != nil {
		return nil, err
	}
	if err = m.persist(result.Session); err != nil {
		return nil, err
	}
	return result.Session, nil
}

// Logout deletes the stored session for the profile. Deleting a profile with
// nothing stored succeeds.
func (m *AuthManager) Logout() error {
	return m.store.Delete(m.profile)
}

func (m *AuthManager) persist(session *AuthSession) error {
	return m.store.Save(m.profile, session)
}
