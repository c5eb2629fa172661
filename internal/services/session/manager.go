// Package session manages the Redfish session token used by every
// authenticated request to a BMC.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	httpadapter "bmcprobe/internal/adapters/http"
	"bmcprobe/internal/domain"
	"bmcprobe/internal/errors"
)

// SessionsPath is the Redfish session collection.
const SessionsPath = "/redfish/v1/SessionService/Sessions"

// maxErrorBody bounds how much of a rejected response is kept in errors.
const maxErrorBody = 4096

// State is the lifecycle state of the held session.
type State int

const (
	StateAbsent State = iota
	StatePending
	StateValid
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StatePending:
		return "pending"
	case StateValid:
		return "valid"
	case StateInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Manager holds at most one Redfish session. The mutex only protects its
// own fields: callers that re-authenticate concurrently must serialize
// Acquire/Invalidate themselves.
type Manager struct {
	httpAdapter domain.HTTPAdapter
	logger      *slog.Logger

	mu         sync.Mutex
	state      State
	session    domain.Session
	credential domain.Credential
	baseURL    string
}

// NewManager creates a session manager. The adapter should not retry
// requests on its own.
func NewManager(httpAdapter domain.HTTPAdapter, logger *slog.Logger) *Manager {
	return &Manager{
		httpAdapter: httpAdapter,
		logger:      logger,
	}
}

// sessionRequest is the body of a Redfish session creation request.
type sessionRequest struct {
	UserName string `json:"UserName"`
	Password string `json:"Password"`
}

// Acquire performs one authentication exchange. It succeeds only when the
// BMC answers 200 or 201 with a non-empty X-Auth-Token header. A valid
// session it replaces is deleted on the BMC.
func (m *Manager) Acquire(
	ctx context.Context,
	credential domain.Credential,
	baseURL string,
) (domain.Session, error) {
	baseURL = strings.TrimRight(baseURL, "/")

	m.mu.Lock()
	previous := m.state
	m.state = StatePending
	m.mu.Unlock()

	session, err := m.exchange(ctx, credential, baseURL)

	m.mu.Lock()
	if err != nil {
		m.state = previous
		m.mu.Unlock()
		return domain.Session{}, err
	}
	replaced := m.session
	m.state = StateValid
	m.session = session
	m.credential = credential
	m.baseURL = baseURL
	m.mu.Unlock()

	if previous == StateValid && replaced.Location != "" && replaced.Location != session.Location {
		if deleteErr := m.deleteSession(ctx, replaced); deleteErr != nil {
			m.logger.WarnContext(ctx, "Failed to delete replaced Redfish session",
				"location", replaced.Location,
				"error", deleteErr)
		}
	}
	return session, nil
}

func (m *Manager) exchange(
	ctx context.Context,
	credential domain.Credential,
	baseURL string,
) (domain.Session, error) {
	authURL := baseURL + SessionsPath

	m.logger.DebugContext(ctx, "Creating Redfish session",
		"bmc", baseURL,
		"username", credential.Username)

	resp, err := m.httpAdapter.Post(ctx, authURL, sessionRequest{
		UserName: credential.Username,
		Password: credential.Secret,
	})
	if err != nil {
		return domain.Session{}, errors.NewAuthenticationError(baseURL, credential.Username, 0, "", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return domain.Session{}, errors.NewAuthenticationError(
			baseURL, credential.Username, resp.StatusCode, string(body), nil)
	}

	token := resp.Header.Get(httpadapter.AuthTokenHeader)
	if token == "" {
		return domain.Session{}, errors.NewAuthenticationError(
			baseURL, credential.Username, resp.StatusCode, string(body),
			fmt.Errorf("no %s header in response", httpadapter.AuthTokenHeader))
	}

	m.logger.DebugContext(ctx, "Redfish session created",
		"bmc", baseURL,
		"status", resp.StatusCode,
		"location", resp.Header.Get("Location"))

	return domain.Session{
		Token:    token,
		BaseURL:  baseURL,
		Location: resolveLocation(baseURL, resp.Header.Get("Location")),
	}, nil
}

// CurrentToken returns the token of the valid session.
func (m *Manager) CurrentToken() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateValid {
		return "", errors.NewNotAuthenticatedError(m.state.String())
	}
	return m.session.Token, nil
}

// Invalidate marks the held session invalid. The next Token call
// re-acquires it.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateValid {
		m.state = StateInvalid
	}
}

// State reports the lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Token returns the current token, re-acquiring an invalidated session with
// the credential of the last successful acquisition.
func (m *Manager) Token(ctx context.Context) (string, error) {
	token, err := m.CurrentToken()
	if err == nil {
		return token, nil
	}

	m.mu.Lock()
	state, credential, baseURL := m.state, m.credential, m.baseURL
	m.mu.Unlock()
	if state != StateInvalid {
		return "", err
	}

	m.logger.InfoContext(ctx, "Session rejected, re-authenticating", "bmc", baseURL)
	if _, err := m.Acquire(ctx, credential, baseURL); err != nil {
		return "", err
	}
	return m.CurrentToken()
}

// Observe invalidates the session when the BMC rejected its token.
func (m *Manager) Observe(statusCode int) {
	if statusCode == http.StatusUnauthorized {
		m.Invalidate()
	}
}

// Close logs out of the BMC by deleting the session resource. The manager
// is left absent whatever the outcome.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	state, session := m.state, m.session
	m.state = StateAbsent
	m.session = domain.Session{}
	m.mu.Unlock()

	if state != StateValid || session.Location == "" {
		return nil
	}
	return m.deleteSession(ctx, session)
}

func (m *Manager) deleteSession(ctx context.Context, session domain.Session) error {
	resp, err := m.httpAdapter.DeleteWithAuth(ctx, session.Location, session.Token)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return errors.NewHTTPError(resp.StatusCode, http.MethodDelete, session.Location, string(body))
	}

	m.logger.DebugContext(ctx, "Redfish session deleted", "location", session.Location)
	return nil
}

// Scope acquires a session, runs fn and always closes the session
// afterwards. A close failure is logged and joined onto fn's error.
func Scope(
	ctx context.Context,
	manager domain.SessionManager,
	credential domain.Credential,
	baseURL string,
	logger *slog.Logger,
	fn func(ctx context.Context, session domain.Session) error,
) (err error) {
	session, err := manager.Acquire(ctx, credential, baseURL)
	if err != nil {
		return err
	}

	defer func() {
		// Logout must still happen when the caller's context has expired.
		closeErr := manager.Close(context.WithoutCancel(ctx))
		if closeErr == nil {
			return
		}
		logger.WarnContext(ctx, "Failed to close Redfish session", "error", closeErr)
		err = errors.Join(err, closeErr)
	}()

	return fn(ctx, session)
}

func resolveLocation(baseURL, location string) string {
	if location == "" {
		return ""
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(location)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
