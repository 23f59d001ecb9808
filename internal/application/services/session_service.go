package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/smartplanner/core/internal/domain/entities"
	"github.com/smartplanner/core/internal/infrastructure/config"
	"github.com/smartplanner/core/internal/infrastructure/logger"
	"github.com/smartplanner/core/internal/ports"
)

// Session close reasons reported to the observer
const (
	CloseReasonClosed  = "closed"
	CloseReasonExpired = "expired"
)

// Claims represents the JWT claims of a session token
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type session struct {
	id       uuid.UUID
	tasks    *TaskService
	lastSeen time.Time
}

// SessionService owns one task store per session and issues the bearer
// tokens that identify them.
type SessionService struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session

	newRepo     ports.TaskRepositoryFactory
	sessionCfg  config.SessionConfig
	jwtConfig   config.JWTConfig
	observer    ports.SessionObserver
	taskOptions []TaskServiceOption
	now         func() time.Time
	logger      *logger.Logger
}

// SessionServiceOption customises a SessionService
type SessionServiceOption func(*SessionService)

// WithSessionClock overrides the time source for idle tracking and tokens
func WithSessionClock(now func() time.Time) SessionServiceOption {
	return func(s *SessionService) {
		s.now = now
	}
}

// WithSessionObserver registers a receiver for session lifecycle events
func WithSessionObserver(observer ports.SessionObserver) SessionServiceOption {
	return func(s *SessionService) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// WithTaskServiceOptions applies opts to every per-session TaskService
func WithTaskServiceOptions(opts ...TaskServiceOption) SessionServiceOption {
	return func(s *SessionService) {
		s.taskOptions = append(s.taskOptions, opts...)
	}
}

// NewSessionService creates a new session service
func NewSessionService(newRepo ports.TaskRepositoryFactory, sessionCfg config.SessionConfig, jwtConfig config.JWTConfig, logger *logger.Logger, opts ...SessionServiceOption) *SessionService {
	s := &SessionService{
		sessions:   make(map[uuid.UUID]*session),
		newRepo:    newRepo,
		sessionCfg: sessionCfg,
		jwtConfig:  jwtConfig,
		observer:   noopSessionObserver{},
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open starts a session with an empty task store and returns its token
func (s *SessionService) Open() (*ports.SessionToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= s.sessionCfg.MaxSessions {
		return nil, fmt.Errorf("failed to open session: %w", entities.ErrSessionLimit)
	}

	id := uuid.New()
	sessionLogger := s.logger.WithSessionID(id.String())
	sess := &session{
		id:       id,
		tasks:    NewTaskService(s.newRepo(), sessionLogger, s.taskOptions...),
		lastSeen: s.now(),
	}

	token, err := s.generateToken(id)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	s.sessions[id] = sess
	s.observer.SessionOpened()
	s.logger.Infow("Session opened", "session_id", id, "active_sessions", len(s.sessions))

	return &ports.SessionToken{
		SessionID: id,
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(s.jwtConfig.ExpiresIn.Seconds()),
	}, nil
}

// Resolve validates a token and returns the task store of its live session
func (s *SessionService) Resolve(token string) (ports.TaskService, uuid.UUID, error) {
	claims, err := s.ValidateToken(token)
	if err != nil {
		return nil, uuid.Nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[claims.SessionID]
	if !ok {
		return nil, uuid.Nil, fmt.Errorf("resolve session %s: %w", claims.SessionID, entities.ErrSessionNotFound)
	}

	now := s.now()
	if s.idle(sess, now) {
		s.dropLocked(sess.id, CloseReasonExpired)
		return nil, uuid.Nil, fmt.Errorf("resolve session %s: %w", claims.SessionID, entities.ErrSessionNotFound)
	}

	sess.lastSeen = now
	return sess.tasks, sess.id, nil
}

// Close discards a session and everything in its task store
func (s *SessionService) Close(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("close session %s: %w", id, entities.ErrSessionNotFound)
	}

	s.dropLocked(id, CloseReasonClosed)
	return nil
}

// Sweep drops every session idle past the configured timeout
func (s *SessionService) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for id, sess := range s.sessions {
		if s.idle(sess, now) {
			s.dropLocked(id, CloseReasonExpired)
			dropped++
		}
	}

	if dropped > 0 {
		s.logger.Infow("Expired idle sessions", "count", dropped, "active_sessions", len(s.sessions))
	}
	return dropped
}

// Run sweeps idle sessions until ctx is cancelled
func (s *SessionService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.sessionCfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(s.now())
		}
	}
}

func (s *SessionService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// ValidateToken validates a JWT token and returns claims
func (s *SessionService) ValidateToken(tokenString string) (*ports.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	},
		jwt.WithIssuer(s.jwtConfig.Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", entities.ErrInvalidToken)
	}

	id, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed session id", entities.ErrInvalidToken)
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return &ports.Claims{
		SessionID: id,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *SessionService) generateToken(id uuid.UUID) (string, error) {
	now := s.now()
	claims := &Claims{
		SessionID: id.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtConfig.ExpiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.jwtConfig.Issuer,
			Subject:   id.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func (s *SessionService) idle(sess *session, now time.Time) bool {
	return now.Sub(sess.lastSeen) > s.sessionCfg.IdleTimeout
}

// dropLocked requires s.mu
func (s *SessionService) dropLocked(id uuid.UUID, reason string) {
	delete(s.sessions, id)
	s.observer.SessionClosed(reason)
	s.logger.Infow("Session closed", "session_id", id, "reason", reason)
}

type noopSessionObserver struct{}

func (noopSessionObserver) SessionOpened()       {}
func (noopSessionObserver) SessionClosed(string) {}
