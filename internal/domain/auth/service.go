package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/heysagnik/chikki/internal/infrastructure/logging"
	"github.com/heysagnik/chikki/internal/shared/id"
)

// DefaultCredits is the allowance shown next to a user's usage.
const DefaultCredits = 100

// DefaultRole is assigned to every account created through Register.
const DefaultRole = "user"

// User is the public view of an account.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	Usage         int       `json:"usage"`
	Credits       int       `json:"credits"`
	CreatedAt     time.Time `json:"created_at"`
}

type account struct {
	user         User
	passwordHash []byte
}

type session struct {
	userID    string
	expiresAt time.Time
}

// Options configures a Service.
type Options struct {
	TokenTTL time.Duration
	// Cost is the bcrypt cost; tests lower it.
	Cost   int
	Logger *logging.Logger
	Now    func() time.Time
	IDs    *id.Generator
}

// Service keeps accounts and sessions in memory. Nothing survives a restart.
type Service struct {
	mu       sync.RWMutex
	byEmail  map[string]*account
	byID     map[string]*account
	sessions map[string]session

	ttl  time.Duration
	cost int
	log  *logging.Logger
	now  func() time.Time
	ids  *id.Generator
}

// NewService creates an empty account store.
func NewService(opts Options) *Service {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.Cost == 0 {
		opts.Cost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.IDs == nil {
		opts.IDs = id.NewGeneratorWithEntropy(rand.Reader, opts.Now)
	}
	return &Service{
		byEmail:  make(map[string]*account),
		byID:     make(map[string]*account),
		sessions: make(map[string]session),
		ttl:      opts.TokenTTL,
		cost:     opts.Cost,
		log:      logging.OrNop(opts.Logger).Named("auth"),
		now:      opts.Now,
		ids:      opts.IDs,
	}
}

// Register creates an account and opens a session for it.
func (s *Service) Register(name, email, password string) (string, User, error) {
	if err := validateName(name); err != nil {
		return "", User{}, err
	}
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return "", User{}, err
	}
	if err := validatePassword(password); err != nil {
		return "", User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", User{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return "", User{}, ErrEmailTaken
	}

	acc := &account{
		user: User{
			ID:        s.ids.NewUserID().String(),
			Name:      name,
			Email:     email,
			Role:      DefaultRole,
			Credits:   DefaultCredits,
			CreatedAt: s.now(),
		},
		passwordHash: hash,
	}
	s.byEmail[email] = acc
	s.byID[acc.user.ID] = acc

	token, err := s.openSessionLocked(acc.user.ID)
	if err != nil {
		return "", User{}, err
	}
	s.log.Info("user registered", zap.String("user_id", acc.user.ID))
	return token, acc.user, nil
}

// Login checks credentials and opens a session. Unknown emails and wrong
// passwords return the same error.
func (s *Service) Login(email, password string) (string, User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" || len(password) > MaxPasswordLength {
		return "", User{}, ErrInvalidCredentials
	}

	s.mu.RLock()
	acc, ok := s.byEmail[email]
	s.mu.RUnlock()
	if !ok {
		return "", User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		return "", User{}, ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	token, err := s.openSessionLocked(acc.user.ID)
	if err != nil {
		return "", User{}, err
	}
	return token, acc.user, nil
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(token string) (User, error) {
	if token == "" || len(token) > 128 {
		return User{}, ErrInvalidToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return User{}, ErrInvalidToken
	}
	if s.now().After(sess.expiresAt) {
		delete(s.sessions, token)
		return User{}, ErrInvalidToken
	}
	acc, ok := s.byID[sess.userID]
	if !ok {
		delete(s.sessions, token)
		return User{}, ErrInvalidToken
	}
	return acc.user, nil
}

// Logout drops a session. Unknown tokens are ignored.
func (s *Service) Logout(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// RecordUsage increments a user's usage counter.
func (s *Service) RecordUsage(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.byID[userID]; ok {
		acc.user.Usage++
	}
}

func (s *Service) openSessionLocked(userID string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	s.sessions[token] = session{userID: userID, expiresAt: s.now().Add(s.ttl)}
	return token, nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
