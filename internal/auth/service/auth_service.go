package service

import (
	"context"
	"errors"
	"sync"

	"github.com/kyodo/backend/internal/common/crypto"
	"github.com/kyodo/backend/internal/common/entityid"
	"github.com/kyodo/backend/internal/common/logger"
	"github.com/kyodo/backend/internal/common/resilience"
	userdomain "github.com/kyodo/backend/internal/user/domain"
	userrepo "github.com/kyodo/backend/internal/user/repository"
)

// Status is the internal result of a credential check. It never leaves the
// process: Login collapses every non-success status into one error.
type Status int

const (
	StatusAuthenticated Status = iota + 1
	StatusNotFound
	StatusWrongCredential
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusNotFound:
		return "not_found"
	case StatusWrongCredential:
		return "wrong_credential"
	default:
		return "unknown"
	}
}

type Outcome struct {
	Status Status
	User   userdomain.User
}

type AuthService struct {
	repo    userrepo.Repository
	hasher  crypto.PasswordHasher
	log     *logger.Logger
	newID   func() userdomain.ID
	breaker *resilience.CircuitBreaker

	decoyOnce sync.Once
	decoyHash string
}

func NewAuthService(repo userrepo.Repository, hasher crypto.PasswordHasher, log *logger.Logger) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		log:    log,
		newID:  entityid.Generate[userdomain.Kind],
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:   "auth_credentials",
			Ignore: func(err error) bool { return errors.Is(err, userrepo.ErrUserNotFound) },
			Logger: log,
		}),
	}
}

type RegisterInput struct {
	Name     string
	Login    string
	Password string
}

type LoginInput struct {
	Login    string
	Password string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (userdomain.ID, error) {
	s.log.WithFields(ctx, logger.Fields{
		"login":  input.Login,
		"action": "register_attempt",
	}).Info("register attempt")

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"login":  input.Login,
			"action": "register_hash_failed",
		}).Errorf("register failed: password hash error: %v", err)
		recordRegistration("hash_failed")
		return userdomain.ID{}, ErrRegistrationFailed.WithCause(err)
	}

	user := userdomain.User{
		ID:    s.newID(),
		Name:  input.Name,
		Login: input.Login,
	}

	if err := s.repo.Create(ctx, user, hash); err != nil {
		if errors.Is(err, userrepo.ErrLoginTaken) {
			s.log.WithFields(ctx, logger.Fields{
				"login":  input.Login,
				"action": "register_login_taken",
			}).Warn("register failed: login already taken")
			recordRegistration("login_taken")
		} else {
			s.log.WithFields(ctx, logger.Fields{
				"login":  input.Login,
				"action": "register_create_failed",
			}).Errorf("register failed: %v", err)
			recordRegistration("store_failed")
		}
		return userdomain.ID{}, ErrRegistrationFailed.WithCause(err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"login":   user.Login,
		"user_id": user.ID.String(),
		"action":  "register_success",
	}).Info("register success")
	recordRegistration("success")

	return user.ID, nil
}

// Authenticate checks a login/password pair. The error return is reserved
// for store failures, including an open breaker; a bad login or password is
// reported through Status.
func (s *AuthService) Authenticate(ctx context.Context, login, password string) (Outcome, error) {
	var creds userdomain.Credentials
	err := s.breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		creds, err = s.repo.FindCredentialsByLogin(ctx, login)
		return err
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			// Spend a comparison anyway so both rejection paths cost the same.
			s.hasher.Verify(s.decoy(), password)
			s.log.WithFields(ctx, logger.Fields{
				"login":  login,
				"action": "login_user_not_found",
			}).Warn("login failed: not found")
			recordAttempt(StatusNotFound)
			return Outcome{Status: StatusNotFound}, nil
		}
		return Outcome{}, err
	}

	if !s.hasher.Verify(creds.PasswordHash, password) {
		s.log.WithFields(ctx, logger.Fields{
			"login":   login,
			"user_id": creds.ID.String(),
			"action":  "login_invalid_password",
		}).Warn("login failed: invalid password")
		recordAttempt(StatusWrongCredential)
		return Outcome{Status: StatusWrongCredential}, nil
	}

	recordAttempt(StatusAuthenticated)
	return Outcome{Status: StatusAuthenticated, User: creds.User}, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (userdomain.User, error) {
	s.log.WithFields(ctx, logger.Fields{
		"login":  input.Login,
		"action": "login_attempt",
	}).Info("login attempt")

	outcome, err := s.Authenticate(ctx, input.Login, input.Password)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"login":  input.Login,
			"action": "login_fetch_failed",
		}).Errorf("login failed: %v", err)
		return userdomain.User{}, ErrLoginFailed.WithCause(err)
	}

	if outcome.Status != StatusAuthenticated {
		return userdomain.User{}, ErrInvalidCredentials
	}

	s.log.WithFields(ctx, logger.Fields{
		"login":   outcome.User.Login,
		"user_id": outcome.User.ID.String(),
		"action":  "login_success",
	}).Info("login success")

	return outcome.User, nil
}

func (s *AuthService) decoy() string {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash("kyodo-decoy-password")
		if err != nil {
			s.log.Warnf("decoy hash unavailable: %v", err)
			return
		}
		s.decoyHash = hash
	})
	return s.decoyHash
}
