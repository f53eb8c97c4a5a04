package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"gym_backend/internal/metrics"
	"gym_backend/internal/model"
	"gym_backend/internal/repository"
	"gym_backend/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrAccountExists      = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password") // Same error for unknown email and wrong password
	ErrUserNotFound       = errors.New("user not found")
)

// TokenIssuer issues session tokens for a user
type TokenIssuer interface {
	GenerateToken(userID int64) (string, error)
}

// AuthService provides authentication related services
type AuthService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error)
	GetProfile(ctx context.Context, userID int64) (*model.UserResponse, error)
	UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.UserResponse, error)
}

// AuthServiceDeps are the collaborators of AuthService. Metrics, Tracer and Logger are optional.
type AuthServiceDeps struct {
	Users             repository.UserRepository
	Hasher            utils.PasswordHasher
	Tokens            TokenIssuer
	Metrics           *metrics.AuthMetrics
	Tracer            trace.Tracer
	Logger            *slog.Logger
	InitialAdminEmail string
}

type authService struct {
	userRepo          repository.UserRepository
	hasher            utils.PasswordHasher
	tokens            TokenIssuer
	metrics           *metrics.AuthMetrics
	tracer            trace.Tracer
	logger            *slog.Logger
	validate          *validator.Validate
	initialAdminEmail string
	dummyHash         string
}

// NewAuthService creates a new AuthService
func NewAuthService(deps AuthServiceDeps) AuthService {
	s := &authService{
		userRepo:          deps.Users,
		hasher:            deps.Hasher,
		tokens:            deps.Tokens,
		metrics:           deps.Metrics,
		tracer:            deps.Tracer,
		logger:            deps.Logger,
		validate:          newValidator(),
		initialAdminEmail: normalizeEmail(deps.InitialAdminEmail),
	}
	if s.metrics == nil {
		s.metrics = metrics.NewNop()
	}
	if s.tracer == nil {
		s.tracer = noop.NewTracerProvider().Tracer("AuthService")
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	// Compared against on unknown emails so both login failure paths cost one hash check
	if h, err := s.hasher.HashPassword("not-a-real-password"); err == nil {
		s.dummyHash = h
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user account and issues a token for it
func (s *authService) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	ctx, span := s.tracer.Start(ctx, "Register")
	defer span.End()

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)

	if err := validateStruct(s.validate, req); err != nil {
		s.metrics.RegisterTotal.WithLabelValues(metrics.OutcomeValidation).Inc()
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}
	if len(req.Password) > utils.MaxPasswordBytes {
		s.metrics.RegisterTotal.WithLabelValues(metrics.OutcomeValidation).Inc()
		span.SetStatus(codes.Error, "validation failed")
		return nil, fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, utils.MaxPasswordBytes)
	}

	email := normalizeEmail(req.Email)

	start := time.Now()
	hashedPassword, err := s.hasher.HashPassword(req.Password)
	s.metrics.ObserveHash(start)
	if err != nil {
		return nil, s.fail(ctx, span, s.metrics.RegisterTotal, "failed to hash password", err)
	}

	userRole := model.RoleMember // Default role
	if s.initialAdminEmail != "" && email == s.initialAdminEmail {
		userRole = model.RoleAdmin
		s.logger.InfoContext(ctx, "Registering initial admin account", slog.String("email", email))
	}

	user := &model.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: hashedPassword,
		Phone:        req.Phone,
		Role:         userRole,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			s.metrics.RegisterTotal.WithLabelValues(metrics.OutcomeConflict).Inc()
			span.SetStatus(codes.Error, "account exists")
			return nil, ErrAccountExists
		}
		return nil, s.fail(ctx, span, s.metrics.RegisterTotal, "failed to create user in repository", err)
	}
	span.SetAttributes(attribute.Int64("user.id", user.ID))

	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		// Roll the insert back so a failed registration leaves no account behind
		if _, delErr := s.userRepo.Delete(ctx, user.ID); delErr != nil {
			s.logger.ErrorContext(ctx, "Failed to remove user after token failure",
				slog.Int64("user_id", user.ID), slog.Any("error", delErr))
		}
		return nil, s.fail(ctx, span, s.metrics.RegisterTotal, "failed to generate token", err)
	}

	s.metrics.RegisterTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.InfoContext(ctx, "User registered", slog.Int64("user_id", user.ID))
	span.SetStatus(codes.Ok, "user registered")
	return &model.AuthResponse{Token: token, User: model.NewUserResponse(user)}, nil
}

// Login authenticates a user and returns a JWT token
func (s *authService) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	ctx, span := s.tracer.Start(ctx, "Login")
	defer span.End()

	req.Email = strings.TrimSpace(req.Email)
	if err := validateStruct(s.validate, req); err != nil {
		s.metrics.LoginTotal.WithLabelValues(metrics.OutcomeValidation).Inc()
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, s.fail(ctx, span, s.metrics.LoginTotal, "error finding user by email", err)
	}

	if user == nil {
		s.hasher.CheckPasswordHash(req.Password, s.dummyHash)
		return nil, s.invalidCredentials(span)
	}
	if !s.hasher.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, s.invalidCredentials(span)
	}

	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, s.fail(ctx, span, s.metrics.LoginTotal, "failed to generate token", err)
	}

	s.metrics.LoginTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	span.SetAttributes(attribute.Int64("user.id", user.ID))
	span.SetStatus(codes.Ok, "login successful")
	return &model.AuthResponse{Token: token, User: model.NewUserResponse(user)}, nil
}

// GetProfile returns the safe view of a user
func (s *authService) GetProfile(ctx context.Context, userID int64) (*model.UserResponse, error) {
	ctx, span := s.tracer.Start(ctx, "GetProfile", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch user")
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	resp := model.NewUserResponse(user)
	return &resp, nil
}

// UpdateProfile changes name and, when supplied, phone. Email and password cannot change here.
func (s *authService) UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.UserResponse, error) {
	ctx, span := s.tracer.Start(ctx, "UpdateProfile", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	req.Name = strings.TrimSpace(req.Name)
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		req.Phone = &phone
	}
	if err := validateStruct(s.validate, req); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	user, err := s.userRepo.Update(ctx, userID, model.ProfileUpdate{Name: &req.Name, Phone: req.Phone})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update user")
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.InfoContext(ctx, "Profile updated", slog.Int64("user_id", userID))
	resp := model.NewUserResponse(user)
	return &resp, nil
}

func (s *authService) invalidCredentials(span trace.Span) error {
	s.metrics.LoginTotal.WithLabelValues(metrics.OutcomeInvalidCredentials).Inc()
	span.SetStatus(codes.Error, "invalid credentials")
	return ErrInvalidCredentials
}

// fail records an unexpected error on the span and counter and wraps it with msg
func (s *authService) fail(ctx context.Context, span trace.Span, counter *prometheus.CounterVec, msg string, err error) error {
	counter.WithLabelValues(metrics.OutcomeError).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	s.logger.ErrorContext(ctx, msg, slog.Any("error", err))
	return fmt.Errorf("%s: %w", msg, err)
}
