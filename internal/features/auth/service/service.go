package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	initdata "github.com/telegram-mini-apps/init-data-golang"
	"golang.org/x/crypto/bcrypt"

	apperrors "agrihub-backend/internal/common/errors"
	"agrihub-backend/internal/common/logger"
	"agrihub-backend/internal/common/validation"
	"agrihub-backend/internal/features/auth/models"
	"agrihub-backend/internal/features/auth/repository"
	channelservice "agrihub-backend/internal/features/channel/service"
	usermodels "agrihub-backend/internal/features/user/models"
	userrepo "agrihub-backend/internal/features/user/repository"
)

type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	TelegramLogin(ctx context.Context, req models.TelegramLoginRequest) (*models.AuthResponse, error)
	Logout(ctx context.Context, uid string) error
	RequestPasswordReset(ctx context.Context, identifier string) (string, error)
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error

	// Admin code management.
	ListCodes(ctx context.Context) ([]*models.ProductCode, error)
	GenerateCodes(ctx context.Context, prefix string, count int) ([]string, error)
}

type Config struct {
	JWTSecret        string
	TokenTTL         time.Duration
	MasterCode       string
	PhoneEmailDomain string
	TelegramBotToken string
	InitDataTTL      time.Duration
}

type authService struct {
	cfg      Config
	users    userrepo.UserRepository
	codes    repository.CodeRepository
	sessions repository.SessionRepository
	resets   repository.ResetTokenRepository
	registry *channelservice.Registry
}

func NewAuthService(
	cfg Config,
	users userrepo.UserRepository,
	codes repository.CodeRepository,
	sessions repository.SessionRepository,
	resets repository.ResetTokenRepository,
	registry *channelservice.Registry,
) AuthService {
	return &authService{
		cfg:      cfg,
		users:    users,
		codes:    codes,
		sessions: sessions,
		resets:   resets,
		registry: registry,
	}
}

// normalizeIdentifier strips whitespace and maps phone numbers onto the
// synthetic email domain; real email addresses pass through unchanged.
func (s *authService) normalizeIdentifier(identifier string) (email, phone string, err error) {
	clean := strings.ReplaceAll(strings.TrimSpace(identifier), " ", "")
	if err := validation.ValidateIdentifier(clean); err != nil {
		return "", "", apperrors.NewValidationError("identifier", err.Error())
	}
	if strings.Contains(clean, "@") {
		return strings.ToLower(clean), "", nil
	}
	return fmt.Sprintf("%s@%s", clean, s.cfg.PhoneEmailDomain), clean, nil
}

func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	email, phone, err := s.normalizeIdentifier(req.Identifier)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.NewValidationError("password", err.Error())
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflictError("user", "this phone number or email is already registered")
	}

	code := strings.ToUpper(strings.TrimSpace(req.ProductCode))
	role := usermodels.RoleUser
	allowedChannels := []string{channelservice.OpenChannelID}

	master, err := s.isMasterBootstrap(ctx, code)
	if err != nil {
		return nil, err
	}
	if master {
		// One-time bootstrap: the first admin account gets every channel.
		role = usermodels.RoleAdmin
		allowedChannels = s.registry.IDs()
	} else {
		pc, err := s.codes.Get(ctx, code)
		if err != nil {
			if err == repository.ErrCodeNotFound {
				return nil, apperrors.New(apperrors.ErrCodeInvalidCode, "Product code is invalid")
			}
			return nil, apperrors.NewStoreError("get product code", err)
		}
		if pc.IsUsed {
			return nil, apperrors.New(apperrors.ErrCodeCodeUsed, "Product code has already been used")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "hash password")
	}

	now := usermodels.NowMillis()
	user := &usermodels.User{
		UID:             uuid.New().String(),
		PhoneNumber:     phone,
		Email:           email,
		PasswordHash:    string(hash),
		Role:            role,
		ActivatedCode:   code,
		DisplayName:     strings.TrimSpace(req.DisplayName),
		AllowedChannels: allowedChannels,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.NewStoreError("create user", err)
	}

	if !master {
		if err := s.codes.MarkUsed(ctx, code, user.UID); err != nil {
			// The account exists; a code left unmarked is recoverable by an
			// admin, so log and continue.
			logger.Error().Err(err).Str("code", code).Msg("Failed to mark product code as used")
		}
	}

	return s.issue(user)
}

// isMasterBootstrap accepts the configured master code only while no admin
// profile exists yet. An unset master code never matches.
func (s *authService) isMasterBootstrap(ctx context.Context, code string) (bool, error) {
	if s.cfg.MasterCode == "" || code != s.cfg.MasterCode {
		return false, nil
	}
	hasAdmin, err := s.users.HasAdmin(ctx)
	if err != nil {
		return false, apperrors.NewStoreError("check admin bootstrap", err)
	}
	if hasAdmin {
		return false, apperrors.New(apperrors.ErrCodeInvalidCode, "Product code is invalid")
	}
	return true, nil
}

func (s *authService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	email, _, err := s.normalizeIdentifier(req.Identifier)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// Same message for missing account and bad password.
		return nil, apperrors.NewUnauthorizedError("account does not exist or password is incorrect")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, apperrors.NewUnauthorizedError("account does not exist or password is incorrect")
	}

	return s.issue(user)
}

func (s *authService) issue(user *usermodels.User) (*models.AuthResponse, error) {
	id := models.Identity{
		UID:         user.UID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}
	token, err := models.SignToken(s.cfg.JWTSecret, id, s.cfg.TokenTTL)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "sign token")
	}
	return &models.AuthResponse{Token: token, User: user.Response()}, nil
}

// TelegramLogin validates mini-app init data and creates a lightweight
// session with no backing profile record. The cached session record carries
// an explicit role for the resolver.
func (s *authService) TelegramLogin(ctx context.Context, req models.TelegramLoginRequest) (*models.AuthResponse, error) {
	if s.cfg.TelegramBotToken == "" {
		return nil, apperrors.NewUnauthorizedError("telegram login is not configured")
	}

	if err := initdata.Validate(req.InitData, s.cfg.TelegramBotToken, s.cfg.InitDataTTL); err != nil {
		return nil, apperrors.NewUnauthorizedError("invalid telegram init data")
	}

	parsed, err := initdata.Parse(req.InitData)
	if err != nil {
		return nil, apperrors.NewValidationError("init_data", err.Error())
	}

	uid := fmt.Sprintf("tg-%d", parsed.User.ID)
	displayName := strings.TrimSpace(parsed.User.FirstName + " " + parsed.User.LastName)

	rec := &models.SessionRecord{
		UID:             uid,
		Role:            usermodels.RoleUser,
		AllowedChannels: []string{channelservice.OpenChannelID},
		DisplayName:     displayName,
		CreatedAt:       usermodels.NowMillis(),
	}
	if err := s.sessions.Save(ctx, rec); err != nil {
		return nil, apperrors.NewStoreError("save session", err)
	}

	id := models.Identity{
		UID:         uid,
		DisplayName: displayName,
		Role:        usermodels.RoleUser,
		Lightweight: true,
	}
	token, err := models.SignToken(s.cfg.JWTSecret, id, s.cfg.TokenTTL)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "sign token")
	}
	return &models.AuthResponse{Token: token}, nil
}

func (s *authService) Logout(ctx context.Context, uid string) error {
	if err := s.sessions.Delete(ctx, uid); err != nil {
		return apperrors.NewStoreError("delete session", err)
	}
	return nil
}

// RequestPasswordReset issues a single-use token for real-email accounts.
// Phone-backed accounts have no reachable mailbox behind their synthetic
// address, so they are directed to support instead.
func (s *authService) RequestPasswordReset(ctx context.Context, identifier string) (string, error) {
	email, phone, err := s.normalizeIdentifier(identifier)
	if err != nil {
		return "", err
	}
	if phone != "" {
		return "", apperrors.NewValidationError("identifier",
			"accounts registered by phone number must contact support for a password reset")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// Do not reveal whether the account exists.
		return "", nil
	}

	token := uuid.New().String()
	if err := s.resets.Save(ctx, token, user.UID); err != nil {
		return "", apperrors.NewStoreError("save reset token", err)
	}

	logger.Info().Str("uid", user.UID).Msg("Password reset token issued")
	return token, nil
}

func (s *authService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return apperrors.NewValidationError("new_password", err.Error())
	}

	uid, err := s.resets.Consume(ctx, token)
	if err != nil {
		if err == repository.ErrTokenNotFound {
			return apperrors.NewUnauthorizedError("reset token is invalid or expired")
		}
		return apperrors.NewStoreError("consume reset token", err)
	}

	user, err := s.users.GetByUID(ctx, uid)
	if err != nil {
		return apperrors.NewNotFoundError("user", uid)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "hash password")
	}
	user.PasswordHash = string(hash)

	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.NewStoreError("update user", err)
	}
	return nil
}

func (s *authService) ListCodes(ctx context.Context) ([]*models.ProductCode, error) {
	codes, err := s.codes.List(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError("list product codes", err)
	}
	return codes, nil
}

func (s *authService) GenerateCodes(ctx context.Context, prefix string, count int) ([]string, error) {
	if count <= 0 || count > 1000 {
		return nil, apperrors.NewValidationError("count", "must be between 1 and 1000")
	}
	if prefix == "" {
		prefix = "AGRI"
	}
	prefix = strings.ToUpper(strings.TrimSpace(prefix))

	now := usermodels.NowMillis()
	generated := make([]string, 0, count)
	for i := 0; i < count; i++ {
		code := fmt.Sprintf("%s-%s", prefix, strings.ToUpper(uuid.New().String()[:8]))
		if err := s.codes.Create(ctx, &models.ProductCode{Code: code, CreatedAt: now}); err != nil {
			return generated, apperrors.NewStoreError("create product code", err)
		}
		generated = append(generated, code)
	}
	return generated, nil
}
