package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"linkbio/internal/models/db_models"
	"linkbio/internal/models/request_models"
	"linkbio/internal/models/response_models"
	"linkbio/internal/repositories"
	mem "linkbio/pkg/memcache"
	"linkbio/pkg/middleware"
	"linkbio/pkg/utils"
)

const resetTokenTTL = 10 * time.Minute

type AccountServiceInterface interface {
	Register(ctx context.Context, request request_models.SignUpRequest) (*db_models.User, error)
	Login(ctx context.Context, request request_models.LoginRequest) (*response_models.AccountLoginResponse, error)
	Me(ctx context.Context, principal middleware.Principal) (*response_models.AccountResponse, error)
	UpdateProfile(ctx context.Context, principal middleware.Principal, request request_models.UpdateProfileRequest) (*response_models.AccountResponse, error)
	GrantAdmin(ctx context.Context, email string) (*db_models.User, error)
	ListUsers(ctx context.Context) ([]response_models.AdminUserResponse, error)
	DeleteUser(ctx context.Context, principal middleware.Principal, userID uuid.UUID) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, request request_models.ResetPasswordRequest) error
}

type AccountService struct {
	users        repositories.UserRepository
	entitlements EntitlementService
	tokens       *utils.TokenIssuer
	resets       mem.ResetTokenStore
	notifier     Notifier
	log          *zap.Logger
}

func NewAccountService(
	users repositories.UserRepository,
	entitlements EntitlementService,
	tokens *utils.TokenIssuer,
	resets mem.ResetTokenStore,
	notifier Notifier,
	log *zap.Logger,
) AccountServiceInterface {
	return &AccountService{
		users:        users,
		entitlements: entitlements,
		tokens:       tokens,
		resets:       resets,
		notifier:     notifier,
		log:          log,
	}
}

func (a *AccountService) Register(ctx context.Context, request request_models.SignUpRequest) (*db_models.User, error) {
	email := strings.ToLower(strings.TrimSpace(request.Email))

	existing, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if existing != nil {
		return nil, utils.ErrEmailAlreadyExists
	}

	existing, err = a.users.FindByUsername(ctx, request.Username)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if existing != nil {
		return nil, utils.ErrUsernameTaken
	}

	hashedPassword, err := utils.HashPassword(request.Password)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}

	user := &db_models.User{
		Username:       request.Username,
		Email:          email,
		PasswordHash:   hashedPassword,
		SelectedTheme:  db_models.DefaultTheme,
		ProfilePicture: "default.jpg",
	}
	if err := a.users.Create(ctx, user); err != nil {
		return nil, utils.ErrDatabaseError
	}

	a.log.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (a *AccountService) Login(ctx context.Context, request request_models.LoginRequest) (*response_models.AccountLoginResponse, error) {
	startTime := time.Now()

	user, err := a.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(request.Email)))
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if user == nil {
		return nil, utils.ErrInvalidCredentials
	}

	if err := utils.ComparePasswords(user.PasswordHash, request.Password); err != nil {
		return nil, utils.ErrInvalidCredentials
	}

	token, err := a.tokens.CreateToken(user.ID, user.Role())
	if err != nil {
		return nil, err
	}

	ent, err := a.entitlements.Resolve(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	a.log.Debug("login completed", zap.Duration("took", time.Since(startTime)))

	return &response_models.AccountLoginResponse{
		Token:       token,
		AccountType: ent.AccountType,
	}, nil
}

func (a *AccountService) Me(ctx context.Context, principal middleware.Principal) (*response_models.AccountResponse, error) {
	user, err := a.users.FindByID(ctx, principal.UserID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if user == nil {
		return nil, utils.ErrUserNotFound
	}
	return a.toAccountResponse(ctx, user)
}

func (a *AccountService) UpdateProfile(ctx context.Context, principal middleware.Principal, request request_models.UpdateProfileRequest) (*response_models.AccountResponse, error) {
	user, err := a.users.FindByID(ctx, principal.UserID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if user == nil {
		return nil, utils.ErrUserNotFound
	}

	if request.Username != nil && *request.Username != user.Username {
		taken, err := a.users.FindByUsername(ctx, *request.Username)
		if err != nil {
			return nil, utils.ErrDatabaseError
		}
		if taken != nil {
			return nil, utils.ErrUsernameTaken
		}
		user.Username = *request.Username
	}

	if request.SelectedTheme != nil && *request.SelectedTheme != user.SelectedTheme {
		theme := *request.SelectedTheme
		if !IsKnownTheme(theme) {
			return nil, utils.ErrUnknownTheme
		}
		ent, err := a.entitlements.Resolve(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if !CanUseTheme(ent.AccountType, theme) {
			return nil, utils.ErrPremiumThemeRequired
		}
		user.SelectedTheme = theme
	}

	if request.Bio != nil {
		user.Bio = *request.Bio
	}
	if request.PaymentLink != nil {
		user.PaymentLink = *request.PaymentLink
	}
	if request.ProfilePicture != nil {
		user.ProfilePicture = *request.ProfilePicture
	}

	if err := a.users.Update(ctx, user); err != nil {
		return nil, utils.ErrDatabaseError
	}
	return a.toAccountResponse(ctx, user)
}

func (a *AccountService) GrantAdmin(ctx context.Context, email string) (*db_models.User, error) {
	user, err := a.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if user == nil {
		return nil, utils.ErrUserNotFound
	}

	if err := a.users.SetAdmin(ctx, user.ID, true); err != nil {
		return nil, utils.ErrDatabaseError
	}
	user.IsAdmin = true
	a.entitlements.Invalidate(ctx, user.ID)

	a.log.Info("admin privileges granted", zap.String("user_id", user.ID.String()), zap.String("username", user.Username))
	return user, nil
}

func (a *AccountService) ListUsers(ctx context.Context) ([]response_models.AdminUserResponse, error) {
	users, err := a.users.List(ctx)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}

	result := make([]response_models.AdminUserResponse, 0, len(users))
	for _, u := range users {
		accountType := AccountTypeFree
		if ent, err := a.entitlements.Resolve(ctx, u.ID); err == nil {
			accountType = ent.AccountType
		}
		result = append(result, response_models.AdminUserResponse{
			ID:          u.ID.String(),
			Username:    u.Username,
			Email:       u.Email,
			IsAdmin:     u.IsAdmin,
			AccountType: accountType,
			CreatedAt:   utils.FormatRFC3339(utils.FromUnixSeconds(u.CreatedAt)),
		})
	}
	return result, nil
}

func (a *AccountService) DeleteUser(ctx context.Context, principal middleware.Principal, userID uuid.UUID) error {
	if principal.UserID == userID {
		return utils.ErrCannotDeleteSelf
	}

	user, err := a.users.FindByID(ctx, userID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if user == nil {
		return utils.ErrUserNotFound
	}

	if err := a.users.Delete(ctx, userID); err != nil {
		return utils.ErrDatabaseError
	}
	a.entitlements.Invalidate(ctx, userID)

	a.log.Info("user deleted", zap.String("user_id", userID.String()), zap.String("by", principal.UserID.String()))
	return nil
}

// ForgotPassword mails a single-use reset link. Unknown emails succeed silently so the
// endpoint does not reveal which addresses are registered.
func (a *AccountService) ForgotPassword(ctx context.Context, email string) error {
	user, err := a.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return utils.ErrDatabaseError
	}
	if user == nil {
		a.log.Debug("password reset for unknown email")
		return nil
	}

	token, err := utils.GenerateHexToken(32)
	if err != nil {
		return err
	}
	if err := a.resets.Set(ctx, token, user.ID.String(), resetTokenTTL); err != nil {
		a.log.Error("store reset token failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		return utils.ErrDatabaseError
	}

	if err := a.notifier.SendPasswordReset(ctx, user, token); err != nil {
		a.log.Error("send reset mail failed", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	return nil
}

func (a *AccountService) ResetPassword(ctx context.Context, request request_models.ResetPasswordRequest) error {
	userID, err := a.resets.Consume(ctx, request.Token)
	if err != nil {
		a.log.Error("consume reset token failed", zap.Error(err))
		return utils.ErrDatabaseError
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return utils.ErrInvalidResetToken
	}

	user, err := a.users.FindByID(ctx, id)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if user == nil {
		return utils.ErrInvalidResetToken
	}

	hashedPassword, err := utils.HashPassword(request.NewPassword)
	if err != nil {
		return utils.ErrDatabaseError
	}
	user.PasswordHash = hashedPassword
	if err := a.users.Update(ctx, user); err != nil {
		return utils.ErrDatabaseError
	}

	a.log.Info("password reset", zap.String("user_id", user.ID.String()))
	return nil
}

func (a *AccountService) toAccountResponse(ctx context.Context, user *db_models.User) (*response_models.AccountResponse, error) {
	ent, err := a.entitlements.Resolve(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	resp := &response_models.AccountResponse{
		ID:             user.ID.String(),
		Username:       user.Username,
		Email:          user.Email,
		Bio:            user.Bio,
		PaymentLink:    user.PaymentLink,
		SelectedTheme:  user.SelectedTheme,
		ProfilePicture: user.ProfilePicture,
		Role:           user.Role(),
		ProfileViews:   user.ProfileViews,
		AccountType:    ent.AccountType,
		InGrace:        ent.InGrace,
		CreatedAt:      utils.FormatRFC3339(utils.FromUnixSeconds(user.CreatedAt)),
	}
	if ent.ActivePlanID != nil && ent.ActiveUntil != nil {
		resp.Subscription = &response_models.SubscriptionSummary{
			PlanID:  ent.ActivePlanID.String(),
			Status:  ent.ActiveStatus,
			EndDate: utils.FormatRFC3339(utils.FromUnixSeconds(*ent.ActiveUntil)),
		}
	}
	if ent.GraceEnd != nil {
		resp.GraceEnd = utils.FormatRFC3339(utils.FromUnixSeconds(*ent.GraceEnd))
	}
	return resp, nil
}
