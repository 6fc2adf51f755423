package services

import (
	"context"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kphotone-reward/backend/config"
	"github.com/kphotone-reward/backend/db"
	apiError "github.com/kphotone-reward/backend/errors"
	"github.com/kphotone-reward/backend/models"
	"github.com/kphotone-reward/backend/services/jwt"
	"github.com/kphotone-reward/backend/services/utils"
	"github.com/pkg/errors"
)

// AuthService interface
type AuthService interface {
	SignupUser(ctx context.Context, request *models.SignupRequest) (*models.User, error)
	LoginUser(ctx context.Context, request *models.LoginRequest) (*models.LoginResponse, error)
	GetUserProfile(ctx context.Context, userID uint) (*models.User, error)
	ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, int64, error)
	UpdateUser(ctx context.Context, userID uint, request *models.UpdateUserRequest) (*models.User, error)
	SetUserStatus(ctx context.Context, userID uint, active bool) (*models.User, error)
	GrantPoints(ctx context.Context, adminID, userID uint, points int) (int, error)
}

// authService struct
type authService struct {
	Config     *config.Config
	authRepo   db.AuthRepository
	ledgerRepo db.LedgerRepository
	validate   *validator.Validate
}

// NewAuthService instantiate an authService
func NewAuthService(authRepo db.AuthRepository, ledgerRepo db.LedgerRepository, conf *config.Config) AuthService {
	return &authService{
		Config:     conf,
		authRepo:   authRepo,
		ledgerRepo: ledgerRepo,
		validate:   validator.New(),
	}
}

func (a *authService) SignupUser(ctx context.Context, request *models.SignupRequest) (*models.User, error) {
	if request == nil {
		return nil, apiError.ErrBadRequest.WithMessage("signup request is empty")
	}
	if err := models.Sanitize(request); err != nil {
		return nil, errors.Wrap(err, "sanitize signup")
	}
	if err := a.validate.Struct(request); err != nil {
		return nil, apiError.ErrBadRequest.WithMessage("%s", validationMessage(err))
	}
	if err := models.ValidatePassword(request.Password); err != nil {
		return nil, apiError.ErrBadRequest.WithMessage("%s", err.Error())
	}

	if err := a.authRepo.IsEmailExist(ctx, request.Email); err != nil {
		log.Printf("SignupUser error: %v", err)
		return nil, err
	}

	hashedPassword, err := utils.HashPassword(request.Password)
	if err != nil {
		log.Printf("SignupUser error hashing password: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	user := &models.User{
		Name:           request.Name,
		Email:          request.Email,
		Phone:          request.Phone,
		Country:        request.Country,
		Speciality:     request.Speciality,
		HashedPassword: hashedPassword,
		Role:           models.RoleUser,
		IsActive:       true,
	}
	user, err = a.authRepo.CreateUser(ctx, user)
	if err != nil {
		log.Printf("SignupUser error creating user: %v", err)
		return nil, err
	}
	return user, nil
}

// LoginUser logs in a user and returns the login response
func (a *authService) LoginUser(ctx context.Context, request *models.LoginRequest) (*models.LoginResponse, error) {
	if err := models.Sanitize(request); err != nil {
		return nil, errors.Wrap(err, "sanitize login")
	}

	foundUser, err := a.authRepo.FindUserByEmail(ctx, request.Email)
	if err != nil {
		if errors.Is(err, apiError.ErrNotFound) {
			return nil, apiError.ErrInvalidPassword
		}
		log.Printf("Error finding user by email: %v", err)
		return nil, err
	}

	if err := foundUser.VerifyPassword(request.Password); err != nil {
		log.Printf("Invalid password for user %s", foundUser.Email)
		return nil, apiError.ErrInvalidPassword
	}
	if !foundUser.IsActive {
		return nil, apiError.InActiveUserError
	}

	accessToken, err := jwt.GenerateToken(foundUser.ID, foundUser.Email, foundUser.Role, a.Config.JWTSecret, a.Config.TokenTTL)
	if err != nil {
		log.Printf("Error generating token for user %s: %v", foundUser.Email, err)
		return nil, apiError.ErrInternalServerError
	}

	return &models.LoginResponse{
		UserResponse: foundUser.Response(),
		AccessToken:  accessToken,
	}, nil
}

func (a *authService) GetUserProfile(ctx context.Context, userID uint) (*models.User, error) {
	return a.authRepo.FindUserByID(ctx, userID)
}

func (a *authService) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, int64, error) {
	return a.authRepo.ListUsers(ctx, filter)
}

// UpdateUser applies the non-nil fields of request. Balances are not editable.
func (a *authService) UpdateUser(ctx context.Context, userID uint, request *models.UpdateUserRequest) (*models.User, error) {
	fields := map[string]interface{}{}
	if request.Name != nil {
		fields["name"] = strings.TrimSpace(*request.Name)
	}
	if request.Phone != nil {
		fields["phone"] = strings.TrimSpace(*request.Phone)
	}
	if request.Country != nil {
		fields["country"] = strings.TrimSpace(*request.Country)
	}
	if request.IsActive != nil {
		fields["is_active"] = *request.IsActive
	}
	if request.Password != nil {
		if err := models.ValidatePassword(*request.Password); err != nil {
			return nil, apiError.ErrBadRequest.WithMessage("%s", err.Error())
		}
		hashed, err := utils.HashPassword(*request.Password)
		if err != nil {
			return nil, apiError.ErrInternalServerError
		}
		fields["hashed_password"] = hashed
	}
	return a.authRepo.UpdateUserFields(ctx, userID, fields)
}

func (a *authService) SetUserStatus(ctx context.Context, userID uint, active bool) (*models.User, error) {
	return a.authRepo.SetUserActive(ctx, userID, active)
}

// GrantPoints credits points to a user outside of any survey.
func (a *authService) GrantPoints(ctx context.Context, adminID, userID uint, points int) (int, error) {
	if points <= 0 {
		return 0, apiError.ErrInvalidPoints.WithMessage("points must be positive")
	}
	balance, err := a.ledgerRepo.Credit(ctx, userID, points, models.ReasonAdminGrant, adminID)
	if err != nil {
		return 0, err
	}
	log.Printf("admin %d granted %d points to user %d", adminID, points, userID)
	return balance, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, strings.ToLower(fe.Field())+" failed on "+fe.Tag())
	}
	return strings.Join(msgs, ", ")
}
