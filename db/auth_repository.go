package db

import (
	"context"
	"log"

	errs "github.com/kphotone-reward/backend/errors"
	"github.com/kphotone-reward/backend/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type AuthRepository interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	IsEmailExist(ctx context.Context, email string) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	UpdateUserFields(ctx context.Context, id uint, fields map[string]interface{}) (*models.User, error)
	SetUserActive(ctx context.Context, id uint, active bool) (*models.User, error)
	ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, int64, error)
	CountUsers(ctx context.Context, activeOnly bool) (int64, error)
}

type authRepo struct {
	DB *gorm.DB
}

func NewAuthRepo(db *GormDB) AuthRepository {
	return &authRepo{db.DB}
}

// editableUserColumns are the only columns an admin edit may touch.
var editableUserColumns = map[string]bool{
	"name":            true,
	"phone":           true,
	"country":         true,
	"is_active":       true,
	"hashed_password": true,
}

func (a *authRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil {
		log.Println("CreateUser error: user is nil")
		return nil, errors.New("user is nil")
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if !models.IsValidRole(user.Role) {
		return nil, errs.ErrBadRequest.WithMessage("unknown role %q", user.Role)
	}
	user.Points = 0

	if err := a.DB.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.GetUniqueContraintError(errors.New("email"))
		}
		log.Printf("CreateUser error: %v", err)
		return nil, errors.Wrap(err, "create user")
	}
	return user, nil
}

func (a *authRepo) IsEmailExist(ctx context.Context, email string) error {
	var count int64
	err := a.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return errors.Wrap(err, "gorm count error")
	}
	if count > 0 {
		return errs.ErrAlreadyExists.WithMessage("email already exists")
	}
	return nil
}

func (a *authRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := a.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound.WithMessage("user not found")
		}
		return nil, errors.Wrap(err, "find user by email")
	}
	return &user, nil
}

func (a *authRepo) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := a.DB.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound.WithMessage("user %d not found", id)
		}
		return nil, errors.Wrapf(err, "find user %d", id)
	}
	return &user, nil
}

// UpdateUserFields applies an admin edit. Points can never be set here.
func (a *authRepo) UpdateUserFields(ctx context.Context, id uint, fields map[string]interface{}) (*models.User, error) {
	for column := range fields {
		if !editableUserColumns[column] {
			return nil, errs.ErrBadRequest.WithMessage("field %s cannot be edited", column)
		}
	}
	if len(fields) > 0 {
		res := a.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, errors.Wrapf(res.Error, "update user %d", id)
		}
		if res.RowsAffected == 0 {
			return nil, errs.ErrNotFound.WithMessage("user %d not found", id)
		}
	}
	return a.FindUserByID(ctx, id)
}

func (a *authRepo) SetUserActive(ctx context.Context, id uint, active bool) (*models.User, error) {
	return a.UpdateUserFields(ctx, id, map[string]interface{}{"is_active": active})
}

func (a *authRepo) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, int64, error) {
	query := a.DB.WithContext(ctx).Model(&models.User{})
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count users")
	}

	var users []models.User
	err := query.Order("created_at DESC, id DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list users")
	}
	return users, total, nil
}

func (a *authRepo) CountUsers(ctx context.Context, activeOnly bool) (int64, error) {
	query := a.DB.WithContext(ctx).Model(&models.User{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "count users")
	}
	return count, nil
}
