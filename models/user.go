package models

import (
	"errors"

	goval "github.com/go-passwd/validator"
	"github.com/leebenson/conform"
	"golang.org/x/crypto/bcrypt"
)

// User represents a survey panel member or an admin.
// Points is only ever changed by relative ledger updates.
type User struct {
	Model
	Name           string `json:"name" conform:"trim" binding:"required,min=2"`
	Email          string `json:"email" gorm:"uniqueIndex;not null" conform:"trim,lower" binding:"required,email"`
	Phone          string `json:"phone" conform:"trim" binding:"required"`
	Country        string `json:"country" conform:"trim" binding:"required"`
	Speciality     string `json:"speciality" gorm:"index" conform:"trim,title"`
	Password       string `json:"password,omitempty" gorm:"-" validate:"omitempty,min=6"`
	HashedPassword string `json:"-" gorm:"not null"`
	Points         int    `json:"points" gorm:"not null;default:0;check:points >= 0"`
	IsActive       bool   `json:"is_active" gorm:"not null;default:true"`
	Role           string `json:"role" gorm:"not null;default:'user';index"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// VerifyPassword verifies the collected password with the user's hashed password
func (u *User) VerifyPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password))
}

func ValidatePassword(password string) error {
	passwordValidator := goval.New(goval.MinLength(6, errors.New("password cant be less than 6 characters")),
		goval.MaxLength(64, errors.New("password cant be more than 64 characters")))
	return passwordValidator.Validate(password)
}

// Sanitize trims and normalises the string fields tagged with conform.
func Sanitize(data interface{}) error {
	return conform.Strings(data)
}

type SignupRequest struct {
	Name       string `json:"name" conform:"trim" binding:"required,min=2" validate:"required,min=2"`
	Email      string `json:"email" conform:"trim,lower" binding:"required,email" validate:"required,email"`
	Phone      string `json:"phone" conform:"trim" binding:"required" validate:"required"`
	Country    string `json:"country" conform:"trim" binding:"required" validate:"required"`
	Speciality string `json:"speciality" conform:"trim,title"`
	Password   string `json:"password" binding:"required" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" conform:"trim,lower" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	UserResponse
	AccessToken string `json:"access_token"`
}

type UserResponse struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Country    string `json:"country"`
	Speciality string `json:"speciality"`
	Points     int    `json:"points"`
	IsActive   bool   `json:"is_active"`
	Role       string `json:"role"`
}

func (u *User) Response() UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		Country:    u.Country,
		Speciality: u.Speciality,
		Points:     u.Points,
		IsActive:   u.IsActive,
		Role:       u.Role,
	}
}

// UpdateUserRequest is the admin edit payload. Nil fields are left alone;
// points cannot be edited here.
type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=2"`
	Phone    *string `json:"phone"`
	Country  *string `json:"country"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password"`
}

type UserStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type GrantPointsRequest struct {
	Points int `json:"points" binding:"required,gt=0"`
}

type UserFilter struct {
	Page     int
	Limit    int
	IsActive *bool
}
