package models

import (
	"time"
)

// Role discriminates the two kinds of accounts.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleProvider
}

type User struct {
	ID             int       `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FullName       string    `json:"fullName"`
	Role           Role      `json:"userType"`
	Password       string    `json:"-"`
	Phone          *string   `json:"phone,omitempty"`
	Bio            *string   `json:"bio,omitempty"`
	ProfilePicture *string   `json:"profilePicture,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// SignUpRequest is the registration payload. Provider-only fields are ignored
// for customers.
type SignUpRequest struct {
	Role     Role    `json:"userType" validate:"required,oneof=customer provider"`
	Username string  `json:"username" validate:"required,min=3,max=50"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	FullName string  `json:"fullName" validate:"required,min=2,max=100"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Bio      *string `json:"bio,omitempty" validate:"omitempty,max=1000"`

	CompanyName string   `json:"companyName" validate:"omitempty,min=2,max=100"`
	CategoryID  int      `json:"categoryId" validate:"gte=0"`
	Description string   `json:"description" validate:"omitempty,max=2000"`
	Location    string   `json:"location" validate:"omitempty,max=200"`
	Experience  int      `json:"experience" validate:"gte=0,lte=100"`
	ContactInfo string   `json:"contactInfo" validate:"omitempty,max=200"`
	Tags        []string `json:"tags" validate:"omitempty,max=20,dive,min=1,max=50"`
}

type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignUpResponse carries the created user and, for providers, the profile.
type SignUpResponse struct {
	User     User             `json:"user"`
	Provider *ServiceProvider `json:"provider,omitempty"`
}

type SignInResponse struct {
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}
