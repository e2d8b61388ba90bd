package models

import "time"

type UserType string

const (
	UserTypeBuyer  UserType = "BUYER"
	UserTypeSeller UserType = "SELLER"
	UserTypeBoth   UserType = "BOTH"
)

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusPending   UserStatus = "pending"
)

type User struct {
	ID               string
	Email            string
	PhoneNumber      string
	PasswordHash     []byte
	FirstName        string
	LastName         string
	UserType         UserType
	Role             UserRole
	Status           UserStatus
	Region           string
	City             string
	Address          string
	BusinessName     string
	IsVerifiedSeller bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CanSell reports whether the account may create listings.
func (u User) CanSell() bool {
	return u.UserType == UserTypeSeller || u.UserType == UserTypeBoth
}

func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type Session struct {
	ID               string
	UserID           string
	DeviceID         string
	DeviceName       string
	RefreshTokenHash []byte
	IPAddress        string
	UserAgent        string
	CreatedAt        time.Time
	LastSeenAt       time.Time
	ExpiresAt        time.Time
}
