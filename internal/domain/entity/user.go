package entity

import (
	"time"
)

// User is the local mirror of an account held by the external identity
// provider. ID is assigned by the provider and is the join key between the
// two systems. HashedPassword is redundant with the provider's credential
// store but allows local authentication paths independent of it.
type User struct {
	ID             string
	Email          string
	HashedPassword string
	FullName       *string
	IsActive       bool
	IsSuperuser    bool
	// RequiresPasswordReset marks rows created through the email-verification
	// self-heal path, where no user-chosen password was available locally.
	RequiresPasswordReset bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// PublicUser is the projection returned to API callers. The password hash is
// never part of it.
type PublicUser struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	FullName    *string `json:"full_name"`
	IsActive    bool    `json:"is_active"`
	IsSuperuser bool    `json:"is_superuser"`
}

// Public returns the caller-visible projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
	}
}
