package models

import "time"

// User represents the user model in the database
type User struct {
	Base
	Email            string     `gorm:"uniqueIndex;not null" json:"email"`
	Password         string     `gorm:"not null" json:"-"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	IsActive         bool       `gorm:"default:true" json:"is_active"`
	RefreshTokenHash string     `gorm:"size:64" json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`

	// Household membership. The owner is the "me" side of every
	// split; the second member is the partner.
	HouseholdID      *string `gorm:"type:uuid;index" json:"household_id,omitempty"`
	IsHouseholdOwner bool    `gorm:"default:false" json:"is_household_owner"`
}

// PaymentSide returns which side of the household's splits this user
// sits on.
func (u *User) PaymentSide() PaymentSource {
	if u.IsHouseholdOwner {
		return SourceMe
	}
	return SourcePartner
}
