package models

import "time"

// Role of a user. It is only ever changed out of band.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Address is a postal address.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
}

// Preferences holds dietary and spice preferences.
type Preferences struct {
	Dietary    []string `json:"dietary" gorm:"serializer:json;type:text"`
	SpiceLevel string   `json:"spiceLevel,omitempty"`
}

// SubscriptionStatus is the state of a meal-plan subscription.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
	SubscriptionPaused   SubscriptionStatus = "paused"
)

// Subscription is a user's meal plan.
type Subscription struct {
	Plan      string             `json:"plan,omitempty"`
	Status    SubscriptionStatus `json:"status,omitempty"`
	StartDate *time.Time         `json:"startDate,omitempty"`
	EndDate   *time.Time         `json:"endDate,omitempty"`
}

// User is the local record of an external identity. EmailVerified is only
// true when the identity authority vouched for Email.
type User struct {
	ID            string       `json:"id" gorm:"primaryKey;type:varchar(36)"`
	FirebaseUID   string       `json:"firebaseUid" gorm:"uniqueIndex;type:varchar(128);not null"`
	Email         string       `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	EmailVerified bool         `json:"emailVerified" gorm:"not null;default:false"`
	Name          string       `json:"name,omitempty"`
	Phone         string       `json:"phone,omitempty"`
	Address       Address      `json:"address" gorm:"embedded;embeddedPrefix:address_"`
	Preferences   Preferences  `json:"preferences" gorm:"embedded;embeddedPrefix:preferences_"`
	Subscription  Subscription `json:"subscription" gorm:"embedded;embeddedPrefix:subscription_"`
	Role          Role         `json:"role" gorm:"type:varchar(16);not null"`
	CreatedAt     time.Time    `json:"createdAt" gorm:"index"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}
