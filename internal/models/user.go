package models

import "time"

// User account status
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// Delivery frequency values for newsletter scheduling
const (
	FrequencyDaily    = "daily"
	FrequencyWeekly   = "weekly"
	FrequencyBiweekly = "biweekly"
	FrequencyMonthly  = "monthly"
)

// User is a newsletter author account
type User struct {
	ID            string        `json:"id"`
	Email         string        `json:"email"`
	PasswordHash  string        `json:"-"`
	DisplayName   string        `json:"displayName"`
	DeliveryEmail string        `json:"deliveryEmail,omitempty"`
	Status        string        `json:"status"`
	Preferences   Preferences   `json:"preferences"`
	VoiceProfile  *VoiceProfile `json:"voiceProfile,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	LastLoginAt   *time.Time    `json:"lastLoginAt,omitempty"`
}

// Preferences holds a user's delivery settings
type Preferences struct {
	DeliveryFrequency  string `json:"deliveryFrequency"`
	DeliveryDay        string `json:"deliveryDay"`
	DeliveryTime       string `json:"deliveryTime"` // "HH:MM"
	EmailNotifications bool   `json:"emailNotifications"`
}

// DefaultPreferences matches the fallbacks applied when a user has not set
// delivery preferences.
func DefaultPreferences() Preferences {
	return Preferences{
		DeliveryFrequency:  FrequencyWeekly,
		DeliveryDay:        "monday",
		DeliveryTime:       "08:00",
		EmailNotifications: true,
	}
}

// RecipientEmail returns the address newsletters should be delivered to
func (u *User) RecipientEmail() string {
	if u.DeliveryEmail != "" {
		return u.DeliveryEmail
	}
	return u.Email
}

// CreateUserParams are the fields required to create a user
type CreateUserParams struct {
	Email        string
	PasswordHash string
	DisplayName  string
	Status       string
}

// SignupParams is the signup request payload
type SignupParams struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// LoginParams is the login request payload
type LoginParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
