package model

import (
	"time"
)

// Referrer is a denormalized snapshot of the account that invited this user.
// It is a weak reference: the referrer profile may no longer exist.
type Referrer struct {
	ID             string  `json:"id"`
	FullName       string  `json:"fullName"`
	CommissionRate float64 `json:"commissionRate"`
}

// UserProfile is the Mini App user: identity plus the UZT wallet.
// The client ships this shape on /users/sync, so JSON field names follow
// the Mini App payload (camelCase).
type UserProfile struct {
	ID               string    `json:"id"`
	TelegramID       *int64    `json:"telegramId,omitempty"`
	FirstName        string    `json:"firstName"`
	LastName         *string   `json:"lastName,omitempty"`
	FullName         string    `json:"fullName"`
	Username         *string   `json:"username,omitempty"`
	AvatarURL        *string   `json:"avatarUrl,omitempty"`
	Balance          float64   `json:"balance"` // spendable UZT, never negative
	LifetimeEarned   float64   `json:"lifetimeEarned"`
	LifetimeSpent    float64   `json:"lifetimeSpent"`
	OrdersPlaced     int       `json:"ordersPlaced"`
	TasksCompleted   int       `json:"tasksCompleted"`
	TotalTopUps      int       `json:"totalTopUps"`
	TotalTopUpAmount float64   `json:"totalTopUpAmount"`
	ReferralsCount   int       `json:"referralsCount"`
	ReferralEarnings float64   `json:"referralEarnings"`
	ReferralCode     string    `json:"referralCode"`
	CreatedAt        time.Time `json:"createdAt"`
	PasswordHash     string    `json:"passwordHash"`
	Referrer         *Referrer `json:"referrer,omitempty"`
}
