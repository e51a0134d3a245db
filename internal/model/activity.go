package model

import (
	"time"
)

type ActivityType string

const (
	ActivityTypeTopUp    ActivityType = "topup"
	ActivityTypeSpend    ActivityType = "spend"
	ActivityTypeEarn     ActivityType = "earn"
	ActivityTypeReferral ActivityType = "referral"
)

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityTypeTopUp, ActivityTypeSpend, ActivityTypeEarn, ActivityTypeReferral:
		return true
	}
	return false
}

// ActivityEvent is an append-only display/audit ledger entry. The id is
// supplied by the caller so retried submissions stay idempotent. The log is
// advisory: the balance source of truth lives on UserProfile.
type ActivityEvent struct {
	ID          string       `json:"id"`
	Type        ActivityType `json:"type"`
	Amount      float64      `json:"amount"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"createdAt"`
}
