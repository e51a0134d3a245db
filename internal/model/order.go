package model

import (
	"time"
)

type OrderType string

const (
	OrderTypeChannel OrderType = "channel"
	OrderTypeGroup   OrderType = "group"
)

func (t OrderType) Valid() bool {
	return t == OrderTypeChannel || t == OrderTypeGroup
}

type OrderStatus string

const (
	OrderStatusActive    OrderStatus = "active"
	OrderStatusCompleted OrderStatus = "completed"
)

// Order is a standing, pre-funded request to acquire subscribers or members
// for a channel/group. Owner fields are a snapshot taken at creation so the
// task feed renders without joining user_profiles.
type Order struct {
	ID             string      `json:"id"`
	OwnerID        string      `json:"ownerId"`
	OwnerName      string      `json:"ownerName"`
	OwnerUsername  *string     `json:"ownerUsername,omitempty"`
	OwnerAvatar    *string     `json:"ownerAvatar,omitempty"`
	Type           OrderType   `json:"type"`
	ChatIdentifier string      `json:"-"` // @handle used for membership checks, not exposed
	Link           string      `json:"link"`
	RequestedCount int         `json:"requestedCount"`
	CompletedCount int         `json:"completedCount"`
	PricePerUnit   float64     `json:"pricePerUnit"`
	TotalBudget    float64     `json:"totalBudget"`
	Status         OrderStatus `json:"status"`
	CreatedAt      time.Time   `json:"createdAt"`
	BotIsAdmin     bool        `json:"botIsAdmin"`
}

// TaskCompletion records that a user fulfilled one unit of an order.
// (order_id, user_id) is unique at the storage level.
type TaskCompletion struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"orderId"`
	UserID      string    `json:"userId"`
	CompletedAt time.Time `json:"completedAt"`
}
