package models

import (
	"time"
)

// Direction is the side of the threshold a price watch waits for
type Direction string

const (
	DirectionAbove Direction = "above"
	DirectionBelow Direction = "below"
)

// Valid reports whether d is a known direction
func (d Direction) Valid() bool {
	return d == DirectionAbove || d == DirectionBelow
}

// PriceNotification is a user's price-watch alert on a single product
type PriceNotification struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	ProductID          string     `json:"product_id"`
	Threshold          float64    `json:"threshold"`
	Direction          Direction  `json:"direction"`
	IsActive           bool       `json:"is_active"`
	LastEvaluatedPrice *float64   `json:"last_evaluated_price,omitempty"`
	LastObservedAt     *time.Time `json:"last_observed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// PriceNotificationWithProduct includes the watched product's display fields
type PriceNotificationWithProduct struct {
	PriceNotification
	ProductName  string  `json:"product_name"`
	ProductSlug  string  `json:"product_slug"`
	CurrentPrice float64 `json:"current_price"`
}

// CreateNotificationRequest is the request body for registering a price watch
type CreateNotificationRequest struct {
	ProductID string    `json:"product_id"`
	Threshold float64   `json:"threshold"`
	Direction Direction `json:"direction"`
}

// SetActiveRequest is the request body for pausing or resuming a price watch
type SetActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// PriceObservation is a single price reading for a product
type PriceObservation struct {
	ProductID  string    `json:"product_id"`
	Price      float64   `json:"price"`
	ObservedAt time.Time `json:"observed_at"`
}

// AlertEvent is emitted when a price crosses into a notification's threshold zone
type AlertEvent struct {
	NotificationID string    `json:"notification_id"`
	UserID         string    `json:"user_id"`
	ProductID      string    `json:"product_id"`
	Price          float64   `json:"price"`
	Direction      Direction `json:"direction"`
	Threshold      float64   `json:"threshold"`
	FiredAt        time.Time `json:"fired_at"`
}
