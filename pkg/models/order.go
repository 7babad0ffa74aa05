package models

import (
	"time"
)

// Order statuses. Any status may be set to any other; there is no
// transition graph beyond membership in this set.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

var orderStatuses = map[string]bool{
	StatusPending:   true,
	StatusConfirmed: true,
	StatusShipped:   true,
	StatusDelivered: true,
	StatusCancelled: true,
}

func ValidStatus(s string) bool {
	return orderStatuses[s]
}

// OrderStatuses returns the fixed status set, for error messages.
func OrderStatuses() []string {
	return []string{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled}
}

// UserSnapshot is the denormalized slice of the directory record captured at
// order creation. It may drift from the authoritative remote state.
type UserSnapshot struct {
	ID    string `bson:"id" json:"id"`
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
}

// ProductSnapshot captures the catalog fields needed for display.
type ProductSnapshot struct {
	Name  string  `bson:"name" json:"name"`
	Price float64 `bson:"price" json:"price"`
}

type Order struct {
	ID             string          `bson:"_id,omitempty" json:"id"`
	UserID         string          `bson:"userId" json:"userId"`
	ProductID      string          `bson:"productId" json:"productId"`
	Quantity       int             `bson:"quantity" json:"quantity"`
	TotalPrice     float64         `bson:"totalPrice" json:"totalPrice"`
	Status         string          `bson:"status" json:"status"`
	UserDetails    UserSnapshot    `bson:"userDetails" json:"userDetails"`
	ProductDetails ProductSnapshot `bson:"productDetails" json:"productDetails"`
	CreatedAt      time.Time       `bson:"createdAt" json:"createdAt"`
}
