package model

import (
	"time"
)

type Booking struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty"`
	CustomerID string    `json:"customerId" bson:"customer_id" validate:"required,mongodb"`
	RoomID     string    `json:"roomId" bson:"room_id" validate:"required,mongodb"`
	Date       Day       `json:"date" bson:"date"`
	CreatedAt  time.Time `json:"createdAt" bson:"created_at"`
}

type BookingRequest struct {
	RoomID string `json:"roomId"`
	Date   string `json:"date"`
}

// BookingDetails is a booking joined with its room and, for admin listings, its customer.
type BookingDetails struct {
	Booking  `bson:",inline"`
	Room     *Room        `json:"room,omitempty" bson:"room,omitempty"`
	Customer *UserSummary `json:"customer,omitempty" bson:"customer,omitempty"`
}

type MonthlyReportEntry struct {
	RoomID        string `json:"roomId" bson:"_id"`
	TotalBookings int    `json:"totalBookings" bson:"total_bookings"`
	RoomDetails   []Room `json:"roomDetails" bson:"room_details"`
}
