package model

import "strings"

type RoomType string

const (
	RoomTypeBasic   RoomType = "Basic"
	RoomTypePremium RoomType = "Premium"
	RoomTypeSuite   RoomType = "Suite"
)

var RoomTypes = []RoomType{RoomTypeBasic, RoomTypePremium, RoomTypeSuite}

func (t RoomType) Valid() bool {
	for _, known := range RoomTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseRoomType matches s against the known types ignoring case and surrounding space.
func ParseRoomType(s string) (RoomType, bool) {
	s = strings.TrimSpace(s)
	for _, known := range RoomTypes {
		if strings.EqualFold(s, string(known)) {
			return known, true
		}
	}
	return "", false
}

type Room struct {
	ID           string   `json:"id,omitempty" bson:"_id,omitempty"`
	Name         string   `json:"name" bson:"name" validate:"required,min=1,max=100"`
	Type         RoomType `json:"type" bson:"type" validate:"required,oneof=Basic Premium Suite"`
	Price        float64  `json:"price" bson:"price" validate:"required,gt=0"`
	Availability bool     `json:"availability" bson:"availability"`
	BookedDates  []Day    `json:"bookedDates" bson:"booked_dates"`
}

type RoomCreate struct {
	Name         string   `json:"name" validate:"required,min=1,max=100"`
	Type         RoomType `json:"type" validate:"required,oneof=Basic Premium Suite"`
	Price        float64  `json:"price" validate:"required,gt=0"`
	Availability *bool    `json:"availability,omitempty"`
}

// RoomUpdate is a partial update. Booked dates are owned by bookings and cannot be edited here.
type RoomUpdate struct {
	Name         *string   `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Type         *RoomType `json:"type,omitempty" validate:"omitempty,oneof=Basic Premium Suite"`
	Price        *float64  `json:"price,omitempty" validate:"omitempty,gt=0"`
	Availability *bool     `json:"availability,omitempty"`
}

func (u *RoomUpdate) IsEmpty() bool {
	return u == nil || (u.Name == nil && u.Type == nil && u.Price == nil && u.Availability == nil)
}

// RoomEdit is the body of an admin room edit.
type RoomEdit struct {
	RoomID  string      `json:"roomId"`
	Updates *RoomUpdate `json:"updates"`
}
