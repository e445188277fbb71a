package model

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

type User struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty"`
	Username     string    `json:"username" bson:"username" validate:"required,min=3,max=50,username"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Role         Role      `json:"role" bson:"role" validate:"required,oneof=customer admin"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
}

// UserSummary is the public projection embedded in admin booking listings.
type UserSummary struct {
	ID       string `json:"id" bson:"_id"`
	Username string `json:"username" bson:"username"`
	Role     Role   `json:"role" bson:"role"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Registration struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     Role   `json:"role" validate:"omitempty,oneof=customer admin"`
}
