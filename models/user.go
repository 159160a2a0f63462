// models/user.go
package models

import "time"

type Role string

const (
	RoleClient       Role = "client"
	RoleProfessional Role = "professional"
	RoleAdmin        Role = "admin"
	RoleSystem       Role = "system"
)

// Principal is any account that can take part in a booking.
type Principal struct {
	ID              string    `bson:"id" json:"id" gorm:"primaryKey;type:varchar(36)"`
	Role            Role      `bson:"role" json:"role" gorm:"size:20;not null"`
	DisplayName     string    `bson:"displayName" json:"displayName" gorm:"size:255"`
	Email           string    `bson:"email" json:"email" gorm:"size:255"`
	PseudonymousID  string    `bson:"pseudonymousId" json:"pseudonymousId" gorm:"size:32;uniqueIndex;not null"`
	IsPeerCounselor bool      `bson:"isPeerCounselor" json:"isPeerCounselor" gorm:"not null;default:false"`
	FCMToken        string    `bson:"fcmToken,omitempty" json:"-" gorm:"size:512"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role Role
}

// SystemActor is used by the lifecycle scheduler.
var SystemActor = Actor{ID: "system", Role: RoleSystem}
