package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
)

type Payment struct {
	BaseModel
	UserID uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	PlanID uuid.UUID     `gorm:"type:uuid;not null;index" json:"plan_id"`
	Amount int64         `gorm:"not null" json:"amount"` // smallest currency unit
	Status PaymentStatus `gorm:"size:20;not null;default:pending;index" json:"status"`

	// Reference is the correlation key echoed back by the payment provider.
	Reference string `gorm:"size:100;uniqueIndex;not null" json:"reference"`

	// Snapshot of the provider event that settled the payment.
	Receipt datatypes.JSON `json:"receipt,omitempty"`

	Plan Plan `gorm:"foreignKey:PlanID;constraint:OnDelete:RESTRICT" json:"-"`
}
