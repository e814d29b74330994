package db_models

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubStatusInactive  SubscriptionStatus = "inactive"
	SubStatusActive    SubscriptionStatus = "active"
	SubStatusCancelled SubscriptionStatus = "cancelled"
	SubStatusExpired   SubscriptionStatus = "expired"
)

// Subscription is unique per (user, plan); renewals mutate the same row.
type Subscription struct {
	BaseModel
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_subscriptions_user_plan,priority:1" json:"user_id"`
	PlanID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_subscriptions_user_plan,priority:2;index" json:"plan_id"`

	Status    SubscriptionStatus `gorm:"size:20;not null;default:inactive;index" json:"status"`
	StartDate *int64             `json:"start_date,omitempty"` // unix seconds
	EndDate   *int64             `gorm:"index" json:"end_date,omitempty"`

	Plan Plan `gorm:"foreignKey:PlanID;constraint:OnDelete:RESTRICT" json:"plan"`
}

// EndTime returns the end date and whether it is set.
func (s *Subscription) EndTime() (time.Time, bool) {
	if s.EndDate == nil {
		return time.Time{}, false
	}
	return time.Unix(*s.EndDate, 0).UTC(), true
}

func (s *Subscription) StartTime() (time.Time, bool) {
	if s.StartDate == nil {
		return time.Time{}, false
	}
	return time.Unix(*s.StartDate, 0).UTC(), true
}
