package db_models

import "github.com/google/uuid"

type Link struct {
	BaseModel
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Title  string    `gorm:"size:140;not null" json:"title"`
	URL    string    `gorm:"size:200;not null" json:"url"`

	Clicks []Click `gorm:"foreignKey:LinkID;constraint:OnDelete:CASCADE" json:"-"`
}

// Click is append-only.
type Click struct {
	BaseModel
	LinkID    uuid.UUID `gorm:"type:uuid;not null;index" json:"link_id"`
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	UserAgent string    `gorm:"size:200" json:"user_agent"`
	Referrer  string    `gorm:"size:200" json:"referrer"`
}
