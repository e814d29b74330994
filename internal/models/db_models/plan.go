package db_models

import (
	"database/sql/driver"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type Plan struct {
	BaseModel
	Name     string      `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Price    int64       `gorm:"not null" json:"price"` // smallest currency unit (kobo)
	Features FeatureList `json:"features"`
}

// FeatureList is stored as a Postgres text[]; other dialects keep the array literal in a text column.
type FeatureList []string

func (f FeatureList) Value() (driver.Value, error) {
	return pq.StringArray(f).Value()
}

func (f *FeatureList) Scan(src interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*f = FeatureList(arr)
	return nil
}

func (FeatureList) GormDataType() string {
	return "text"
}

func (FeatureList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}
