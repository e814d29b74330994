package db_models

const DefaultTheme = "default.css"

type User struct {
	BaseModel
	Username       string `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email          string `gorm:"size:120;uniqueIndex;not null" json:"email"`
	PasswordHash   string `gorm:"size:128" json:"-"`
	Bio            string `gorm:"size:140" json:"bio"`
	PaymentLink    string `gorm:"size:200" json:"payment_link"`
	SelectedTheme  string `gorm:"size:50;not null;default:default.css" json:"selected_theme"`
	ProfilePicture string `gorm:"size:100;not null;default:default.jpg" json:"profile_picture"`
	IsAdmin        bool   `gorm:"not null;default:false" json:"is_admin"`

	// Customer code assigned by the payment provider, if any.
	ProviderCustomerCode string `gorm:"size:100" json:"-"`
	ProfileViews         int64  `gorm:"default:0" json:"profile_views"`

	Links         []Link         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Subscriptions []Subscription `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Payments      []Payment      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) Role() string {
	if u.IsAdmin {
		return "admin"
	}
	return "user"
}
