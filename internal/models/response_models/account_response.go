package response_models

type AccountLoginResponse struct {
	Token       string `json:"token"`
	AccountType string `json:"account_type"`
}

type AccountResponse struct {
	ID             string               `json:"id"`
	Username       string               `json:"username"`
	Email          string               `json:"email"`
	Bio            string               `json:"bio"`
	PaymentLink    string               `json:"payment_link"`
	SelectedTheme  string               `json:"selected_theme"`
	ProfilePicture string               `json:"profile_picture"`
	Role           string               `json:"role"`
	ProfileViews   int64                `json:"profile_views"`
	AccountType    string               `json:"account_type"`
	Subscription   *SubscriptionSummary `json:"subscription,omitempty"`
	InGrace        bool                 `json:"in_grace"`
	GraceEnd       string               `json:"grace_end,omitempty"`
	CreatedAt      string               `json:"created_at"`
}

type SubscriptionSummary struct {
	PlanID  string `json:"plan_id"`
	Status  string `json:"status"`
	EndDate string `json:"end_date"`
}

type AdminUserResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	IsAdmin     bool   `json:"is_admin"`
	AccountType string `json:"account_type"`
	CreatedAt   string `json:"created_at"`
}
