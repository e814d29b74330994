package response_models

type PlanResponse struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    int64    `json:"price"`
	Features []string `json:"features"`
}

type SubscriptionResponse struct {
	ID        string `json:"id"`
	PlanID    string `json:"plan_id"`
	PlanName  string `json:"plan_name,omitempty"`
	Status    string `json:"status"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}
