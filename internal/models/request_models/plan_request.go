package request_models

type PlanRequest struct {
	Name     string   `json:"name" binding:"required,max=50"`
	Price    int64    `json:"price" binding:"min=0"`
	Features []string `json:"features"`
}
