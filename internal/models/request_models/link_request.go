package request_models

type CreateLinkRequest struct {
	Title string `json:"title" binding:"required,max=140"`
	URL   string `json:"url" binding:"required,url,max=200"`
}
