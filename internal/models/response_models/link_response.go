package response_models

type LinkResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Clicks    int64  `json:"clicks"`
	CreatedAt string `json:"created_at"`
}

type PublicProfileResponse struct {
	Username       string         `json:"username"`
	Bio            string         `json:"bio"`
	PaymentLink    string         `json:"payment_link,omitempty"`
	SelectedTheme  string         `json:"selected_theme"`
	ProfilePicture string         `json:"profile_picture"`
	Links          []LinkResponse `json:"links"`
}
