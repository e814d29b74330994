package request_models

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type SignUpRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64,alphanum"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// UpdateProfileRequest fields are optional; nil leaves the value unchanged.
type UpdateProfileRequest struct {
	Username       *string `json:"username" binding:"omitempty,min=3,max=64,alphanum"`
	Bio            *string `json:"bio" binding:"omitempty,max=140"`
	PaymentLink    *string `json:"payment_link" binding:"omitempty,max=200"`
	SelectedTheme  *string `json:"selected_theme" binding:"omitempty,max=50"`
	ProfilePicture *string `json:"profile_picture" binding:"omitempty,max=100"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=NewPassword"`
}
