package dto

type SignupRequest struct {
	Username string `json:"username" binding:"required,username"`
	Email    string `json:"email" binding:"required,email,max=100"`
}

type TokenRequest struct {
	Username         string `json:"username" binding:"required"`
	ConfirmationCode string `json:"confirmation_code" binding:"required"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}
