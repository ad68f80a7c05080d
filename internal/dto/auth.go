package dto

type RegisterRequestDTO struct {
	Username     string `json:"username" example:"ghost"`
	Email        string `json:"email" example:"ghost@example.com"`
	Password     string `json:"password" example:"hunter22"`
	Phone        string `json:"phone" example:"+233201234567"`
	ReferralCode string `json:"referral_code,omitempty" example:"5F3A9C1B"`
}

type RegisterResponseDTO struct {
	Message      string `json:"message"`
	ReferralCode string `json:"referral_code" example:"9D2E7A40"`
}

type LoginRequestDTO struct {
	Username string `json:"username" example:"ghost"`
	Password string `json:"password" example:"hunter22"`
}

type LoginResponseDTO struct {
	Message string `json:"message"`
}

type ExistsResponseDTO struct {
	Exists bool `json:"exists"`
}
