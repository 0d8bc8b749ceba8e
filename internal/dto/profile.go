package dto

type ProfileResponse struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	BusinessName string `json:"business_name"`
	Phone        string `json:"phone"`
	UpdatedAt    string `json:"updated_at"`
}

type UpdateProfileRequest struct {
	DisplayName  string `json:"display_name"`
	BusinessName string `json:"business_name"`
	Phone        string `json:"phone"`
}
