package dto

import "quickchat/internal/domain"

type SignupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Bio      string `json:"bio"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	FullName    string `json:"fullName"`
	Bio         string `json:"bio"`
	ProfilePic  string `json:"profilePic"` // base64 data URI, replaces the stored avatar
	Password    string `json:"password"`
	OldPassword string `json:"oldPassword"`
}

type AuthResponse struct {
	Success  bool         `json:"success"`
	UserData *domain.User `json:"userData,omitempty"`
	Token    string       `json:"token,omitempty"`
	Message  string       `json:"message,omitempty"`
}
