package dto

import "quickchat/internal/domain"

type SendMessageRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"` // base64 data URI, optional
}

type SendMessageResponse struct {
	Success    bool            `json:"success"`
	NewMessage *domain.Message `json:"newMessage"`
}

type ThreadResponse struct {
	Success  bool              `json:"success"`
	Messages []*domain.Message `json:"messages"`
}

type SidebarResponse struct {
	Success        bool             `json:"success"`
	Users          []*domain.User   `json:"users"`
	UnseenMessages map[string]int64 `json:"unseenMessages"`
}

type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
