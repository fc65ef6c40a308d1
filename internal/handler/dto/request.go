package dto

// ChatRequest represents the request body for POST /api/chat.
type ChatRequest struct {
	Message  string `json:"message"`
	Provider string `json:"provider,omitempty"`
}
