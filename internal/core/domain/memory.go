package domain

// Conversation roles stored in chat memory.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of conversation memory for a chat session.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
