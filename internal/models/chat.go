package models

// HistoryItem accepts both {role, content} and {sender, text} turns.
type HistoryItem struct {
	Role    *string `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
	Sender  *string `json:"sender,omitempty"`
	Text    *string `json:"text,omitempty"`
}

type UserLocation struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Address   string   `json:"address,omitempty"`
	City      string   `json:"city,omitempty"`
	Country   string   `json:"country,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
}

// ChatRequest is the payload of POST /bot/v1/message.
type ChatRequest struct {
	Text                string        `json:"text"`
	History             []HistoryItem `json:"history"`
	ConversationHistory []HistoryItem `json:"conversation_history"`
	Location            *UserLocation `json:"location"`
}

type CurrentTime struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Timestamp string `json:"timestamp"`
	DayOfWeek int    `json:"dayOfWeek"`
	Hour      int    `json:"hour"`
	Timezone  string `json:"timezone"`
}

// ChatReply carries the bot answer. Response mirrors BotMessage.
type ChatReply struct {
	Response         string      `json:"response"`
	Timestamp        string      `json:"timestamp"`
	UserMessage      string      `json:"userMessage"`
	BotMessage       string      `json:"botMessage"`
	LocationReceived bool        `json:"locationReceived"`
	CurrentTime      CurrentTime `json:"currentTime"`
	ModelRequested   string      `json:"modelRequested"`
	ModelResolved    *string     `json:"modelResolved"`
	BaseURL          string      `json:"baseURL"`
	Fallback         bool        `json:"fallback"`
	Cached           bool        `json:"cached,omitempty"`
	Error            string      `json:"error,omitempty"`
}
