package domain

// Action websocket request/response action
type Action string

const (
	// JoinConversations websocket action join_conversations
	JoinConversations Action = "join_conversations"
	// SendMessage websocket action send_message
	SendMessage Action = "send_message"
	// Typing websocket action typing
	Typing Action = "typing"
	// MarkRead websocket action mark_read
	MarkRead Action = "mark_read"

	// EventNewMessage server push action new_message
	EventNewMessage Action = "new_message"
	// EventUserTyping server push action user_typing
	EventUserTyping Action = "user_typing"
	// EventMessagesRead server push action messages_read
	EventMessagesRead Action = "messages_read"
	// EventNotification server push action notification (直接送給收件人, 不經房間)
	EventNotification Action = "notification"
	// EventError server push action error
	EventError Action = "error"
)

// WSRequest websocket Request
type WSRequest struct {
	Action          string   `json:"action"`
	ConversationID  string   `json:"conversation_id"`
	ConversationIDs []string `json:"conversation_ids"`
	Content         string   `json:"content"`
	MessageType     string   `json:"message_type"`
	ListingID       string   `json:"listing_id"`
	ImageURL        string   `json:"image_url"`
	IsTyping        bool     `json:"is_typing"`
}

// WSResponse websocket Response
type WSResponse struct {
	Action  string                 `json:"action"`
	Success bool                   `json:"success"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// PushEvent 經由 pub/sub 廣播的事件, 依 Action 決定有效欄位
type PushEvent struct {
	Action         Action   `json:"action"`
	ConversationID string   `json:"conversation_id"`
	UserID         string   `json:"user_id,omitempty"`
	IsTyping       bool     `json:"is_typing,omitempty"`
	Message        *Message `json:"message,omitempty"`
}

// Response convert a push event into the websocket response shape
func (e PushEvent) Response() WSResponse {
	resp := WSResponse{
		Action:  string(e.Action),
		Success: true,
		Payload: map[string]interface{}{
			"conversation_id": e.ConversationID,
		},
	}
	switch e.Action {
	case EventNewMessage, EventNotification:
		if e.Message != nil {
			resp.Payload["message"] = e.Message
		}
	case EventUserTyping:
		resp.Payload["user_id"] = e.UserID
		resp.Payload["is_typing"] = e.IsTyping
	case EventMessagesRead:
		resp.Payload["user_id"] = e.UserID
	}
	return resp
}
