package domain

import (
	"strings"
	"time"

	"farmconnect/pkg/errs"

	"github.com/google/uuid"
)

// MaxContentLength 單則訊息內容上限
const MaxContentLength = 2000

// MessageType definition message content kind
type MessageType string

const (
	// MessageTypeText plain text message
	MessageTypeText MessageType = "text"
	// MessageTypeImage message referencing an uploaded image
	MessageTypeImage MessageType = "image"
	// MessageTypeListing message referencing a marketplace listing
	MessageTypeListing MessageType = "listing"
)

// Valid check the type is a known tag
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeListing:
		return true
	}
	return false
}

// Message 表示對話中的一則訊息, 只增不改 (read 狀態除外)
type Message struct {
	ID             string      `bson:"_id" json:"id"`
	ConversationID string      `bson:"conversation_id" json:"conversation_id"`
	SenderID       string      `bson:"sender_id" json:"sender_id"`
	RecipientID    string      `bson:"recipient_id" json:"recipient_id"`
	Content        string      `bson:"content" json:"content"`
	MessageType    MessageType `bson:"message_type" json:"message_type"`
	ListingID      string      `bson:"listing_id,omitempty" json:"listing_id,omitempty"`
	ImageURL       string      `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Read           bool        `bson:"read" json:"read"`
	ReadAt         *time.Time  `bson:"read_at,omitempty" json:"read_at,omitempty"`
	CreatedAt      time.Time   `bson:"created_at" json:"created_at"`
}

// NewMessage build a message for the conversation; recipient 由對話推導, 不由呼叫端提供
func NewMessage(conv *Conversation, senderID, content string, msgType MessageType, listingID, imageURL string) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errs.Validationf("message content is empty")
	}
	if len([]rune(content)) > MaxContentLength {
		return nil, errs.Validationf("message content exceeds %d characters", MaxContentLength)
	}
	if msgType == "" {
		msgType = MessageTypeText
	}
	if !msgType.Valid() {
		return nil, errs.Validationf("unknown message type %q", msgType)
	}

	recipientID, err := conv.OtherParticipant(senderID)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		RecipientID:    recipientID,
		Content:        content,
		MessageType:    msgType,
		Read:           false,
		CreatedAt:      time.Now().UTC(),
	}
	// 只有對應 tag 的欄位會被保留
	switch msgType {
	case MessageTypeListing:
		msg.ListingID = listingID
	case MessageTypeImage:
		msg.ImageURL = imageURL
	}
	return msg, nil
}
