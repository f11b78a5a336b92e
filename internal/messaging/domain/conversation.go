package domain

import (
	"time"

	"farmconnect/pkg"
	"farmconnect/pkg/errs"

	"github.com/google/uuid"
)

// PairKey canonical key of an unordered participant pair, 唯一索引用
func PairKey(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return userA + ":" + userB
}

// Conversation 表示兩個用戶之間的對話 (farmer/buyer/provider)
type Conversation struct {
	ID            string         `bson:"_id" json:"id"`
	Participants  []string       `bson:"participants" json:"participants"`
	PairKey       string         `bson:"pair_key" json:"-"`
	ListingID     string         `bson:"listing_id,omitempty" json:"listing_id,omitempty"`
	LastMessage   string         `bson:"last_message,omitempty" json:"last_message,omitempty"`
	LastMessageAt time.Time      `bson:"last_message_at" json:"last_message_at"`
	UnreadCount   map[string]int `bson:"unread_count" json:"unread_count"`
	CreatedAt     time.Time      `bson:"created_at" json:"created_at"`
}

// NewConversation create a conversation between two distinct users
func NewConversation(requesterID, recipientID, listingID string) (*Conversation, error) {
	now := time.Now().UTC()
	conv := &Conversation{
		ID:            uuid.New().String(),
		Participants:  []string{requesterID, recipientID},
		PairKey:       PairKey(requesterID, recipientID),
		ListingID:     listingID,
		LastMessageAt: now,
		UnreadCount: map[string]int{
			requesterID: 0,
			recipientID: 0,
		},
		CreatedAt: now,
	}
	if err := conv.Validate(); err != nil {
		return nil, err
	}
	return conv, nil
}

// Validate check the two-participant invariant
func (c *Conversation) Validate() error {
	if len(c.Participants) != 2 {
		return errs.Validationf("conversation must have exactly 2 participants, got %d", len(c.Participants))
	}
	if c.Participants[0] == "" || c.Participants[1] == "" {
		return errs.Validationf("conversation participant id is empty")
	}
	if c.Participants[0] == c.Participants[1] {
		return errs.Validationf("conversation participants must be distinct")
	}
	return nil
}

// HasParticipant check userID belongs to the conversation
func (c *Conversation) HasParticipant(userID string) bool {
	return pkg.Contains(c.Participants, userID)
}

// OtherParticipant 取得對話中的另一方
func (c *Conversation) OtherParticipant(userID string) (string, error) {
	for _, p := range c.Participants {
		if p != userID {
			return p, nil
		}
	}
	return "", errs.Validationf("conversation %s has no participant other than %s", c.ID, userID)
}
