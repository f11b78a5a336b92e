package domain

import (
	"strings"
	"testing"

	"farmconnect/pkg/errs"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewMessage(t *testing.T) {
	sender := uuid.New().String()
	recipient := uuid.New().String()
	conv, _ := NewConversation(sender, recipient, "")

	msg, err := NewMessage(conv, sender, "蘋果一箱多少?", "", "", "")
	assert.NoError(t, err)
	assert.Equal(t, conv.ID, msg.ConversationID)
	// recipient 由對話推導
	assert.Equal(t, recipient, msg.RecipientID)
	// 未指定型別時預設 text
	assert.Equal(t, MessageTypeText, msg.MessageType)
	assert.False(t, msg.Read)
	assert.Nil(t, msg.ReadAt)
}

func TestNewMessage_ContentValidation(t *testing.T) {
	sender := uuid.New().String()
	conv, _ := NewConversation(sender, uuid.New().String(), "")

	_, err := NewMessage(conv, sender, "", "", "", "")
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = NewMessage(conv, sender, "   ", "", "", "")
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = NewMessage(conv, sender, strings.Repeat("a", MaxContentLength+1), "", "", "")
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = NewMessage(conv, sender, "hello", "video", "", "")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

// 只保留與 tag 對應的欄位
func TestNewMessage_TypeFields(t *testing.T) {
	sender := uuid.New().String()
	conv, _ := NewConversation(sender, uuid.New().String(), "")

	msg, err := NewMessage(conv, sender, "看看這個", MessageTypeListing, "listing-9", "http://x/img.png")
	assert.NoError(t, err)
	assert.Equal(t, "listing-9", msg.ListingID)
	assert.Empty(t, msg.ImageURL)

	msg, err = NewMessage(conv, sender, "照片", MessageTypeImage, "listing-9", "http://x/img.png")
	assert.NoError(t, err)
	assert.Equal(t, "http://x/img.png", msg.ImageURL)
	assert.Empty(t, msg.ListingID)

	msg, err = NewMessage(conv, sender, "hi", MessageTypeText, "listing-9", "http://x/img.png")
	assert.NoError(t, err)
	assert.Empty(t, msg.ListingID)
	assert.Empty(t, msg.ImageURL)
}
