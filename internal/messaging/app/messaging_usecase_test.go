package app

import (
	"context"
	"errors"
	"testing"

	"farmconnect/internal/messaging/domain"
	"farmconnect/internal/messaging/repository"
	"farmconnect/pkg/errs"
	"farmconnect/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	logger.SetNewNop()
	m.Run()
}

func newTestConversation(userA, userB string) *domain.Conversation {
	conv, _ := domain.NewConversation(userA, userB, "")
	return conv
}

// 不分呼叫方向都要回到同一個對話
func TestGetOrCreateConversation_ReturnsExisting(t *testing.T) {
	ctx := context.Background()
	buyer := uuid.New().String()
	farmer := uuid.New().String()
	existing := newTestConversation(buyer, farmer)

	mockConvRepo := new(MockConversationRepository)
	mockUsers := new(MockUserRepository)

	mockUsers.On("Exists", ctx, farmer).Return(true, nil)
	mockConvRepo.On("FindByParticipants", ctx, buyer, farmer).Return(existing, nil)

	uc := NewMessagingUseCase(mockConvRepo, nil, mockUsers, nil, nil, NewPresenceRegistry())
	conv, err := uc.GetOrCreateConversation(ctx, buyer, farmer, "")

	assert.NoError(t, err)
	assert.Equal(t, existing.ID, conv.ID)
	mockConvRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mockConvRepo.AssertExpectations(t)
	mockUsers.AssertExpectations(t)
}

func TestGetOrCreateConversation_CreatesNew(t *testing.T) {
	ctx := context.Background()
	buyer := uuid.New().String()
	farmer := uuid.New().String()
	listingID := uuid.New().String()

	mockConvRepo := new(MockConversationRepository)
	mockUsers := new(MockUserRepository)

	mockUsers.On("Exists", ctx, farmer).Return(true, nil)
	mockConvRepo.On("FindByParticipants", ctx, buyer, farmer).Return(nil, nil)
	mockConvRepo.On("Create", ctx, mock.Anything).Return(nil)

	uc := NewMessagingUseCase(mockConvRepo, nil, mockUsers, nil, nil, NewPresenceRegistry())
	conv, err := uc.GetOrCreateConversation(ctx, buyer, farmer, listingID)

	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{buyer, farmer}, conv.Participants)
	assert.Equal(t, listingID, conv.ListingID)
	assert.Equal(t, 0, conv.UnreadCount[buyer])
	assert.Equal(t, 0, conv.UnreadCount[farmer])
	mockConvRepo.AssertExpectations(t)
}

func TestGetOrCreateConversation_Validation(t *testing.T) {
	ctx := context.Background()
	buyer := uuid.New().String()

	mockUsers := new(MockUserRepository)
	uc := NewMessagingUseCase(new(MockConversationRepository), nil, mockUsers, nil, nil, NewPresenceRegistry())

	_, err := uc.GetOrCreateConversation(ctx, buyer, "", "")
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = uc.GetOrCreateConversation(ctx, buyer, buyer, "")
	assert.ErrorIs(t, err, errs.ErrValidation)

	ghost := uuid.New().String()
	mockUsers.On("Exists", ctx, ghost).Return(false, nil)
	_, err = uc.GetOrCreateConversation(ctx, buyer, ghost, "")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

// 兩個首次對話請求同時進來: 輸家撞到唯一索引後回傳贏家那筆
func TestGetOrCreateConversation_ConcurrentCreateReturnsWinner(t *testing.T) {
	ctx := context.Background()
	buyer := uuid.New().String()
	farmer := uuid.New().String()
	winner := newTestConversation(buyer, farmer)

	mockConvRepo := new(MockConversationRepository)
	mockUsers := new(MockUserRepository)

	mockUsers.On("Exists", ctx, farmer).Return(true, nil)
	// 第一次查不到, create 撞索引, 重查拿到贏家
	mockConvRepo.On("FindByParticipants", ctx, buyer, farmer).Return(nil, nil).Once()
	mockConvRepo.On("Create", ctx, mock.Anything).Return(repository.ErrConversationExists)
	mockConvRepo.On("FindByParticipants", ctx, buyer, farmer).Return(winner, nil).Once()

	uc := NewMessagingUseCase(mockConvRepo, nil, mockUsers, nil, nil, NewPresenceRegistry())
	conv, err := uc.GetOrCreateConversation(ctx, buyer, farmer, "")

	assert.NoError(t, err)
	assert.Equal(t, winner.ID, conv.ID)
	mockConvRepo.AssertExpectations(t)
}

// 發送成功: 寫入訊息, 未讀數+1, 廣播到房間, 收件人在線直送 notification
func TestSendMessage_Delivered(t *testing.T) {
	ctx := context.Background()
	sender := uuid.New().String()
	recipient := uuid.New().String()
	conv := newTestConversation(sender, recipient)

	mockConvRepo := new(MockConversationRepository)
	mockMsgRepo := new(MockMessageRepository)
	mockPubSub := new(MockPubSub)
	mockEvents := new(MockEventProducer)
	presence := NewPresenceRegistry()
	recipientConn := &stubPusher{}
	presence.Register(recipient, recipientConn)

	mockConvRepo.On("FindByID", ctx, conv.ID).Return(conv, nil)
	mockMsgRepo.On("Insert", ctx, mock.Anything).Return(nil)
	mockConvRepo.On("ApplyMessage", ctx, conv.ID, recipient, "早安, 高麗菜還有貨嗎?", mock.Anything).Return(nil)
	mockPubSub.On("Publish", repository.ConversationChannel(conv.ID), mock.Anything).Return(nil)
	mockEvents.On("MessageSent", ctx, mock.Anything).Return(nil)

	uc := NewMessagingUseCase(mockConvRepo, mockMsgRepo, nil, mockPubSub, mockEvents, presence)
	msg, err := uc.SendMessage(ctx, sender, conv.ID, "早安, 高麗菜還有貨嗎?", "", "", "")

	assert.NoError(t, err)
	assert.Equal(t, recipient, msg.RecipientID)
	assert.Equal(t, domain.MessageTypeText, msg.MessageType)
	assert.False(t, msg.Read)

	// 在線收件人拿到直送 notification
	assert.Len(t, recipientConn.events, 1)
	assert.Equal(t, domain.EventNotification, recipientConn.events[0].Action)
	assert.Equal(t, msg.ID, recipientConn.events[0].Message.ID)

	mockConvRepo.AssertExpectations(t)
	mockMsgRepo.AssertExpectations(t)
	mockPubSub.AssertExpectations(t)
	mockEvents.AssertExpectations(t)
}

// 收件人離線時 send 依然成功, 只少掉直送
func TestSendMessage_RecipientOffline(t *testing.T) {
	ctx := context.Background()
	sender := uuid.New().String()
	recipient := uuid.New().String()
	conv := newTestConversation(sender, recipient)

	mockConvRepo := new(MockConversationRepository)
	mockMsgRepo := new(MockMessageRepository)
	mockPubSub := new(MockPubSub)

	mockConvRepo.On("FindByID", ctx, conv.ID).Return(conv, nil)
	mockMsgRepo.On("Insert", ctx, mock.Anything).Return(nil)
	mockConvRepo.On("ApplyMessage", ctx, conv.ID, recipient, "hello", mock.Anything).Return(nil)
	mockPubSub.On("Publish", repository.ConversationChannel(conv.ID), mock.Anything).Return(nil)

	uc := NewMessagingUseCase(mockConvRepo, mockMsgRepo, nil, mockPubSub, nil, NewPresenceRegistry())
	msg, err := uc.SendMessage(ctx, sender, conv.ID, "hello", domain.MessageTypeText, "", "")

	assert.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	mockPubSub.AssertExpectations(t)
}

// 對話更新失敗時回刪訊息, 不留下半套狀態
func TestSendMessage_CompensatesOnConversationFailure(t *testing.T) {
	ctx := context.Background()
	sender := uuid.New().String()
	recipient := uuid.New().String()
	conv := newTestConversation(sender, recipient)

	mockConvRepo := new(MockConversationRepository)
	mockMsgRepo := new(MockMessageRepository)

	mockConvRepo.On("FindByID", ctx, conv.ID).Return(conv, nil)
	mockMsgRepo.On("Insert", ctx, mock.Anything).Return(nil)
	mockConvRepo.On("ApplyMessage", ctx, conv.ID, recipient, "hello", mock.Anything).Return(errors.New("write conflict"))
	mockMsgRepo.On("Delete", ctx, mock.Anything).Return(nil)

	uc := NewMessagingUseCase(mockConvRepo, mockMsgRepo, nil, new(MockPubSub), nil, NewPresenceRegistry())
	_, err := uc.SendMessage(ctx, sender, conv.ID, "hello", "", "", "")

	assert.ErrorIs(t, err, errs.ErrInternal)
	mockMsgRepo.AssertCalled(t, "Delete", ctx, mock.Anything)
}

// 非成員不能發送
func TestSendMessage_Authorization(t *testing.T) {
	ctx := context.Background()
	conv := newTestConversation(uuid.New().String(), uuid.New().String())
	outsider := uuid.New().String()

	mockConvRepo := new(MockConversationRepository)
	mockConvRepo.On("FindByID", ctx, conv.ID).Return(conv, nil)

	uc := NewMessagingUseCase(mockConvRepo, new(MockMessageRepository), nil, new(MockPubSub), nil, NewPresenceRegistry())
	_, err := uc.SendMessage(ctx, outsider, conv.ID, "hello", "", "", "")

	assert.ErrorIs(t, err, errs.ErrAuthorization)
}

func TestSendMessage_ConversationNotFound(t *testing.T) {
	ctx := context.Background()
	convID := uuid.New().String()

	mockConvRepo := new(MockConversationRepository)
	mockConvRepo.On("FindByID", ctx, convID).Return(nil, nil)

	uc := NewMessagingUseCase(mockConvRepo, new(MockMessageRepository), nil, new(MockPubSub), nil, NewPresenceRegistry())
	_, err := uc.SendMessage(ctx, uuid.New().String(), convID, "hello", "", "", "")

	assert.ErrorIs(t, err, errs.ErrNotFound)
}

// 拉取訊息後該用戶未讀要歸零, 並廣播 messages_read
func TestListMessages_MarksRead(t *testing.T) {
	ctx := context.Background()
	reader := uuid.New().String()
	other := uuid.New().String()
	conv := newTestConversation(reader, other)

	msgs := []domain.Message{
		{ID: uuid.New().String(), ConversationID: conv.ID, SenderID: other, RecipientID: reader, Content: "a"},
		{ID: uuid.New().String(), ConversationID: conv.ID, SenderID: other, RecipientID: reader, Content: "b"},
	}

	mockConvRepo := new(MockConversationRepository)
	mockMsgRepo := new(MockMessageRepository)
	mockPubSub := new(MockPubSub)

	mockConvRepo.On("FindByID", ctx, conv.ID).Return(conv, nil)
	mockMsgRepo.On("FindByConversation", ctx, conv.ID, DefaultMessageLimit).Return(msgs, nil)
	mockMsgRepo.On("MarkConversationRead", ctx, conv.ID, reader, mock.Anything).Return(int64(2), nil)
	mockConvRepo.On("ResetUnread", ctx, conv.ID, reader).Return(nil)
	mockPubSub.On("Publish", repository.ConversationChannel(conv.ID), mock.MatchedBy(func(ev domain.PushEvent) bool {
		return ev.Action == domain.EventMessagesRead && ev.UserID == reader
	})).Return(nil)

	uc := NewMessagingUseCase(mockConvRepo, mockMsgRepo, nil, mockPubSub, nil, NewPresenceRegistry())
	got, err := uc.ListMessages(ctx, reader, conv.ID, 0)

	assert.NoError(t, err)
	assert.Len(t, got, 2)
	mockConvRepo.AssertExpectations(t)
	mockMsgRepo.AssertExpectations(t)
	mockPubSub.AssertExpectations(t)
}

// 沒有未讀時 mark_read 冪等, 不廣播
func TestMarkRead_NoopWithoutUnread(t *testing.T) {
	ctx := context.Background()
	reader := uuid.New().String()
	conv := newTestConversation(reader, uuid.New().String())

	mockConvRepo := new(MockConversationRepository)
	mockMsgRepo := new(MockMessageRepository)
	mockPubSub := new(MockPubSub)

	mockConvRepo.On("FindByID", ctx, conv.ID).Return(conv, nil)
	mockMsgRepo.On("MarkConversationRead", ctx, conv.ID, reader, mock.Anything).Return(int64(0), nil)
	mockConvRepo.On("ResetUnread", ctx, conv.ID, reader).Return(nil)

	uc := NewMessagingUseCase(mockConvRepo, mockMsgRepo, nil, mockPubSub, nil, NewPresenceRegistry())
	err := uc.MarkRead(ctx, reader, conv.ID)

	assert.NoError(t, err)
	mockPubSub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestListConversations(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New().String()
	convs := []domain.Conversation{
		*newTestConversation(userID, uuid.New().String()),
		*newTestConversation(userID, uuid.New().String()),
	}

	mockConvRepo := new(MockConversationRepository)
	mockConvRepo.On("FindByUser", ctx, userID).Return(convs, nil)

	uc := NewMessagingUseCase(mockConvRepo, nil, nil, nil, nil, NewPresenceRegistry())
	got, err := uc.ListConversations(ctx, userID)

	assert.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCanAccess(t *testing.T) {
	ctx := context.Background()
	member := uuid.New().String()
	conv := newTestConversation(member, uuid.New().String())

	mockConvRepo := new(MockConversationRepository)
	mockConvRepo.On("FindByID", ctx, conv.ID).Return(conv, nil)

	uc := NewMessagingUseCase(mockConvRepo, nil, nil, nil, nil, NewPresenceRegistry())

	assert.NoError(t, uc.CanAccess(ctx, member, conv.ID))
	assert.ErrorIs(t, uc.CanAccess(ctx, uuid.New().String(), conv.ID), errs.ErrAuthorization)
}
