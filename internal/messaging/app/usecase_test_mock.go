package app

import (
	"context"
	"time"

	"farmconnect/internal/messaging/domain"
	userdomain "farmconnect/internal/user/domain"

	"github.com/stretchr/testify/mock"
)

// MockConversationRepository Mock ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

// Create moke create conversation
func (m *MockConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	args := m.Called(ctx, conv)
	return args.Error(0)
}

// FindByID moke find conversation by id
func (m *MockConversationRepository) FindByID(ctx context.Context, convID string) (*domain.Conversation, error) {
	args := m.Called(ctx, convID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByParticipants moke find conversation by participant pair
func (m *MockConversationRepository) FindByParticipants(ctx context.Context, userA, userB string) (*domain.Conversation, error) {
	args := m.Called(ctx, userA, userB)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByUser moke list conversations of a user
func (m *MockConversationRepository) FindByUser(ctx context.Context, userID string) ([]domain.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// ApplyMessage moke update preview and unread counter
func (m *MockConversationRepository) ApplyMessage(ctx context.Context, convID, recipientID, preview string, at time.Time) error {
	args := m.Called(ctx, convID, recipientID, preview, at)
	return args.Error(0)
}

// ResetUnread moke reset unread counter
func (m *MockConversationRepository) ResetUnread(ctx context.Context, convID, userID string) error {
	args := m.Called(ctx, convID, userID)
	return args.Error(0)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Insert moke insert message
func (m *MockMessageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// Delete moke delete message
func (m *MockMessageRepository) Delete(ctx context.Context, msgID string) error {
	args := m.Called(ctx, msgID)
	return args.Error(0)
}

// FindByConversation moke list conversation messages
func (m *MockMessageRepository) FindByConversation(ctx context.Context, convID string, limit int64) ([]domain.Message, error) {
	args := m.Called(ctx, convID, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// MarkConversationRead moke mark unread messages read
func (m *MockMessageRepository) MarkConversationRead(ctx context.Context, convID, recipientID string, at time.Time) (int64, error) {
	args := m.Called(ctx, convID, recipientID, at)
	return args.Get(0).(int64), args.Error(1)
}

// MockPubSub Mock PubSub
type MockPubSub struct {
	mock.Mock
}

// Publish moke publisher
func (m *MockPubSub) Publish(channel string, event domain.PushEvent) error {
	args := m.Called(channel, event)
	return args.Error(0)
}

// Subscribe moke subscriber
func (m *MockPubSub) Subscribe(ctx context.Context, channel string, handler func(event domain.PushEvent)) error {
	args := m.Called(channel, handler)
	return args.Error(0)
}

// MockEventProducer Mock EventProducer
type MockEventProducer struct {
	mock.Mock
}

// MessageSent moke publish message_sent event
func (m *MockEventProducer) MessageSent(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockUserRepository Mock UserRepository
type MockUserRepository struct {
	mock.Mock
}

// FindByUser moke find user
func (m *MockUserRepository) FindByUser(ctx context.Context, userQuery *userdomain.UserQuery) (*userdomain.User, error) {
	args := m.Called(ctx, userQuery)
	if args.Get(0) != nil {
		return args.Get(0).(*userdomain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// Exists moke check user exists
func (m *MockUserRepository) Exists(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// stubPusher 收集直送事件
type stubPusher struct {
	events []domain.PushEvent
}

func (s *stubPusher) Push(event domain.PushEvent) {
	s.events = append(s.events, event)
}
