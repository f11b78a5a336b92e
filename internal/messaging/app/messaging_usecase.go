package app

import (
	"context"
	"errors"
	"time"

	"farmconnect/internal/messaging/domain"
	"farmconnect/internal/messaging/repository"
	userrepo "farmconnect/internal/user/repository"
	"farmconnect/pkg/errs"
	"farmconnect/pkg/logger"

	"go.uber.org/zap"
)

// DefaultMessageLimit 單次拉取訊息上限
const DefaultMessageLimit int64 = 100

// MessagingUseCase 對話/訊息核心.
// REST 與 websocket 都走這一個入口, 兩條路徑不各自重複驗證與副作用.
type MessagingUseCase struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	users    userrepo.UserRepository
	pubSub   repository.PubSub
	events   repository.EventProducer
	presence *PresenceRegistry
}

// NewMessagingUseCase init messaging use case; events 可為 nil (不發布領域事件)
func NewMessagingUseCase(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	users userrepo.UserRepository,
	pubSub repository.PubSub,
	events repository.EventProducer,
	presence *PresenceRegistry,
) *MessagingUseCase {
	return &MessagingUseCase{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		users:    users,
		pubSub:   pubSub,
		events:   events,
		presence: presence,
	}
}

// GetOrCreateConversation 取得或建立兩人之間的對話 (冪等, 不分方向)
func (uc *MessagingUseCase) GetOrCreateConversation(ctx context.Context, requesterID, recipientID, listingID string) (*domain.Conversation, error) {
	if recipientID == "" {
		return nil, errs.Validationf("recipient id is required")
	}
	if recipientID == requesterID {
		return nil, errs.Validationf("cannot start a conversation with yourself")
	}

	ok, err := uc.users.Exists(ctx, recipientID)
	if err != nil {
		return nil, errs.Internalf("user lookup failed: %v", err)
	}
	if !ok {
		return nil, errs.Validationf("recipient %s not found", recipientID)
	}

	existing, err := uc.convRepo.FindByParticipants(ctx, requesterID, recipientID)
	if err != nil {
		return nil, errs.Internalf("conversation lookup failed: %v", err)
	}
	if existing != nil {
		return existing, nil
	}

	conv, err := domain.NewConversation(requesterID, recipientID, listingID)
	if err != nil {
		return nil, err
	}
	if err := uc.convRepo.Create(ctx, conv); err != nil {
		// 併發首次對話撞到唯一索引, 改回傳先落地的那筆
		if errors.Is(err, repository.ErrConversationExists) {
			winner, findErr := uc.convRepo.FindByParticipants(ctx, requesterID, recipientID)
			if findErr == nil && winner != nil {
				return winner, nil
			}
		}
		return nil, errs.Internalf("conversation create failed: %v", err)
	}
	return conv, nil
}

// ListConversations 依 last_message_at 降序列出用戶的對話
func (uc *MessagingUseCase) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	convs, err := uc.convRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, errs.Internalf("conversation list failed: %v", err)
	}
	return convs, nil
}

// SendMessage 發送訊息: 持久化後更新對話預覽/未讀數, 再廣播
func (uc *MessagingUseCase) SendMessage(ctx context.Context, senderID, convID, content string, msgType domain.MessageType, listingID, imageURL string) (*domain.Message, error) {
	conv, err := uc.requireParticipant(ctx, senderID, convID)
	if err != nil {
		return nil, err
	}

	msg, err := domain.NewMessage(conv, senderID, content, msgType, listingID, imageURL)
	if err != nil {
		return nil, err
	}

	if err := uc.msgRepo.Insert(ctx, msg); err != nil {
		return nil, errs.Internalf("message insert failed: %v", err)
	}
	if err := uc.convRepo.ApplyMessage(ctx, conv.ID, msg.RecipientID, msg.Content, msg.CreatedAt); err != nil {
		// 補償: 對話沒更新就不能留下訊息, 否則未讀數與訊息記錄不一致
		if delErr := uc.msgRepo.Delete(ctx, msg.ID); delErr != nil {
			logger.Log.Error("message rollback failed",
				zap.String("message_id", msg.ID),
				zap.String("err", delErr.Error()))
		}
		return nil, errs.Internalf("conversation update failed: %v", err)
	}

	// 推送是副作用, 失敗不影響已完成的 send
	event := domain.PushEvent{
		Action:         domain.EventNewMessage,
		ConversationID: conv.ID,
		Message:        msg,
	}
	if err := uc.pubSub.Publish(repository.ConversationChannel(conv.ID), event); err != nil {
		logger.Log.Error("room broadcast failed",
			zap.String("conversation_id", conv.ID),
			zap.String("err", err.Error()))
	}

	// 收件人在線時額外直送 notification, 未加入房間也能收到提醒
	notify := event
	notify.Action = domain.EventNotification
	uc.presence.Notify(msg.RecipientID, notify)

	if uc.events != nil {
		if err := uc.events.MessageSent(ctx, msg); err != nil {
			logger.Log.Error("message_sent event publish failed",
				zap.String("message_id", msg.ID),
				zap.String("err", err.Error()))
		}
	}

	return msg, nil
}

// ListMessages 拉取對話訊息 (升序); 成功取得即視為已讀
func (uc *MessagingUseCase) ListMessages(ctx context.Context, userID, convID string, limit int64) ([]domain.Message, error) {
	conv, err := uc.requireParticipant(ctx, userID, convID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > DefaultMessageLimit {
		limit = DefaultMessageLimit
	}

	msgs, err := uc.msgRepo.FindByConversation(ctx, conv.ID, limit)
	if err != nil {
		return nil, errs.Internalf("message list failed: %v", err)
	}

	if err := uc.markRead(ctx, conv, userID); err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkRead 清除未讀狀態, 無未讀時為 no-op
func (uc *MessagingUseCase) MarkRead(ctx context.Context, userID, convID string) error {
	conv, err := uc.requireParticipant(ctx, userID, convID)
	if err != nil {
		return err
	}
	return uc.markRead(ctx, conv, userID)
}

// CanAccess 驗證用戶是對話成員 (websocket join 用)
func (uc *MessagingUseCase) CanAccess(ctx context.Context, userID, convID string) error {
	_, err := uc.requireParticipant(ctx, userID, convID)
	return err
}

func (uc *MessagingUseCase) requireParticipant(ctx context.Context, userID, convID string) (*domain.Conversation, error) {
	conv, err := uc.convRepo.FindByID(ctx, convID)
	if err != nil {
		return nil, errs.Internalf("conversation lookup failed: %v", err)
	}
	if conv == nil {
		return nil, errs.NotFoundf("conversation %s not found", convID)
	}
	if !conv.HasParticipant(userID) {
		return nil, errs.Authorizationf("user %s is not a participant of conversation %s", userID, convID)
	}
	return conv, nil
}

func (uc *MessagingUseCase) markRead(ctx context.Context, conv *domain.Conversation, userID string) error {
	n, err := uc.msgRepo.MarkConversationRead(ctx, conv.ID, userID, time.Now().UTC())
	if err != nil {
		return errs.Internalf("mark read failed: %v", err)
	}
	if err := uc.convRepo.ResetUnread(ctx, conv.ID, userID); err != nil {
		return errs.Internalf("unread reset failed: %v", err)
	}

	// 對方 UI 需要更新已讀回條, 沒有東西被標記就不廣播
	if n > 0 {
		event := domain.PushEvent{
			Action:         domain.EventMessagesRead,
			ConversationID: conv.ID,
			UserID:         userID,
		}
		if err := uc.pubSub.Publish(repository.ConversationChannel(conv.ID), event); err != nil {
			logger.Log.Error("messages_read broadcast failed",
				zap.String("conversation_id", conv.ID),
				zap.String("err", err.Error()))
		}
	}
	return nil
}
