package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"farmconnect/internal/messaging/domain"
	"farmconnect/internal/messaging/repository"
	"farmconnect/pkg/logger"
	"farmconnect/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// MessagingWebsocketHandler websocket 進入點, 每條連線一個 session
type MessagingWebsocketHandler struct {
	messagingUC *MessagingUseCase
	pubSub      repository.PubSub
	presence    *PresenceRegistry
}

// NewMessagingWebsocketHandler create MessagingWebsocketHandler
func NewMessagingWebsocketHandler(
	messagingUC *MessagingUseCase,
	pubSub repository.PubSub,
	presence *PresenceRegistry,
) *MessagingWebsocketHandler {
	return &MessagingWebsocketHandler{
		messagingUC: messagingUC,
		pubSub:      pubSub,
		presence:    presence,
	}
}

// wsWriter 連線的寫入端, *websocket.Conn 已滿足
type wsWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// session 單一 websocket 連線的狀態
// writeMu: subscriber goroutine 與 read loop 都會寫同一條連線
type session struct {
	conn    wsWriter
	userID  string
	writeMu sync.Mutex

	// conversation_id → 該房間訂閱的 cancel
	subMu sync.Mutex
	subs  map[string]context.CancelFunc
}

// Push implement Pusher, 由 PresenceRegistry 直送 notification 時呼叫
func (s *session) Push(event domain.PushEvent) {
	s.write(event.Response())
}

func (s *session) write(resp domain.WSResponse) {
	b, _ := json.Marshal(resp)
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		logger.Log.Errorf("write message error:", err)
	}
}

// HandleConnection 是 WebSocket 連線的進入點
func (h *MessagingWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	tokenUser := conn.Locals(middlewares.TokenUserID)
	userID, ok := tokenUser.(string)
	if !ok || userID == "" {
		logger.Log.Error("websocket connection without user id")
		conn.Close()
		return
	}
	logger.Log.Info("websocket connected", zap.String("userID", userID))

	s := &session{
		conn:   conn,
		userID: userID,
		subs:   map[string]context.CancelFunc{},
	}

	ticker := time.NewTicker(10 * time.Minute)
	ctxClose, cancel := context.WithCancel(context.Background())

	h.presence.Register(userID, s)

	defer func() {
		ticker.Stop()
		// 只移除自己這條連線; 同帳號的新連線可能已取代 registry 裡的條目
		h.presence.UnregisterConn(userID, s)
		s.cancelAllSubs()
		logger.Log.Info("websocket close", zap.String("userID", userID))
		conn.Close()
		cancel()
	}()

	//client發出close
	//fiber會自動處理(在read msg 回傳err),故需要SetCloseHandler另外接出
	conn.SetCloseHandler(func(code int, text string) error {
		logger.Log.Infof("WebSocket closed:", conn.RemoteAddr())
		return nil
	})

	//server發出ping之後client連線正常會回pong
	conn.SetPongHandler(func(appData string) error {
		return nil
	})

	// 定期發送 Ping
	go func() {
		for {
			select {
			case <-ticker.C:
				s.writeMu.Lock()
				err := conn.WriteMessage(websocket.PingMessage, []byte("ping"))
				s.writeMu.Unlock()
				if err != nil {
					logger.Log.Errorf("Ping error:", err)
					return
				}
			case <-ctxClose.Done():
				return
			}
		}
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Infof("Connection closed:", err)
			} else {
				//直接斷線 1006
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}

		switch mt {
		case websocket.TextMessage:
			h.textMessageAction(ctx, s, message)
		default:
			h.sendError(s, "unknown message type")
		}
	}
}

func (h *MessagingWebsocketHandler) textMessageAction(ctx context.Context, s *session, msg []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		h.sendError(s, "invalid json")
		return
	}

	resp := domain.WSResponse{Action: req.Action, Success: false, Payload: map[string]interface{}{}}
	switch req.Action {
	//訂閱一批對話的房間事件, 重複 join 冪等
	case string(domain.JoinConversations):
		joined := []string{}
		for _, convID := range req.ConversationIDs {
			if err := h.messagingUC.CanAccess(ctx, s.userID, convID); err != nil {
				resp.Error = err.Error()
				continue
			}
			if err := h.joinConversation(s, convID); err != nil {
				resp.Error = err.Error()
				continue
			}
			joined = append(joined, convID)
		}
		resp.Success = resp.Error == ""
		resp.Payload["joined"] = joined

	//傳送訊息, 寫入db並推送給對話成員
	case string(domain.SendMessage):
		m, err := h.messagingUC.SendMessage(ctx, s.userID, req.ConversationID, req.Content,
			domain.MessageType(req.MessageType), req.ListingID, req.ImageURL)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["message"] = m
		}

	//打字狀態, 不落地, 只廣播給房間
	case string(domain.Typing):
		if err := h.messagingUC.CanAccess(ctx, s.userID, req.ConversationID); err != nil {
			resp.Error = err.Error()
			break
		}
		event := domain.PushEvent{
			Action:         domain.EventUserTyping,
			ConversationID: req.ConversationID,
			UserID:         s.userID,
			IsTyping:       req.IsTyping,
		}
		if err := h.pubSub.Publish(repository.ConversationChannel(req.ConversationID), event); err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
		}

	//將對話內自己收到的訊息全部標為已讀
	case string(domain.MarkRead):
		if err := h.messagingUC.MarkRead(ctx, s.userID, req.ConversationID); err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["conversation_id"] = req.ConversationID
		}

	default:
		h.sendError(s, "unknown action")
		return
	}

	if resp.Error != "" {
		logger.Log.Error("websocket err ", zap.String("UserID", s.userID), zap.String("Action", req.Action), zap.String("err", resp.Error))
	}
	s.write(resp)
}

// joinConversation 啟用該對話房間的訂閱; 已訂閱則不動作
func (h *MessagingWebsocketHandler) joinConversation(s *session, convID string) error {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if _, ok := s.subs[convID]; ok {
		return nil
	}

	ctxSub, cancel := context.WithCancel(context.Background())
	err := h.pubSub.Subscribe(ctxSub, repository.ConversationChannel(convID), func(event domain.PushEvent) {
		// 自己觸發的 typing/已讀不用回送給自己
		if event.UserID == s.userID &&
			(event.Action == domain.EventUserTyping || event.Action == domain.EventMessagesRead) {
			return
		}
		s.write(event.Response())
	})
	if err != nil {
		cancel()
		return err
	}
	s.subs[convID] = cancel
	return nil
}

func (s *session) cancelAllSubs() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for convID, cancel := range s.subs {
		cancel()
		delete(s.subs, convID)
	}
}

func (h *MessagingWebsocketHandler) sendError(s *session, errorMsg string) {
	s.write(domain.WSResponse{
		Action:  string(domain.EventError),
		Success: false,
		Error:   errorMsg,
	})
}
