package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"farmconnect/internal/messaging/domain"
	"farmconnect/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ConversationChannel pub/sub channel carrying room events for one conversation
func ConversationChannel(convID string) string {
	return "chat:conversation:" + convID
}

// PubSub definition delivery bus for push events
type PubSub interface {
	Publish(channel string, event domain.PushEvent) error
	Subscribe(ctx context.Context, channel string, handler func(event domain.PushEvent)) error
}

// RedisPubSub definition redis pub/sub
type RedisPubSub struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{
		client: client,
		ctx:    context.Background(),
	}
}

// Publish 將 event 序列化後發布到指定 channel
func (r *RedisPubSub) Publish(channel string, event domain.PushEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.client.Publish(r.ctx, channel, data).Err()
}

// Subscribe 訂閱 channel, 收到事件後呼叫 handler; ctx 取消時結束訂閱
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string, handler func(event domain.PushEvent)) error {
	sub := r.client.Subscribe(r.ctx, channel)
	go func() {
		ch := sub.Channel()

		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}

				var event domain.PushEvent
				if err := json.Unmarshal([]byte(m.Payload), &event); err != nil {
					logger.Log.Error("pubsub payload unmarshal err",
						zap.String("channel", channel),
						zap.String("err", err.Error()))
					continue
				}
				handler(event)
			case <-ctx.Done():
				logger.Log.Info(fmt.Sprintf("%s , sub close", channel))
				sub.Close()
				return
			}
		}
	}()
	return nil
}
