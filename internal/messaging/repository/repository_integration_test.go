package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"farmconnect/internal/messaging/domain"
	"farmconnect/pkg/database"
	"farmconnect/pkg/logger"
	testtool "farmconnect/pkg/test_tool"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// 需要 docker, INTEGRATION=1 才會執行
var (
	mongoDB     *database.MongoDB
	redisClient *redis.Client
)

func TestMain(m *testing.M) {
	if os.Getenv("INTEGRATION") == "" {
		os.Exit(0)
	}

	ctx := context.Background()
	logger.SetNewNop()

	mongoContainer, mongoHost, mongoPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "mongo:latest",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	})
	if err != nil {
		log.Fatalf("Failed to start MongoDB container: %v", err)
	}

	redisContainer, redisHost, redisPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "redis:latest",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	})
	if err != nil {
		log.Fatalf("Failed to start Redis container: %v", err)
	}

	mongoDB, err = database.NewMongoDB(ctx, database.Connection{
		ConnectStr:    fmt.Sprintf("mongodb://%s:%s", mongoHost, mongoPort),
		RetryCount:    5,
		RetryInterval: 5,
	}, "test_messaging_db")
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	redisClient, err = database.NewRedisLocalClient(fmt.Sprintf("%s:%s", redisHost, redisPort), 0)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	code := m.Run()

	mongoDB.Close(ctx)
	_ = mongoContainer.Terminate(ctx)
	_ = redisContainer.Terminate(ctx)

	os.Exit(code)
}

func TestConversationRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMongoConversationRepository(mongoDB.Database)

	conv, err := domain.NewConversation("buyer-1", "farmer-1", "listing-1")
	assert.NoError(t, err)
	assert.NoError(t, repo.Create(ctx, conv))

	// 兩種順序都要查得到
	found, err := repo.FindByParticipants(ctx, "buyer-1", "farmer-1")
	assert.NoError(t, err)
	assert.Equal(t, conv.ID, found.ID)

	found, err = repo.FindByParticipants(ctx, "farmer-1", "buyer-1")
	assert.NoError(t, err)
	assert.Equal(t, conv.ID, found.ID)

	// 不存在的配對回 nil, nil
	found, err = repo.FindByParticipants(ctx, "buyer-1", "nobody")
	assert.NoError(t, err)
	assert.Nil(t, found)

	// 同配對 (順序相反) 再建立會被唯一索引擋下
	dup, err := domain.NewConversation("farmer-1", "buyer-1", "")
	assert.NoError(t, err)
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrConversationExists)
}

func TestConversationRepository_UnreadAccounting(t *testing.T) {
	ctx := context.Background()
	repo := NewMongoConversationRepository(mongoDB.Database)

	conv, _ := domain.NewConversation("buyer-2", "farmer-2", "")
	assert.NoError(t, repo.Create(ctx, conv))

	for i := 0; i < 3; i++ {
		assert.NoError(t, repo.ApplyMessage(ctx, conv.ID, "farmer-2", fmt.Sprintf("msg %d", i), time.Now().UTC()))
	}

	found, err := repo.FindByID(ctx, conv.ID)
	assert.NoError(t, err)
	assert.Equal(t, 3, found.UnreadCount["farmer-2"])
	assert.Equal(t, 0, found.UnreadCount["buyer-2"])
	assert.Equal(t, "msg 2", found.LastMessage)

	assert.NoError(t, repo.ResetUnread(ctx, conv.ID, "farmer-2"))
	found, err = repo.FindByID(ctx, conv.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, found.UnreadCount["farmer-2"])
}

func TestMessageRepository_OrderAndMarkRead(t *testing.T) {
	ctx := context.Background()
	repo := NewMongoMessageRepository(mongoDB.Database)

	conv, _ := domain.NewConversation("buyer-3", "farmer-3", "")
	for _, content := range []string{"first", "second", "third"} {
		msg, err := domain.NewMessage(conv, "buyer-3", content, "", "", "")
		assert.NoError(t, err)
		assert.NoError(t, repo.Insert(ctx, msg))
	}

	msgs, err := repo.FindByConversation(ctx, conv.ID, 100)
	assert.NoError(t, err)
	assert.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "third", msgs[2].Content)

	n, err := repo.MarkConversationRead(ctx, conv.ID, "farmer-3", time.Now().UTC())
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)

	// 重複標記是 no-op
	n, err = repo.MarkConversationRead(ctx, conv.ID, "farmer-3", time.Now().UTC())
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)

	msgs, err = repo.FindByConversation(ctx, conv.ID, 100)
	assert.NoError(t, err)
	for _, msg := range msgs {
		assert.True(t, msg.Read)
		assert.NotNil(t, msg.ReadAt)
	}
}

func TestRedisPubSub_RoundTrip(t *testing.T) {
	pubSub := NewRedisPubSub(redisClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan domain.PushEvent, 1)
	channel := ConversationChannel("conv-pubsub-test")
	err := pubSub.Subscribe(ctx, channel, func(event domain.PushEvent) {
		received <- event
	})
	assert.NoError(t, err)

	// 等訂閱建立
	time.Sleep(200 * time.Millisecond)

	want := domain.PushEvent{
		Action:         domain.EventUserTyping,
		ConversationID: "conv-pubsub-test",
		UserID:         "buyer-4",
		IsTyping:       true,
	}
	assert.NoError(t, pubSub.Publish(channel, want))

	select {
	case got := <-received:
		assert.Equal(t, want, got)
	case <-time.After(3 * time.Second):
		t.Fatal("pubsub event not received")
	}
}
