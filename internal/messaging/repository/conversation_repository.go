package repository

import (
	"context"
	"errors"
	"time"

	"farmconnect/internal/messaging/domain"
	"farmconnect/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ErrConversationExists 同一配對的對話已存在 (唯一索引擋下併發建立)
var ErrConversationExists = errors.New("conversation already exists for this participant pair")

// ConversationRepository definition conversation store
type ConversationRepository interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	FindByID(ctx context.Context, convID string) (*domain.Conversation, error)
	// FindByParticipants 不分順序查詢兩人之間的對話, 找不到回傳 nil, nil
	FindByParticipants(ctx context.Context, userA, userB string) (*domain.Conversation, error)
	FindByUser(ctx context.Context, userID string) ([]domain.Conversation, error)
	// ApplyMessage 更新最後訊息預覽並對收件人未讀數 +1 ($inc, 儲存層序列化併發送信)
	ApplyMessage(ctx context.Context, convID, recipientID, preview string, at time.Time) error
	ResetUnread(ctx context.Context, convID, userID string) error
}

type conversationRepository struct {
	coll *mongo.Collection
}

// NewMongoConversationRepository create a ConversationRepository.
// pair_key 唯一索引確保同一配對併發首次建立時只有一筆落地.
func NewMongoConversationRepository(db *mongo.Database) ConversationRepository {
	coll := db.Collection("conversations")
	_, err := coll.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "pair_key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		logger.Log.Error("conversations pair_key index create failed", zap.String("err", err.Error()))
	}
	return &conversationRepository{
		coll: coll,
	}
}

// Create create conversation
func (r *conversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	_, err := r.coll.InsertOne(ctx, conv)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConversationExists
	}
	return err
}

// FindByID find conversation by id
func (r *conversationRepository) FindByID(ctx context.Context, convID string) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := r.coll.FindOne(ctx, bson.M{"_id": convID}).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

// FindByParticipants find the conversation for an unordered user pair
func (r *conversationRepository) FindByParticipants(ctx context.Context, userA, userB string) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := r.coll.FindOne(ctx, bson.M{"pair_key": domain.PairKey(userA, userB)}).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

// FindByUser list conversations of a user, 依 last_message_at 降序
func (r *conversationRepository) FindByUser(ctx context.Context, userID string) ([]domain.Conversation, error) {
	filter := bson.M{"participants": userID}
	opts := options.Find().SetSort(bson.D{{Key: "last_message_at", Value: -1}})

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var convs []domain.Conversation
	if err := cur.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// ApplyMessage update preview fields and increment the recipient unread counter
func (r *conversationRepository) ApplyMessage(ctx context.Context, convID, recipientID, preview string, at time.Time) error {
	filter := bson.M{"_id": convID}
	update := bson.M{
		"$set": bson.M{
			"last_message":    preview,
			"last_message_at": at,
		},
		"$inc": bson.M{
			"unread_count." + recipientID: 1,
		},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ResetUnread set the unread counter of a participant back to 0
func (r *conversationRepository) ResetUnread(ctx context.Context, convID, userID string) error {
	filter := bson.M{"_id": convID}
	update := bson.M{
		"$set": bson.M{
			"unread_count." + userID: 0,
		},
	}
	_, err := r.coll.UpdateOne(ctx, filter, update)
	return err
}
