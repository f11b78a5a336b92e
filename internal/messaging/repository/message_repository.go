package repository

import (
	"context"
	"time"

	"farmconnect/internal/messaging/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository definition append-only message log
type MessageRepository interface {
	Insert(ctx context.Context, msg *domain.Message) error
	// Delete 只作為 send 失敗時的補償, 沒有對外的刪除操作
	Delete(ctx context.Context, msgID string) error
	// FindByConversation 依 created_at 升序 (同時間以 _id 穩定排序), 最多 limit 筆
	FindByConversation(ctx context.Context, convID string, limit int64) ([]domain.Message, error)
	// MarkConversationRead 將該收件人所有未讀訊息轉為已讀, 回傳筆數
	MarkConversationRead(ctx context.Context, convID, recipientID string, at time.Time) (int64, error)
}

type messageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{
		coll: db.Collection("messages"),
	}
}

// Insert insert one message
func (r *messageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	_, err := r.coll.InsertOne(ctx, msg)
	return err
}

// Delete remove a message by id
func (r *messageRepository) Delete(ctx context.Context, msgID string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": msgID})
	return err
}

// FindByConversation fetch the conversation log in replay order
func (r *messageRepository) FindByConversation(ctx context.Context, convID string, limit int64) ([]domain.Message, error) {
	filter := bson.M{"conversation_id": convID}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var msgs []domain.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkConversationRead flip read=false → true for every message addressed to the recipient
func (r *messageRepository) MarkConversationRead(ctx context.Context, convID, recipientID string, at time.Time) (int64, error) {
	filter := bson.M{
		"conversation_id": convID,
		"recipient_id":    recipientID,
		"read":            false,
	}
	update := bson.M{
		"$set": bson.M{
			"read":    true,
			"read_at": at,
		},
	}
	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
