package repository

import (
	"context"
	"fmt"
	"io"
	"path"

	"farmconnect/pkg/database"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// AttachmentRepository store uploaded images referenced by image messages
type AttachmentRepository interface {
	UploadImage(ctx context.Context, fileName string, reader io.Reader, size int64, contentType string) (string, error)
}

type minioAttachmentRepository struct {
	mc *database.MinIOClient
}

// NewMinIOAttachmentRepository create an AttachmentRepository backed by minio
func NewMinIOAttachmentRepository(mc *database.MinIOClient) AttachmentRepository {
	return &minioAttachmentRepository{mc: mc}
}

// UploadImage put the object under a fresh key, 回傳可直接放進訊息的 URL
func (r *minioAttachmentRepository) UploadImage(ctx context.Context, fileName string, reader io.Reader, size int64, contentType string) (string, error) {
	objectName := "attachments/" + uuid.New().String() + path.Ext(fileName)

	_, err := r.mc.Client.PutObject(ctx, r.mc.BucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}

	scheme := "http"
	if r.mc.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, r.mc.Endpoint, r.mc.BucketName, objectName), nil
}
