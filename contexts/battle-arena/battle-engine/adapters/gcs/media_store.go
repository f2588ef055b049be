// Package gcs stores uploaded battle media in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	application "reelrivals/contexts/battle-arena/battle-engine/application"
	"reelrivals/contexts/battle-arena/battle-engine/ports"

	"cloud.google.com/go/storage"
)

const (
	defaultPublicHost = "https://storage.googleapis.com"
	// Objects below this size go up in a single request.
	singleRequestLimit = 16 << 20
)

type MediaStore struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
	logger        *slog.Logger
}

var _ ports.MediaStore = (*MediaStore)(nil)

// NewMediaStore opens a client with application default credentials.
// publicBaseURL overrides the storage.googleapis.com URL handed to clients.
func NewMediaStore(ctx context.Context, bucket string, publicBaseURL string, logger *slog.Logger) (*MediaStore, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("gcs media store: bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("init gcs client: %w", err)
	}
	return NewMediaStoreWithClient(client, bucket, publicBaseURL, logger), nil
}

func NewMediaStoreWithClient(client *storage.Client, bucket string, publicBaseURL string, logger *slog.Logger) *MediaStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaStore{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
		logger:        logger,
	}
}

func (s *MediaStore) Store(ctx context.Context, object ports.MediaObject) (string, error) {
	if object.Body == nil || strings.TrimSpace(object.Key) == "" {
		return "", errors.New("gcs media store: object key and body are required")
	}

	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	writer := s.client.Bucket(s.bucket).Object(object.Key).NewWriter(writeCtx)
	writer.ContentType = object.ContentType
	if object.Size > 0 && object.Size < int64(singleRequestLimit) {
		writer.ChunkSize = 0
	}

	written, err := io.Copy(writer, object.Body)
	if err != nil {
		// Cancelling aborts the upload; Close would finalize a partial object.
		cancel()
		return "", fmt.Errorf("write gcs object %s: %w", object.Key, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize gcs object %s: %w", object.Key, err)
	}

	s.logger.Debug("battle media stored",
		"event", "battle_media_stored",
		"module", application.ModuleName,
		"layer", "adapter",
		"bucket", s.bucket,
		"object_key", object.Key,
		"bytes", written,
	)
	return s.PublicURL(object.Key), nil
}

func (s *MediaStore) PublicURL(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	return fmt.Sprintf("%s/%s/%s", defaultPublicHost, s.bucket, key)
}

func (s *MediaStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
