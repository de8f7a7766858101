package adapter

import (
	"context"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recallos/pkg/model"
)

// BlobStore is the audio blob storage collaborator. Upload returns the
// resource URI the transcription backend reads from.
type BlobStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}

// storageClient implements BlobStore using Cloud Storage
type storageClient struct {
	bucketName string
	client     *storage.Client
}

// NewStorage creates a new Cloud Storage client for the given bucket
func NewStorage(ctx context.Context, bucketName string) (BlobStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &storageClient{
		bucketName: bucketName,
		client:     client,
	}, nil
}

func (s *storageClient) Upload(ctx context.Context, localPath, key string) (string, error) {
	src, err := os.Open(localPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", goerr.Wrap(model.ErrAudioNotFound, "local file missing", goerr.V("path", localPath))
		}
		return "", goerr.Wrap(err, "failed to open local file", goerr.V("path", localPath))
	}
	defer src.Close()

	obj := s.client.Bucket(s.bucketName).Object(key)
	writer := obj.NewWriter(ctx)

	if _, err := io.Copy(writer, src); err != nil {
		writer.Close()
		return "", goerr.Wrap(model.ErrUploadFailed, err.Error(), goerr.V("key", key))
	}
	if err := writer.Close(); err != nil {
		return "", goerr.Wrap(model.ErrUploadFailed, err.Error(), goerr.V("key", key))
	}

	return "gs://" + s.bucketName + "/" + key, nil
}
