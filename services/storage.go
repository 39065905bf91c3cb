package services

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ObjectStore persists raw image bytes and returns a stable reference URL.
type ObjectStore interface {
	Save(ctx context.Context, data []byte, contentType, folder string) (string, error)
}

// GridFSStore keeps uploaded images in a GridFS bucket. Stored objects are
// addressed as /uploads/<file-id> and streamed back by the uploads route.
type GridFSStore struct {
	bucket *gridfs.Bucket
}

func NewGridFSStore(db *mongo.Database) (*GridFSStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName("uploads"))
	if err != nil {
		return nil, fmt.Errorf("failed to create gridfs bucket: %w", err)
	}
	return &GridFSStore{bucket: bucket}, nil
}

// Save writes the image bytes durably and returns the URL path under which
// the uploads route serves them.
func (s *GridFSStore) Save(ctx context.Context, data []byte, contentType, folder string) (string, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.bucket.SetWriteDeadline(deadline)
	}

	name := folder + "/" + uuid.NewString()
	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})

	id, err := s.bucket.UploadFromStream(name, bytes.NewReader(data), opts)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return "/uploads/" + id.Hex(), nil
}

// ContentType looks up the stored content type of a file. Returns
// gridfs.ErrFileNotFound when the file does not exist.
func (s *GridFSStore) ContentType(ctx context.Context, id primitive.ObjectID) (string, error) {
	cursor, err := s.bucket.Find(bson.M{"_id": id})
	if err != nil {
		return "", fmt.Errorf("failed to look up file: %w", err)
	}
	defer cursor.Close(ctx)

	var file struct {
		Metadata struct {
			ContentType string `bson:"contentType"`
		} `bson:"metadata"`
	}
	if !cursor.Next(ctx) {
		return "", gridfs.ErrFileNotFound
	}
	if err := cursor.Decode(&file); err != nil {
		return "", fmt.Errorf("failed to decode file document: %w", err)
	}

	if file.Metadata.ContentType == "" {
		return "application/octet-stream", nil
	}
	return file.Metadata.ContentType, nil
}

// Download streams the stored file to w.
func (s *GridFSStore) Download(ctx context.Context, id primitive.ObjectID, w io.Writer) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.bucket.SetReadDeadline(deadline)
	}
	if _, err := s.bucket.DownloadToStream(id, w); err != nil {
		return fmt.Errorf("failed to stream file: %w", err)
	}
	return nil
}
