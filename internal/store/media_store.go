package store

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MediaStore keeps uploaded images in GridFS so message and avatar references
// stay inside the same database as the records pointing at them.
type MediaStore struct {
	bucket *gridfs.Bucket
}

type MediaFile struct {
	ID          string
	Filename    string
	ContentType string
	Size        int64
}

func NewMediaStore(c *Client) *MediaStore {
	return &MediaStore{bucket: c.Bucket}
}

// Upload stores one media object and returns its GridFS id. The bucket applies
// its own write deadline; ctx is accepted for interface symmetry.
func (s *MediaStore) Upload(_ context.Context, filename, contentType string, data []byte) (*MediaFile, error) {
	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})
	stream, err := s.bucket.OpenUploadStream(filename, opts)
	if err != nil {
		return nil, fmt.Errorf("open upload stream: %w", err)
	}
	size, err := io.Copy(stream, bytes.NewReader(data))
	if cerr := stream.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("write media: %w", err)
	}
	return &MediaFile{
		ID:          stream.FileID.(primitive.ObjectID).Hex(),
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
	}, nil
}

// Download streams a stored media object into w and returns its metadata.
func (s *MediaStore) Download(_ context.Context, id string, w io.Writer) (*MediaFile, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid media id: %w", err)
	}
	stream, err := s.bucket.OpenDownloadStream(objectID)
	if err != nil {
		return nil, fmt.Errorf("open download stream: %w", err)
	}
	defer stream.Close()

	info := stream.GetFile()
	var meta bson.M
	if info.Metadata != nil {
		_ = bson.Unmarshal(info.Metadata, &meta)
	}
	contentType, _ := meta["contentType"].(string)

	size, err := io.Copy(w, stream)
	if err != nil {
		return nil, fmt.Errorf("read media: %w", err)
	}
	return &MediaFile{
		ID:          id,
		Filename:    info.Name,
		ContentType: contentType,
		Size:        size,
	}, nil
}

func (s *MediaStore) Delete(_ context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid media id: %w", err)
	}
	return s.bucket.Delete(objectID)
}
