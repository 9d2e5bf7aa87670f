package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store keeps the snapshot as a single object in Amazon S3 (or a
// compatible API). S3 is read-optimized and its writes are eventually
// consistent, which is fine here: the in-memory registry stays
// authoritative and the object only seeds the next process start.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	key      string
}

func NewS3Store(client *s3.Client, bucket, key string) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("snapshot bucket is required")
	}
	key = strings.Trim(key, "/")
	if key == "" {
		key = "users.json"
	}
	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		key:      key,
	}, nil
}

func (s *S3Store) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("upload snapshot s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return nil
}

func (s *S3Store) Load(ctx context.Context) (Snapshot, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		var noBucket *types.NoSuchBucket
		if errors.As(err, &noKey) || errors.As(err, &noBucket) {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("get snapshot s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot body: %w", err)
	}

	snap, err := decode(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot object: %w", err)
	}
	return snap, nil
}
