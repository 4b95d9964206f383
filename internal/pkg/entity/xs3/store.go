package xs3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/zpiroux/orderlake/entity"
)

// The Store uses the AWS S3 Go client API for its functionality.
// We're decoupling this API here on consumer side for full unit test capabilities.
// *s3.Client satisfies S3Client.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ErrObjectNotFound is returned (wrapped) by Get if the bucket or object does not exist.
var ErrObjectNotFound = errors.New("object not found")

const defaultContentType = "application/octet-stream"

// Store implements entity.ObjectStore on S3 (or any S3 compatible storage).
type Store struct {
	client      S3Client
	contentType string
}

// StoreOption is a functional option for configuring Store
type StoreOption func(*Store)

// WithContentType sets the content type used for written objects
func WithContentType(contentType string) StoreOption {
	return func(s *Store) {
		s.contentType = contentType
	}
}

func NewStore(client S3Client, opts ...StoreOption) (*Store, error) {
	if isNil(client) {
		return nil, errors.New("invalid arguments, S3Client cannot be nil")
	}
	s := &Store{
		client:      client,
		contentType: defaultContentType,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Get(ctx context.Context, bucket, key string) ([]byte, error) {

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("%w: s3://%s/%s: %v", ErrObjectNotFound, bucket, key, err)
		}
		return nil, fmt.Errorf("failed to get object s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object s3://%s/%s: %w", bucket, key, err)
	}
	return data, nil
}

func (s *Store) Put(ctx context.Context, bucket, key string, data []byte) error {

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(s.contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

func notFound(err error) bool {
	var (
		noSuchKey    *types.NoSuchKey
		noSuchBucket *types.NoSuchBucket
		notFound     *types.NotFound
	)
	return errors.As(err, &noSuchKey) || errors.As(err, &noSuchBucket) || errors.As(err, &notFound)
}

func isNil(c S3Client) bool {
	if c == nil {
		return true
	}
	if s, ok := c.(*s3.Client); ok && s == nil {
		return true
	}
	return false
}

var _ entity.ObjectStore = (*Store)(nil)
