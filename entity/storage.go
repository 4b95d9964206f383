package entity

import (
	"context"
)

// ObjectStore is the interface required for object storage implementations, used both
// for reading the uploaded orders file and for writing the output artifact.
type ObjectStore interface {

	// Get returns the full content of the object. A missing object is an error.
	Get(ctx context.Context, bucket, key string) ([]byte, error)

	// Put writes data as the object, replacing any existing object with the same key.
	Put(ctx context.Context, bucket, key string, data []byte) error
}

// Crawler is the interface required for metadata catalog implementations.
// StartCrawler only requests a crawler run and must not wait for it to finish.
type Crawler interface {
	StartCrawler(ctx context.Context, name string) error
}

// Encoder serializes flat rows into the columnar output format.
type Encoder interface {
	Encode(rows []Row) ([]byte, error)

	// Extension returns the file extension for the encoded format, without a leading dot.
	Extension() string
}
