package etltest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MockStore is an in-memory entity.ObjectStore. GetErr and PutErr, if set, are returned
// by all subsequent calls to Get and Put respectively.
type MockStore struct {
	GetErr error
	PutErr error

	mu      sync.Mutex
	objects map[string][]byte
	puts    int
}

func NewMockStore() *MockStore {
	return &MockStore{objects: make(map[string][]byte)}
}

// WithObject adds an object to the store and returns the store.
func (s *MockStore) WithObject(bucket, key string, data []byte) *MockStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path(bucket, key)] = data
	return s
}

func (s *MockStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	data, ok := s.objects[path(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("object %s not found", path(bucket, key))
	}
	return data, nil
}

func (s *MockStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	s.objects[path(bucket, key)] = data
	s.puts++
	return nil
}

// Object returns the stored object, if existing.
func (s *MockStore) Object(bucket, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[path(bucket, key)]
	return data, ok
}

// Keys returns the sorted keys of all objects in the bucket.
func (s *MockStore) Keys(bucket string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	prefix := bucket + "/"
	for p := range s.objects {
		if strings.HasPrefix(p, prefix) {
			keys = append(keys, strings.TrimPrefix(p, prefix))
		}
	}
	sort.Strings(keys)
	return keys
}

func (s *MockStore) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

func path(bucket, key string) string {
	return bucket + "/" + key
}
