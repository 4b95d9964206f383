package etltest

import (
	"context"
	"sync"
)

// MockCrawler records the names of started crawlers. If Err is set it is returned instead.
type MockCrawler struct {
	Err error

	mu      sync.Mutex
	started []string
}

func NewMockCrawler() *MockCrawler {
	return &MockCrawler{}
}

func (c *MockCrawler) StartCrawler(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.started = append(c.started, name)
	return nil
}

func (c *MockCrawler) Started() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.started...)
}
