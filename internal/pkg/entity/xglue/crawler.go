package xglue

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/glue/types"
	"github.com/zpiroux/orderlake/entity"
)

// GlueClient decouples the AWS Glue Go client API for unit testing. *glue.Client satisfies it.
type GlueClient interface {
	StartCrawler(ctx context.Context, params *glue.StartCrawlerInput, optFns ...func(*glue.Options)) (*glue.StartCrawlerOutput, error)
}

var (
	ErrCrawlerRunning  = errors.New("crawler is already running")
	ErrCrawlerNotFound = errors.New("crawler does not exist")
)

// Crawler implements entity.Crawler on AWS Glue. Starting a crawler only schedules a run,
// which is not awaited.
type Crawler struct {
	client GlueClient
}

func NewCrawler(client GlueClient) (*Crawler, error) {
	if client == nil {
		return nil, errors.New("invalid arguments, GlueClient cannot be nil")
	}
	if c, ok := client.(*glue.Client); ok && c == nil {
		return nil, errors.New("invalid arguments, GlueClient cannot be nil")
	}
	return &Crawler{client: client}, nil
}

func (c *Crawler) StartCrawler(ctx context.Context, name string) error {

	if name == "" {
		return errors.New("no crawler name provided")
	}

	_, err := c.client.StartCrawler(ctx, &glue.StartCrawlerInput{Name: aws.String(name)})
	if err == nil {
		return nil
	}

	var (
		running  *types.CrawlerRunningException
		notFound *types.EntityNotFoundException
	)
	switch {
	case errors.As(err, &running):
		return fmt.Errorf("%w: %s: %v", ErrCrawlerRunning, name, err)
	case errors.As(err, &notFound):
		return fmt.Errorf("%w: %s: %v", ErrCrawlerNotFound, name, err)
	}
	return fmt.Errorf("failed to start crawler %s: %w", name, err)
}

var _ entity.Crawler = (*Crawler)(nil)
