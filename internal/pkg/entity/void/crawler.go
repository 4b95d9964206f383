// Package void provides a Crawler that never reaches a catalog, for local runs and tests
// where no Glue crawler exists. Crawler start requests are logged and optionally fail.
package void

import (
	"context"
	"errors"
	"math"

	"github.com/teltech/logger"
	"github.com/zpiroux/orderlake/entity"
)

var log *logger.Log

func init() {
	log = logger.New()
}

// Available values for Config.SimulateError
const (
	SimulateNone    = ""
	SimulateRunning = "alwaysRunning"
	SimulateFailure = "alwaysFailure"
)

var (
	ErrSimulatedRunning = errors.New("void crawler simulating an already running crawler")
	ErrSimulatedFailure = errors.New("void crawler simulating a failed crawler start")
)

type Config struct {
	// SimulateError makes StartCrawler fail with one of the simulated errors
	SimulateError string

	// MaxErrors is the number of simulated errors to return before succeeding.
	// Zero means no limit.
	MaxErrors int

	LogRequests bool
}

type crawler struct {
	config       Config
	maxErrors    int
	numberErrors int
	requests     []string
}

// NewCrawler creates a void Crawler. A Crawler is not safe for concurrent use.
func NewCrawler(config Config) (*crawler, error) {
	switch config.SimulateError {
	case SimulateNone, SimulateRunning, SimulateFailure:
	default:
		return nil, errors.New("invalid simulateError value: " + config.SimulateError)
	}

	c := &crawler{config: config, maxErrors: config.MaxErrors}
	if c.maxErrors <= 0 {
		c.maxErrors = math.MaxInt32
	}
	return c, nil
}

func (c *crawler) StartCrawler(ctx context.Context, name string) error {

	c.requests = append(c.requests, name)
	if c.config.LogRequests {
		log.Infof("Received crawler start request in void.crawler for crawler: %s", name)
	}

	if c.config.SimulateError == SimulateNone || c.numberErrors >= c.maxErrors {
		return nil
	}
	c.numberErrors++
	if c.config.SimulateError == SimulateRunning {
		return ErrSimulatedRunning
	}
	return ErrSimulatedFailure
}

// Requests returns the crawler names requested so far.
func (c *crawler) Requests() []string {
	return c.requests
}

var _ entity.Crawler = (*crawler)(nil)
