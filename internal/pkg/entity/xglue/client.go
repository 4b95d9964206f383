package xglue

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
)

// NewClient creates a Glue client from the AWS config, with an optional custom endpoint.
func NewClient(cfg aws.Config, endpoint string) *glue.Client {
	return glue.NewFromConfig(cfg, func(o *glue.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}
