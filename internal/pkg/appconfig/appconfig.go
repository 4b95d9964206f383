// Package appconfig loads the process level configuration of the orderlake Lambda function.
//
// Priority (highest to lowest):
//  1. Environment variables with ORDERLAKE_ prefix (e.g. ORDERLAKE_CRAWLER_NAME)
//  2. orderlake.yaml in the working directory, the Lambda task root or /opt
//  3. Built-in defaults
package appconfig

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/spf13/viper"
	"github.com/zpiroux/orderlake/entity"
	"github.com/zpiroux/orderlake/internal/pkg/engine"
	"github.com/zpiroux/orderlake/internal/pkg/entity/xparquet"
)

const (
	envPrefix      = "ORDERLAKE"
	configName     = "orderlake"
	defaultChanLen = 256
)

var defaultConfigPaths = []string{".", "/var/task", "/opt"}

type Config struct {
	Crawler CrawlerConfig
	Output  OutputConfig
	AWS     AWSConfig
	Log     LogConfig
	Notify  NotifyConfig
}

type CrawlerConfig struct {
	Name string
}

type OutputConfig struct {
	Bucket      string
	Prefix      string
	FilePrefix  string
	Compression string
}

// AWSConfig holds optional overrides of the default AWS SDK configuration chain.
// Endpoint and path style addressing are mainly used with S3 compatible local stacks.
type AWSConfig struct {
	Region       string
	Endpoint     string
	UsePathStyle bool
	AccessKey    string
	SecretKey    string
}

type LogConfig struct {
	Enabled bool
	Level   string
}

type NotifyConfig struct {
	ChanSize int
}

// Load reads the configuration. If no config paths are provided the default
// search paths are used. A missing config file is not an error.
func Load(configPaths ...string) (*Config, error) {
	v := viper.New()

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	if len(configPaths) == 0 {
		configPaths = defaultConfigPaths
	}
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Crawler: CrawlerConfig{
			Name: v.GetString("crawler.name"),
		},
		Output: OutputConfig{
			Bucket:      v.GetString("output.bucket"),
			Prefix:      v.GetString("output.prefix"),
			FilePrefix:  v.GetString("output.file_prefix"),
			Compression: v.GetString("output.compression"),
		},
		AWS: AWSConfig{
			Region:       v.GetString("aws.region"),
			Endpoint:     v.GetString("aws.endpoint"),
			UsePathStyle: v.GetBool("aws.use_path_style"),
			AccessKey:    v.GetString("aws.access_key"),
			SecretKey:    v.GetString("aws.secret_key"),
		},
		Log: LogConfig{
			Enabled: v.GetBool("log.enabled"),
			Level:   v.GetString("log.level"),
		},
		Notify: NotifyConfig{
			ChanSize: v.GetInt("notify.chan_size"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.name", engine.DefaultCrawlerName)
	v.SetDefault("output.prefix", engine.DefaultOutputPrefix)
	v.SetDefault("output.file_prefix", engine.DefaultFilePrefix)
	v.SetDefault("output.compression", xparquet.CompressionSnappy)
	v.SetDefault("log.enabled", true)
	v.SetDefault("notify.chan_size", defaultChanLen)
}

func (c *Config) validate() error {
	if c.Crawler.Name == "" {
		return fmt.Errorf("crawler.name cannot be empty")
	}
	if _, err := xparquet.NewEncoder(c.Output.Compression); err != nil {
		return fmt.Errorf("output.compression: %w", err)
	}
	if c.Log.Level != "" && entity.NotifyLevel(c.Log.Level) == entity.NotifyLevelInvalid {
		return fmt.Errorf("log.level must be one of DEBUG, INFO, WARN or ERROR, got %q", c.Log.Level)
	}
	if c.Notify.ChanSize < 0 {
		return fmt.Errorf("notify.chan_size cannot be negative")
	}
	if (c.AWS.AccessKey == "") != (c.AWS.SecretKey == "") {
		return fmt.Errorf("aws.access_key and aws.secret_key must be provided together")
	}
	return nil
}

// LoadAWSConfig returns the AWS SDK config, using the default credential chain unless
// static credentials are configured.
func (c *Config) LoadAWSConfig(ctx context.Context) (aws.Config, error) {

	var opts []func(*awsconfig.LoadOptions) error
	if c.AWS.Region != "" {
		opts = append(opts, awsconfig.WithRegion(c.AWS.Region))
	}
	if c.AWS.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AWS.AccessKey, c.AWS.SecretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}
