package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsconfig "github.com/scttfrdmn/cargoship/pkg/aws/config"
	cargoships3 "github.com/scttfrdmn/cargoship/pkg/aws/s3"

	"github.com/actuatorprobe/actuatorprobe/pkg/utils"
)

// ClientManager handles S3 client creation for the dump mirror
type ClientManager struct {
	client      *s3.Client
	transporter *cargoships3.Transporter
	config      *Config
	logger      utils.Logger
}

// NewClientManager creates the S3 client described by cfg. Static
// credentials are used when configured, otherwise the default AWS chain.
func NewClientManager(ctx context.Context, cfg *Config, logger utils.Logger) (*ClientManager, error) {
	if cfg == nil || cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name cannot be empty")
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.MaxRetries > 0 {
		loadOpts = append(loadOpts, config.WithRetryMaxAttempts(cfg.MaxRetries))
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	var transporter *cargoships3.Transporter
	if cfg.EnableCargoShipOptimization {
		concurrency := cfg.Concurrency
		if concurrency <= 0 {
			concurrency = 1
		}
		transporter = cargoships3.NewTransporter(client, awsconfig.S3Config{
			Bucket:             cfg.Bucket,
			StorageClass:       convertTierToCargoShipStorageClass(cfg.StorageTier),
			MultipartThreshold: 32 * 1024 * 1024,
			MultipartChunkSize: 16 * 1024 * 1024,
			Concurrency:        concurrency,
		})
		logger.Infof("CargoShip S3 optimization enabled for bucket %s (concurrency %d)", cfg.Bucket, concurrency)
	}

	return &ClientManager{
		client:      client,
		transporter: transporter,
		config:      cfg,
		logger:      logger,
	}, nil
}

// GetClient returns the S3 client
func (cm *ClientManager) GetClient() *s3.Client {
	return cm.client
}

// GetTransporter returns the CargoShip transporter if available
func (cm *ClientManager) GetTransporter() *cargoships3.Transporter {
	return cm.transporter
}

// IsCargoShipEnabled returns whether CargoShip optimization is enabled
func (cm *ClientManager) IsCargoShipEnabled() bool {
	return cm.transporter != nil
}

// HealthCheck verifies the bucket is reachable
func (cm *ClientManager) HealthCheck(ctx context.Context) error {
	_, err := cm.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cm.config.Bucket),
	})
	if err != nil {
		return fmt.Errorf("S3 health check failed: %w", err)
	}
	return nil
}
