package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/labelsampler"
	"github.com/hupe1980/labelsampler/blobstore"
	miniostore "github.com/hupe1980/labelsampler/blobstore/minio"
	s3store "github.com/hupe1980/labelsampler/blobstore/s3"
	"github.com/hupe1980/labelsampler/internal/cache"
	"github.com/hupe1980/labelsampler/resource"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func loadAWSConfig(ctx context.Context, cfg *Config) (aws.Config, error) {
	var optFns []func(*config.LoadOptions) error
	if cfg.AWSRegion != "" {
		optFns = append(optFns, config.WithRegion(cfg.AWSRegion))
	}
	return config.LoadDefaultConfig(ctx, optFns...)
}

func newMinioClient(cfg *Config) (*minio.Client, error) {
	return minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
}

// samplerOptions wires the configured limits, caches and backend clients.
func samplerOptions(ctx context.Context, cfg *Config, logger *labelsampler.Logger, mc labelsampler.MetricsCollector) ([]labelsampler.Option, error) {
	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   cfg.MaxMemory,
		IOLimitBytesPerSec: cfg.IORateLimit,
	})

	opts := []labelsampler.Option{
		labelsampler.WithLogger(logger),
		labelsampler.WithMetricsCollector(mc),
		labelsampler.WithResourceController(rc),
		labelsampler.WithSameClassProbability(cfg.SameClassProbability),
		labelsampler.WithMaxRejections(cfg.MaxRejections),
		labelsampler.WithDynamoDBTable(cfg.DynamoDBTable),
		labelsampler.WithParser(cfg.Parser()),
	}
	if cfg.Seed != 0 {
		opts = append(opts, labelsampler.WithSeed(cfg.Seed))
	}
	if cfg.CacheBytes > 0 {
		opts = append(opts,
			labelsampler.WithRecordCache(cache.NewLRU(cfg.CacheBytes, rc)),
			labelsampler.WithBlockCache(cache.NewLRU(cfg.CacheBytes, rc)),
		)
	}

	switch cfg.Backend {
	case labelsampler.BackendS3:
		awsCfg, err := loadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, labelsampler.WithS3Client(s3.NewFromConfig(awsCfg)))
	case labelsampler.BackendDynamoDB:
		awsCfg, err := loadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, labelsampler.WithDynamoDBClient(dynamodb.NewFromConfig(awsCfg)))
	case labelsampler.BackendMinio:
		client, err := newMinioClient(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, labelsampler.WithMinioClient(client))
	}
	return opts, nil
}

// destination resolves a pack destination to a blob store and a name in it.
func destination(ctx context.Context, cfg *Config, dest string) (blobstore.BlobStore, string, error) {
	switch {
	case strings.HasPrefix(dest, "s3://"):
		bucket, key, err := labelsampler.ParseObjectURI(dest, "s3")
		if err != nil {
			return nil, "", err
		}
		awsCfg, err := loadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, "", err
		}
		return s3store.NewStore(s3.NewFromConfig(awsCfg), bucket, ""), key, nil

	case strings.HasPrefix(dest, "minio://"):
		bucket, key, err := labelsampler.ParseObjectURI(dest, "minio")
		if err != nil {
			return nil, "", err
		}
		if cfg.MinioEndpoint == "" {
			return nil, "", ErrInvalidMinioConfig
		}
		client, err := newMinioClient(cfg)
		if err != nil {
			return nil, "", err
		}
		return miniostore.NewStore(client, bucket, ""), key, nil

	case strings.Contains(dest, "://"):
		return nil, "", fmt.Errorf("unsupported destination %q", dest)
	}
	return blobstore.NewLocalStore(filepath.Dir(dest)), filepath.Base(dest), nil
}
