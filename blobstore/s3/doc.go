// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "datasets/")
//
//	sampler, err := labelsampler.New(ctx, params, labelsampler.WithBlobStore(store))
//
// # Features
//
//   - Range reads for companion lookups
//   - Streaming multipart uploads for packed segments
//   - CRC32C integrity checks on single-shot puts
//   - Automatic pagination for listing
package s3
