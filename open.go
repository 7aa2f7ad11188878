package labelsampler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hupe1980/labelsampler/blobstore"
	miniostore "github.com/hupe1980/labelsampler/blobstore/minio"
	s3store "github.com/hupe1980/labelsampler/blobstore/s3"
	"github.com/hupe1980/labelsampler/internal/cache"
	"github.com/hupe1980/labelsampler/recordstore"
	"github.com/hupe1980/labelsampler/recordstore/dynamo"
	"github.com/hupe1980/labelsampler/recordstore/parquet"
	"github.com/hupe1980/labelsampler/recordstore/segment"
)

// ParseObjectURI splits "scheme://bucket/key" (or "bucket/key" without a
// scheme) into bucket and key.
func ParseObjectURI(uri, scheme string) (bucket, key string, err error) {
	rest := uri
	if i := strings.Index(uri, "://"); i >= 0 {
		if uri[:i] != scheme {
			return "", "", fmt.Errorf("labelsampler: %q is not a %s:// URI", uri, scheme)
		}
		rest = uri[i+3:]
	}
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("labelsampler: %q must name a bucket and a key", uri)
	}
	return bucket, key, nil
}

// openStore resolves params to a record store.
func openStore(ctx context.Context, p Params, o *options) (recordstore.Store, error) {
	if o.store != nil {
		return o.store, nil
	}

	switch p.Backend {
	case BackendMemory:
		return nil, errors.New("labelsampler: memory backend requires WithStore")

	case BackendSegment, BackendParquet:
		bs, name := o.blobStore, p.Source
		if bs == nil {
			bs = blobstore.NewLocalStore(filepath.Dir(p.Source))
			name = filepath.Base(p.Source)
		}
		return openBlobStore(ctx, p.Backend, bs, name, o)

	case BackendS3:
		if o.s3Client == nil {
			return nil, errors.New("labelsampler: s3 backend requires WithS3Client")
		}
		bucket, key, err := ParseObjectURI(p.Source, "s3")
		if err != nil {
			return nil, err
		}
		return openBlobStore(ctx, BackendSegment, o.cached(s3store.NewStore(o.s3Client, bucket, "")), key, o)

	case BackendMinio:
		if o.minioClient == nil {
			return nil, errors.New("labelsampler: minio backend requires WithMinioClient")
		}
		bucket, key, err := ParseObjectURI(p.Source, "minio")
		if err != nil {
			return nil, err
		}
		return openBlobStore(ctx, BackendSegment, o.cached(miniostore.NewStore(o.minioClient, bucket, "")), key, o)

	case BackendDynamoDB:
		if o.dynamoClient == nil {
			return nil, errors.New("labelsampler: dynamodb backend requires WithDynamoDBClient")
		}
		optFns := append([]dynamo.Option{dynamo.WithResourceController(o.rc)}, o.dynamoOptions...)
		return dynamo.Open(ctx, o.dynamoClient, o.dynamoTable, p.Source, optFns...)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, p.Backend)
}

func openBlobStore(ctx context.Context, backend Backend, bs blobstore.BlobStore, name string, o *options) (recordstore.Store, error) {
	blob, err := bs.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	var store recordstore.Store
	if backend == BackendParquet {
		store, err = parquet.Open(ctx, blob)
	} else {
		store, err = segment.Open(ctx, blob,
			segment.WithName(name),
			segment.WithCache(o.recordCache),
			segment.WithResourceController(o.rc),
		)
	}
	if err != nil {
		_ = blob.Close()
		return nil, err
	}
	return store, nil
}

func (o *options) cached(bs blobstore.BlobStore) blobstore.BlobStore {
	c := o.blockCache
	if c == nil {
		c = cache.NewLRU(DefaultBlockCacheBytes, o.rc)
	}
	return blobstore.NewCachingStore(bs, c, blobstore.DefaultBlockSize, o.rc)
}
