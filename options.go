package labelsampler

import (
	"log/slog"
	"time"

	"github.com/hupe1980/labelsampler/blobstore"
	s3store "github.com/hupe1980/labelsampler/blobstore/s3"
	"github.com/hupe1980/labelsampler/internal/cache"
	"github.com/hupe1980/labelsampler/internal/companion"
	"github.com/hupe1980/labelsampler/record"
	"github.com/hupe1980/labelsampler/recordstore"
	"github.com/hupe1980/labelsampler/recordstore/dynamo"
	"github.com/hupe1980/labelsampler/resource"
	"github.com/hupe1980/labelsampler/transform"
	"github.com/minio/minio-go/v7"
)

// DefaultDynamoDBTable is the table read by the dynamodb backend unless
// WithDynamoDBTable is given.
const DefaultDynamoDBTable = "labelsampler-records"

// DefaultBlockCacheBytes bounds the block cache put in front of remote
// segment files.
const DefaultBlockCacheBytes = 64 << 20

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	seed             int64
	companion        companion.Config
	transformer      transform.Transformer
	parser           record.Parser
	recordCache      cache.Cache
	blockCache       cache.Cache
	rc               *resource.Controller

	store         recordstore.Store
	blobStore     blobstore.BlobStore
	s3Client      s3store.Client
	minioClient   *minio.Client
	dynamoClient  dynamo.Client
	dynamoTable   string
	dynamoOptions []dynamo.Option
}

// Option configures a Sampler or Layer.
type Option func(*options)

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := labelsampler.NewJSONLogger(slog.LevelInfo)
//	s, _ := labelsampler.New(ctx, params, labelsampler.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
//
//	metrics := &labelsampler.BasicMetricsCollector{}
//	s, _ := labelsampler.New(ctx, params, labelsampler.WithMetricsCollector(metrics))
//	// ... draw batches ...
//	fmt.Println(metrics.GetStats().Restarts)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithSeed seeds the companion sampler. The generator is seeded once;
// two samplers with the same seed over the same store draw the same batches.
// Defaults to the wall clock.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithSameClassProbability sets the probability that a siamese or pair item
// gets a same-class companion. Defaults to 0.5. New fails with
// ErrInvalidProbability unless p is within [0, 1].
func WithSameClassProbability(p float64) Option {
	return func(o *options) {
		o.companion.SameClassProbability = p
	}
}

// WithMaxRejections bounds the rejection loop of different-class draws
// before the sampler falls back to an exact draw.
func WithMaxRejections(n int) Option {
	return func(o *options) {
		o.companion.MaxRejections = n
	}
}

// WithTransformer sets the transform applied to every record.
// Defaults to transform.Identity().
func WithTransformer(t transform.Transformer) Option {
	return func(o *options) {
		o.transformer = t
	}
}

// WithParser sets the record parser. Defaults to record.NewParser(nil).
func WithParser(p record.Parser) Option {
	return func(o *options) {
		o.parser = p
	}
}

// WithRecordCache caches decoded records of segment stores.
func WithRecordCache(c cache.Cache) Option {
	return func(o *options) {
		o.recordCache = c
	}
}

// WithBlockCache sets the block cache used in front of S3 and MinIO.
// Defaults to an LRU of DefaultBlockCacheBytes.
func WithBlockCache(c cache.Cache) Option {
	return func(o *options) {
		o.blockCache = c
	}
}

// WithResourceController bounds memory, concurrent reads and IO bandwidth
// of the store backends.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithStore makes the sampler read from s, whatever the backend. The
// sampler takes ownership of s and closes it on Close.
func WithStore(s recordstore.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithBlobStore makes the segment and parquet backends resolve Source in bs
// instead of the local file system.
func WithBlobStore(bs blobstore.BlobStore) Option {
	return func(o *options) {
		o.blobStore = bs
	}
}

// WithS3Client sets the client of the s3 backend.
func WithS3Client(c s3store.Client) Option {
	return func(o *options) {
		o.s3Client = c
	}
}

// WithMinioClient sets the client of the minio backend.
func WithMinioClient(c *minio.Client) Option {
	return func(o *options) {
		o.minioClient = c
	}
}

// WithDynamoDBClient sets the client of the dynamodb backend.
func WithDynamoDBClient(c dynamo.Client, optFns ...dynamo.Option) Option {
	return func(o *options) {
		o.dynamoClient = c
		o.dynamoOptions = optFns
	}
}

// WithDynamoDBTable sets the table of the dynamodb backend.
func WithDynamoDBTable(table string) Option {
	return func(o *options) {
		o.dynamoTable = table
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		seed:             time.Now().UnixNano(),
		companion:        companion.DefaultConfig(),
		dynamoTable:      DefaultDynamoDBTable,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.transformer == nil {
		o.transformer = transform.Identity()
	}
	if o.parser == nil {
		o.parser = record.NewParser(nil)
	}
	return o
}
