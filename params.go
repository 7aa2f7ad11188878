package labelsampler

import (
	"fmt"
	"strings"
)

// Backend names the record store implementation behind Params.Source.
type Backend string

const (
	// BackendMemory uses the store passed with WithStore.
	BackendMemory Backend = "memory"
	// BackendSegment reads a segment file from the local file system, or
	// from the blob store passed with WithBlobStore.
	BackendSegment Backend = "segment"
	// BackendS3 reads a segment file from S3. Source is s3://bucket/key.
	BackendS3 Backend = "s3"
	// BackendMinio reads a segment file from MinIO. Source is bucket/key
	// with an optional minio:// scheme.
	BackendMinio Backend = "minio"
	// BackendDynamoDB reads the records of one dataset from a DynamoDB
	// table. Source is the dataset name.
	BackendDynamoDB Backend = "dynamodb"
	// BackendParquet reads a Parquet file with key and value columns.
	BackendParquet Backend = "parquet"
)

// Backends returns all known backends.
func Backends() []Backend {
	return []Backend{BackendMemory, BackendSegment, BackendS3, BackendMinio, BackendDynamoDB, BackendParquet}
}

// ParseBackend parses a backend name, case-insensitively.
func ParseBackend(s string) (Backend, error) {
	b := Backend(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Backends() {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
}

func (b Backend) String() string { return string(b) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Backend) UnmarshalText(text []byte) error {
	v, err := ParseBackend(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// Params is the parameter block of a sampler layer.
type Params struct {
	// Source locates the record store; its form depends on Backend.
	Source string `json:"source"`

	// Backend selects the record store implementation.
	Backend Backend `json:"backend"`

	// BatchSize is the number of items per batch.
	BatchSize int `json:"batch_size"`

	// Policy selects the batch layout.
	Policy Policy `json:"policy"`
}

// Validate checks the parameter block.
func (p Params) Validate() error {
	if p.BatchSize < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidBatchSize, p.BatchSize)
	}
	if !p.Policy.valid() {
		return fmt.Errorf("%w: %d", ErrInvalidPolicy, int(p.Policy))
	}
	if _, err := ParseBackend(string(p.Backend)); err != nil {
		return err
	}
	if p.Source == "" && p.Backend != BackendMemory {
		return fmt.Errorf("labelsampler: %s backend requires a source", p.Backend)
	}
	return nil
}
