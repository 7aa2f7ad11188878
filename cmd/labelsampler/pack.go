package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/hupe1980/labelsampler"
	"github.com/hupe1980/labelsampler/blobstore"
	"github.com/hupe1980/labelsampler/record"
	"github.com/hupe1980/labelsampler/recordstore/dynamo"
	"github.com/hupe1980/labelsampler/recordstore/parquet"
	"github.com/hupe1980/labelsampler/recordstore/segment"
	"github.com/hupe1980/labelsampler/resource"
)

// recordWriter appends records under consecutive row keys. Close commits
// the dataset; Abort discards it.
type recordWriter interface {
	Append(value []byte) (int, error)
	Close() error
	Abort() error
}

type encoder interface {
	Append(value []byte) (int, error)
	Close() error
}

// blobWriter encodes into a blob that only appears on a successful Close.
type blobWriter struct {
	encoder
	blob blobstore.WritableBlob
}

func (w *blobWriter) Abort() error { return w.blob.Abort() }

type dynamoWriter struct {
	ctx   context.Context
	store *dynamo.Store
	row   int
}

func (w *dynamoWriter) Append(value []byte) (int, error) {
	row := w.row
	if err := w.store.Put(w.ctx, row, value); err != nil {
		return 0, err
	}
	w.row++
	return row, nil
}

func (w *dynamoWriter) Close() error { return w.store.Close() }

// Abort deletes the rows written so far.
func (w *dynamoWriter) Abort() error {
	defer w.store.Close()
	for row := w.row - 1; row >= 0; row-- {
		if err := w.store.Delete(w.ctx, row); err != nil {
			return err
		}
	}
	w.row = 0
	return nil
}

func runPack(ctx context.Context, cfg *Config, logger *labelsampler.Logger, args []string) error {
	fs := flag.NewFlagSet("pack", flag.ContinueOnError)
	in := fs.String("in", "-", "JSON-lines input, one record per line; - reads stdin")
	out := fs.String("out", "", "destination: a path, s3://bucket/key or minio://bucket/key; the dataset name for dynamodb")
	format := fs.String("format", "segment", "store format: segment, parquet or dynamodb")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return errors.New("pack: -out is required")
	}

	r := io.Reader(os.Stdin)
	if *in != "-" {
		f, err := os.Open(*in)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	w, err := openWriter(ctx, cfg, *format, *out)
	if err != nil {
		return err
	}

	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: cfg.IORateLimit})

	n, err := pack(rc.Reader(ctx, r), w, cfg.Parser())
	if err != nil {
		if aerr := w.Abort(); aerr != nil {
			logger.WarnContext(ctx, "discarding partial pack output failed", "destination", *out, "error", aerr)
		}
		return fmt.Errorf("pack %s: %w", *out, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("pack %s: %w", *out, err)
	}

	logger.InfoContext(ctx, "records packed", "count", n, "format", *format, "destination", *out)
	return nil
}

func openWriter(ctx context.Context, cfg *Config, format, dest string) (recordWriter, error) {
	if format == "dynamodb" {
		awsCfg, err := loadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store := dynamo.New(dynamodb.NewFromConfig(awsCfg), cfg.DynamoDBTable, dest)
		return &dynamoWriter{ctx: ctx, store: store}, nil
	}

	bs, name, err := destination(ctx, cfg, dest)
	if err != nil {
		return nil, err
	}

	switch format {
	case "segment":
		c, err := segment.ParseCompression(cfg.Compression)
		if err != nil {
			return nil, err
		}
		blob, err := bs.Create(ctx, name)
		if err != nil {
			return nil, err
		}
		w, err := segment.NewWriter(blob, segment.WithCompression(c))
		if err != nil {
			_ = blob.Abort()
			return nil, err
		}
		return &blobWriter{encoder: w, blob: blob}, nil
	case "parquet":
		blob, err := bs.Create(ctx, name)
		if err != nil {
			return nil, err
		}
		return &blobWriter{encoder: parquet.NewWriter(blob), blob: blob}, nil
	}
	return nil, fmt.Errorf("pack: unknown format %q", format)
}

// pack validates every input line as a record and appends it to w.
func pack(r io.Reader, w recordWriter, parser record.Parser) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1<<20), 64<<20)

	n := 0
	for line := 1; sc.Scan(); line++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		d, err := parser.Parse(sc.Bytes())
		if err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		if d.Label < 0 {
			return n, fmt.Errorf("line %d: %w", line, &labelsampler.InvalidLabelError{Row: n, Label: d.Label})
		}
		value, err := parser.Encode(d)
		if err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		if _, err := w.Append(value); err != nil {
			return n, err
		}
		n++
	}
	return n, sc.Err()
}
