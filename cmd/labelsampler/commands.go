package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/hupe1980/labelsampler"
	"github.com/hupe1980/labelsampler/codec"
)

// Summary is the output of inspect.
type Summary struct {
	Source       string `json:"source"`
	Backend      string `json:"backend"`
	Records      int    `json:"records"`
	Labels       int    `json:"labels"`
	BucketSizes  []int  `json:"bucket_sizes"`
	EmptyBuckets []int  `json:"empty_buckets,omitempty"`
	ItemShape    []int  `json:"item_shape"`
}

func openSampler(ctx context.Context, cfg *Config, logger *labelsampler.Logger, mc labelsampler.MetricsCollector) (*labelsampler.Sampler, error) {
	opts, err := samplerOptions(ctx, cfg, logger, mc)
	if err != nil {
		return nil, err
	}
	return labelsampler.New(ctx, cfg.Params(), opts...)
}

func runInspect(ctx context.Context, cfg *Config, logger *labelsampler.Logger, mc labelsampler.MetricsCollector, out io.Writer) error {
	s, err := openSampler(ctx, cfg, logger, mc)
	if err != nil {
		return err
	}
	defer s.Close()

	shape, err := s.ItemShape(ctx)
	if err != nil {
		return err
	}

	idx := s.Index()
	sum := Summary{
		Source:       cfg.Source,
		Backend:      cfg.Backend.String(),
		Records:      idx.Len(),
		Labels:       idx.NumLabels(),
		BucketSizes:  make([]int, idx.NumLabels()),
		EmptyBuckets: idx.EmptyBuckets(),
		ItemShape:    shape,
	}
	for l := range sum.BucketSizes {
		sum.BucketSizes[l] = idx.BucketSize(l)
	}

	return writeJSON(out, sum)
}

func runSample(ctx context.Context, cfg *Config, logger *labelsampler.Logger, mc labelsampler.MetricsCollector, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sample", flag.ContinueOnError)
	n := fs.Int("n", 1, "number of batches")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *n < 1 {
		return fmt.Errorf("sample: -n must be positive, got %d", *n)
	}

	s, err := openSampler(ctx, cfg, logger, mc)
	if err != nil {
		return err
	}
	defer s.Close()

	for i := range *n {
		b, err := s.Next(ctx)
		if err != nil {
			return fmt.Errorf("batch %d: %w", i, err)
		}
		if err := writeJSON(out, struct {
			Batch  int                  `json:"batch"`
			Epoch  int                  `json:"epoch"`
			Policy labelsampler.Policy  `json:"policy"`
			Labels []float32            `json:"labels,omitempty"`
			Items  []labelsampler.Trace `json:"items"`
		}{i, b.Epoch, b.Policy, b.Labels, b.Items}); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	b, err := codec.Default.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}
