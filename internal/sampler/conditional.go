package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/roach88/stockbatch/internal/tsv"
)

// Sampler produces the sample table consumed by every simulation in a batch
// and returns the path of the written artifact. Strategies that shell out to
// an external sampling tool satisfy the same interface; ConditionalSampler
// is the variant that carries the algorithm itself.
type Sampler interface {
	RunSampling(ctx context.Context, nDatapoints int) (string, error)
}

// ConditionalSampler draws building-characteristic combinations from a set
// of conditional attribute tables using a Sobol point set. See the package
// documentation for the algorithm.
type ConditionalSampler struct {
	tables map[string]*tsv.Table
	output string
	logger *slog.Logger

	// Workers bounds the sample-resolution pool. Zero means twice the CPU
	// count.
	Workers int

	// Skip is the Sobol sequence offset. Fixed per project so reruns
	// reproduce the same table.
	Skip int
}

var _ Sampler = (*ConditionalSampler)(nil)

// NewConditionalSampler builds a sampler over tables that writes its result
// table to outputPath.
func NewConditionalSampler(tables map[string]*tsv.Table, outputPath string, logger *slog.Logger) *ConditionalSampler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConditionalSampler{tables: tables, output: outputPath, logger: logger}
}

// RunSampling resolves n sample rows and writes the accepted ones to the
// output table. Row-level coverage gaps are logged and skipped; a
// NonUniqueDistributionError or dependency-order failure aborts the run.
func (s *ConditionalSampler) RunSampling(ctx context.Context, n int) (string, error) {
	order, err := ResolveOrder(tsv.DependencyGraph(s.tables))
	if err != nil {
		return "", err
	}

	points, err := GeneratePoints(len(order), n, s.Skip)
	if err != nil {
		return "", err
	}

	writer, err := NewTableWriter(s.output, order)
	if err != nil {
		return "", err
	}

	workers := s.Workers
	if workers <= 0 {
		workers = 2 * runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	s.logger.Info("beginning sampling", "n_samples", n, "attributes", len(order), "workers", workers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// First fatal error wins; everything after it is cancellation noise.
	var once sync.Once
	var fatal error
	abort := func(err error) {
		once.Do(func() {
			fatal = err
			cancel()
		})
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := range indices {
				values, ok, err := s.resolveSample(k, points[k], order)
				if err != nil {
					abort(err)
					return
				}
				if !ok {
					continue
				}
				if err := writer.Append(k+1, values); err != nil {
					abort(err)
					return
				}
			}
		}()
	}

feed:
	for k := 0; k < n; k++ {
		select {
		case indices <- k:
		case <-ctx.Done():
			break feed
		}
	}
	close(indices)
	wg.Wait()

	if fatal != nil {
		writer.Close()
		return "", fatal
	}
	if err := ctx.Err(); err != nil {
		writer.Close()
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close sample table: %w", err)
	}
	return writer.Path(), nil
}

// resolveSample evaluates one Sobol point against the attribute tables.
// Returns (values, true, nil) for an accepted row, (nil, false, nil) for a
// rejected one, and a fatal error when the tables are inconsistent.
func (s *ConditionalSampler) resolveSample(k int, point []float64, order []string) ([]string, bool, error) {
	assigned := make(map[string]string, len(order))
	values := make([]string, 0, len(order))

	for i, attr := range order {
		table := s.tables[attr]
		rows := table.Filter(assigned)

		if len(rows) == 0 {
			// Coverage gap in the input tables: this dependency combination
			// has no row. Drop the sample, keep the run going.
			s.logger.Warn("table lookup reduced to 0 rows, rejecting sample",
				"attribute", attr, "sample_index", k, "context", depContext(table, assigned))
			return nil, false, nil
		}
		if len(rows) > 1 {
			return nil, false, &NonUniqueDistributionError{
				Attribute:   attr,
				SampleIndex: k,
				Rows:        len(rows),
				Context:     depContext(table, assigned),
			}
		}

		row := rows[0]
		coord := point[i]
		choice := -1
		cum := 0.0
		for j, w := range row.Weights {
			cum += w
			if cum > coord {
				choice = j
				break
			}
		}
		if choice < 0 {
			// Weights sum short of the coordinate: the row's mass does not
			// cover the unit interval. Treat like a coverage gap.
			s.logger.Warn("cumulative weight below sample coordinate, rejecting sample",
				"attribute", attr, "sample_index", k, "coordinate", coord, "total_weight", cum)
			return nil, false, nil
		}

		value := table.Options[choice]
		assigned[attr] = value
		values = append(values, value)
	}

	return values, true, nil
}

// depContext restricts an assignment map to the dependencies of one table,
// for diagnostics.
func depContext(t *tsv.Table, assigned map[string]string) map[string]string {
	ctx := make(map[string]string, len(t.Dependencies))
	for _, dep := range t.Dependencies {
		if v, ok := assigned[dep]; ok {
			ctx[dep] = v
		}
	}
	return ctx
}
