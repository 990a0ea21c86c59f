package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/roach88/stockbatch/internal/store"
)

// JobRunner executes the units of one array task. Units are independent and
// embarrassingly parallel, so they run through a worker pool bounded by the
// node's CPU count; an infrastructure error on one unit is recorded and does
// not stop the rest of the job.
type JobRunner struct {
	OutputDir string
	Executor  Executor

	// Store receives one OutcomeRecord per unit. Optional; nil disables
	// recording.
	Store *store.Store

	// BatchID tags recorded outcomes with the batch invocation.
	BatchID string

	// Workers bounds the pool. Zero means the CPU count.
	Workers int

	Logger *slog.Logger
}

// RunJob loads the task's persisted descriptor and executes every unit in
// it. Returns an error only when the job itself cannot run (missing
// descriptor, store failure); per-unit simulation failures are outcomes,
// not errors.
func (r *JobRunner) RunJob(ctx context.Context, jobNum int) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d, err := ReadDescriptor(r.OutputDir, jobNum)
	if err != nil {
		return err
	}

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(d.Batch) {
		workers = len(d.Batch)
	}

	logger.Info("running job", "job_num", jobNum, "units", len(d.Batch), "workers", workers)
	start := time.Now()

	units := make(chan SimulationUnit)
	var wg sync.WaitGroup

	var mu sync.Mutex
	var storeErr error
	counts := make(map[Status]int)

	record := func(out Outcome) {
		mu.Lock()
		defer mu.Unlock()
		counts[out.Status]++
		if r.Store == nil || storeErr != nil {
			return
		}
		storeErr = r.Store.WriteOutcome(ctx, store.OutcomeRecord{
			SimID:    out.Unit.SimID(),
			BatchID:  r.BatchID,
			Building: out.Unit.Building,
			Upgrade:  out.Unit.Upgrade,
			JobNum:   jobNum,
			Status:   string(out.Status),
			Skipped:  out.Skipped,
		})
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for unit := range units {
				out, err := r.Executor.Execute(ctx, unit)
				if err != nil {
					logger.Warn("unit execution error", "sim_id", unit.SimID(), "error", err)
					out = Outcome{Unit: unit, Status: StatusUnknown}
				}
				record(out)
			}
		}()
	}

	for _, unit := range d.Batch {
		select {
		case units <- unit:
		case <-ctx.Done():
			close(units)
			wg.Wait()
			return ctx.Err()
		}
	}
	close(units)
	wg.Wait()

	logger.Info("job finished",
		"job_num", jobNum,
		"elapsed", time.Since(start).Round(time.Second),
		"completed", counts[StatusCompleted],
		"failed", counts[StatusFailed],
		"unknown", counts[StatusUnknown])

	if storeErr != nil {
		return fmt.Errorf("record outcomes for job %d: %w", jobNum, storeErr)
	}
	return nil
}
