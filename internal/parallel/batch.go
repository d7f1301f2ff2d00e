// Package parallel checks batches of temporal networks concurrently.
// Every job gets its own checker instance, so jobs share no state and a
// batch scales with the worker limit instead of contending on locks.
package parallel

import (
	"context"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gitrdm/gocstn/pkg/cstn"
)

// Job pairs one network with the policy to check it under. ID is
// optional; Run assigns a fresh UUID to jobs submitted without one.
type Job struct {
	ID     string
	Name   string
	Graph  *cstn.Graph
	Policy cstn.Policy
}

// Result reports the outcome of one job. Exactly one of Status and Err
// is set: verdicts, including timeouts, arrive as a RunStatus, while
// construction and validation failures arrive as an error.
type Result struct {
	JobID  string
	Name   string
	Status *cstn.RunStatus
	Err    error
}

// BatchRunner runs controllability checks over many networks at once,
// bounded by a worker limit.
type BatchRunner struct {
	workers int
}

// NewBatchRunner creates a runner that checks at most workers networks
// at a time. A non-positive limit defaults to the number of CPU cores.
func NewBatchRunner(workers int) *BatchRunner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &BatchRunner{workers: workers}
}

// Workers reports the concurrency limit.
func (r *BatchRunner) Workers() int {
	return r.workers
}

// Run checks every job and returns one result per job, in submission
// order. A job that fails validation records the failure in its own
// Result; it never aborts the rest of the batch. Cancelling the context
// makes the remaining checks return timeout statuses, and Run reports
// the context error alongside the results so callers can tell a cut
// batch from a completed one.
func (r *BatchRunner) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))

	var grp errgroup.Group
	grp.SetLimit(r.workers)
	for i := range jobs {
		i := i
		grp.Go(func() error {
			results[i] = runOne(ctx, jobs[i])
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

// runOne checks a single network on the calling goroutine.
func runOne(ctx context.Context, job Job) Result {
	res := Result{JobID: job.ID, Name: job.Name}
	if res.JobID == "" {
		res.JobID = uuid.NewString()
	}
	res.Status, res.Err = cstn.Check(ctx, job.Graph, job.Policy)
	return res
}

// Tally is the per-outcome breakdown of a finished batch.
type Tally struct {
	Consistent   int
	Inconsistent int
	Timeout      int
	Errored      int
}

// Summarize buckets results by outcome. Jobs that produced neither a
// status nor an error are counted as errored; a well-formed Result never
// looks like that, but a zero value should not vanish from the totals.
func Summarize(results []Result) Tally {
	var t Tally
	for _, res := range results {
		switch {
		case res.Err != nil || res.Status == nil:
			t.Errored++
		case res.Status.State == cstn.StateConsistent:
			t.Consistent++
		case res.Status.State == cstn.StateInconsistent:
			t.Inconsistent++
		default:
			t.Timeout++
		}
	}
	return t
}

// AllConsistent reports whether every job reached a controllable verdict.
func (t Tally) AllConsistent() bool {
	return t.Inconsistent == 0 && t.Timeout == 0 && t.Errored == 0
}
