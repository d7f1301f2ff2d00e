package parallel

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"testing"

	"github.com/gitrdm/gocstn/pkg/cstn"
)

// consistentNetwork builds a two-node network with a satisfiable window.
func consistentNetwork(t *testing.T) *cstn.Graph {
	t.Helper()
	g := cstn.NewGraph("ok")
	for _, name := range []string{"Z", "A"} {
		if err := g.AddNode(cstn.NewNode(name)); err != nil {
			t.Fatalf("AddNode(%s): %v", name, err)
		}
	}
	if err := g.SetZ("Z"); err != nil {
		t.Fatalf("SetZ: %v", err)
	}
	za := cstn.NewEdge("ZA", cstn.Requirement)
	za.Merge(cstn.EmptyLabel, 5)
	if err := g.AddEdge(za, "Z", "A"); err != nil {
		t.Fatalf("AddEdge(ZA): %v", err)
	}
	az := cstn.NewEdge("AZ", cstn.Requirement)
	az.Merge(cstn.EmptyLabel, -1)
	if err := g.AddEdge(az, "A", "Z"); err != nil {
		t.Fatalf("AddEdge(AZ): %v", err)
	}
	return g
}

// cyclicNetwork builds a network whose constraints sum to a negative cycle.
func cyclicNetwork(t *testing.T) *cstn.Graph {
	t.Helper()
	g := cstn.NewGraph("cycle")
	for _, name := range []string{"Z", "A", "B"} {
		if err := g.AddNode(cstn.NewNode(name)); err != nil {
			t.Fatalf("AddNode(%s): %v", name, err)
		}
	}
	if err := g.SetZ("Z"); err != nil {
		t.Fatalf("SetZ: %v", err)
	}
	ab := cstn.NewEdge("AB", cstn.Requirement)
	ab.Merge(cstn.EmptyLabel, -3)
	if err := g.AddEdge(ab, "A", "B"); err != nil {
		t.Fatalf("AddEdge(AB): %v", err)
	}
	ba := cstn.NewEdge("BA", cstn.Requirement)
	ba.Merge(cstn.EmptyLabel, 2)
	if err := g.AddEdge(ba, "B", "A"); err != nil {
		t.Fatalf("AddEdge(BA): %v", err)
	}
	return g
}

// NewBatchRunner falls back to one worker per CPU for non-positive limits.
func TestNewBatchRunner_Workers(t *testing.T) {
	if got := NewBatchRunner(3).Workers(); got != 3 {
		t.Fatalf("Workers() = %d, want 3", got)
	}
	if got := NewBatchRunner(0).Workers(); got != runtime.NumCPU() {
		t.Fatalf("Workers() = %d, want NumCPU %d", got, runtime.NumCPU())
	}
	if got := NewBatchRunner(-2).Workers(); got != runtime.NumCPU() {
		t.Fatalf("Workers() = %d, want NumCPU %d", got, runtime.NumCPU())
	}
}

// Run keeps submission order and isolates outcomes, failures included.
func TestBatchRunner_MixedOutcomes(t *testing.T) {
	jobs := []Job{
		{ID: "job-1", Name: "ok", Graph: consistentNetwork(t), Policy: cstn.IRPolicy{}},
		{Name: "cycle", Graph: cyclicNetwork(t), Policy: cstn.IRPolicy{}},
		{Name: "broken", Graph: cstn.NewGraph("broken"), Policy: cstn.IRPolicy{}},
	}

	results, err := NewBatchRunner(2).Run(context.Background(), jobs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != len(jobs) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(jobs))
	}
	for i, job := range jobs {
		if results[i].Name != job.Name {
			t.Fatalf("results[%d].Name = %q, want %q", i, results[i].Name, job.Name)
		}
	}

	if results[0].JobID != "job-1" {
		t.Fatalf("explicit job ID = %q, want job-1", results[0].JobID)
	}
	if results[1].JobID == "" {
		t.Fatalf("empty job ID should be replaced with a generated one")
	}

	if results[0].Err != nil {
		t.Fatalf("ok job error = %v", results[0].Err)
	}
	if results[0].Status.State != cstn.StateConsistent {
		t.Fatalf("ok job state = %v, want consistent", results[0].Status.State)
	}
	if results[1].Err != nil {
		t.Fatalf("cycle job error = %v", results[1].Err)
	}
	if results[1].Status.State != cstn.StateInconsistent {
		t.Fatalf("cycle job state = %v, want inconsistent", results[1].Status.State)
	}

	if results[2].Status != nil {
		t.Fatalf("broken job status = %v, want nil", results[2].Status)
	}
	var cfg *cstn.ConfigurationError
	if !errors.As(results[2].Err, &cfg) {
		t.Fatalf("broken job error = %v, want a ConfigurationError", results[2].Err)
	}
}

// A cancelled context cuts the batch short but still yields one result per job.
func TestBatchRunner_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []Job{
		{Name: "first", Graph: consistentNetwork(t), Policy: cstn.IRPolicy{}},
		{Name: "second", Graph: consistentNetwork(t), Policy: cstn.IRPolicy{}},
	}
	results, err := NewBatchRunner(1).Run(ctx, jobs)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	for i, res := range results {
		if res.Err != nil {
			t.Fatalf("job %d error = %v", i, res.Err)
		}
		if res.Status.State != cstn.StateTimeout {
			t.Fatalf("job %d state = %v, want timeout", i, res.Status.State)
		}
		if res.Status.Finished {
			t.Fatalf("job %d reports finished after cancellation", i)
		}
	}
}

// A batch wider than the worker limit still checks every network.
func TestBatchRunner_WideBatch(t *testing.T) {
	var jobs []Job
	for i := 0; i < 16; i++ {
		jobs = append(jobs, Job{
			Name:   fmt.Sprintf("net-%02d", i),
			Graph:  consistentNetwork(t),
			Policy: cstn.IRPolicy{},
		})
	}

	results, err := NewBatchRunner(4).Run(context.Background(), jobs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	tally := Summarize(results)
	if tally.Consistent != len(jobs) {
		t.Fatalf("tally.Consistent = %d, want %d", tally.Consistent, len(jobs))
	}
	if !tally.AllConsistent() {
		t.Fatalf("AllConsistent() = false for a clean batch")
	}

	seen := make(map[string]bool)
	for _, res := range results {
		if res.JobID == "" {
			t.Fatalf("job %q has no generated ID", res.Name)
		}
		if seen[res.JobID] {
			t.Fatalf("duplicate generated job ID %s", res.JobID)
		}
		seen[res.JobID] = true
	}
}

// Summarize buckets outcomes and flags batches that are not all clean.
func TestSummarize(t *testing.T) {
	results := []Result{
		{Status: &cstn.RunStatus{State: cstn.StateConsistent}},
		{Status: &cstn.RunStatus{State: cstn.StateConsistent}},
		{Status: &cstn.RunStatus{State: cstn.StateInconsistent}},
		{Status: &cstn.RunStatus{State: cstn.StateTimeout}},
		{Err: errors.New("bad network")},
		{},
	}
	tally := Summarize(results)
	want := Tally{Consistent: 2, Inconsistent: 1, Timeout: 1, Errored: 2}
	if tally != want {
		t.Fatalf("Summarize = %+v, want %+v", tally, want)
	}
	if tally.AllConsistent() {
		t.Fatalf("AllConsistent() = true for a mixed batch")
	}
	if !Summarize(results[:2]).AllConsistent() {
		t.Fatalf("AllConsistent() = false for a clean prefix")
	}
}
