package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

type fakeRunner struct {
	mu     sync.Mutex
	seen   map[string]int
	failOn map[string]bool
}

func newFakeRunner(failOn ...string) *fakeRunner {
	fail := make(map[string]bool, len(failOn))
	for _, id := range failOn {
		fail[id] = true
	}
	return &fakeRunner{seen: make(map[string]int), failOn: fail}
}

func (f *fakeRunner) Run(_ context.Context, contentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen[contentID]++
	if f.failOn[contentID] {
		return errors.New("task failed")
	}
	return nil
}

func TestPoolProcessesAllTasks(t *testing.T) {
	runner := newFakeRunner()
	pool := NewPool(runner, 4, nil)

	tasks := TasksFromIDs([]string{"a", "b", "c", "d", "e"})
	results := pool.Process(context.Background(), tasks)

	if len(results) != 5 {
		t.Fatalf("Expected 5 results, got %d", len(results))
	}
	for id, count := range runner.seen {
		if count != 1 {
			t.Errorf("Expected %s processed once, got %d", id, count)
		}
	}
	if len(runner.seen) != 5 {
		t.Errorf("Expected 5 distinct tasks processed, got %d", len(runner.seen))
	}
}

func TestPoolIsolatesFailures(t *testing.T) {
	runner := newFakeRunner("b")
	pool := NewPool(runner, 2, nil)

	results := pool.Process(context.Background(), TasksFromIDs([]string{"a", "b", "c"}))

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			if r.ContentID != "b" {
				t.Errorf("Expected only b to fail, got %s", r.ContentID)
			}
		}
	}
	if failed != 1 {
		t.Errorf("Expected 1 failure, got %d", failed)
	}
	// The other tasks still ran
	if runner.seen["a"] != 1 || runner.seen["c"] != 1 {
		t.Error("Expected surviving tasks to run despite the failure")
	}
}

func TestPoolSingleWorkerFallback(t *testing.T) {
	pool := NewPool(newFakeRunner(), 0, nil)
	results := pool.Process(context.Background(), TasksFromIDs([]string{"a", "b"}))
	if len(results) != 2 {
		t.Errorf("Expected 2 results with defaulted worker count, got %d", len(results))
	}
}

func TestReadIDsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.txt")
	content := "content-1\n\n# a comment\ncontent-2\n  content-3  \n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	ids, err := ReadIDsFromFile(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := []string{"content-1", "content-2", "content-3"}
	if len(ids) != len(expected) {
		t.Fatalf("Expected %d ids, got %d", len(expected), len(ids))
	}
	for i, id := range expected {
		if ids[i] != id {
			t.Errorf("Expected id %d to be %s, got %s", i, id, ids[i])
		}
	}
}

func TestReadIDsFromMissingFile(t *testing.T) {
	if _, err := ReadIDsFromFile("/nonexistent/ids.txt"); err == nil {
		t.Error("Expected error for missing file")
	}
}
