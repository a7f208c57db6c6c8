package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDispatchDoesNotBlockOnSettle(t *testing.T) {
	handled := make(chan string, 3)
	w, err := New(t.TempDir(), func(ctx context.Context, path string) error {
		handled <- path
		return nil
	}, 2, ".json")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = w.Stop() }()
	w.settleDelay = 100 * time.Millisecond

	// A burst of files must be handed off without waiting out the settle
	// delay in between.
	start := time.Now()
	for i := 0; i < 3; i++ {
		w.dispatch(context.Background(), fmt.Sprintf("story-%d.json", i))
	}
	if elapsed := time.Since(start); elapsed >= w.settleDelay {
		t.Fatalf("dispatching 3 files took %v, should not wait out the settle delay", elapsed)
	}

	for i := 0; i < 3; i++ {
		select {
		case <-handled:
		case <-time.After(3 * time.Second):
			t.Fatalf("only %d of 3 files reached the handler", i)
		}
	}
	w.wg.Wait()
}

func TestWatcherProcessesDroppedFiles(t *testing.T) {
	dir := t.TempDir()
	handled := make(chan string, 4)
	w, err := New(dir, func(ctx context.Context, path string) error {
		handled <- filepath.Base(path)
		return nil
	}, 2, ".json")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = w.Stop() }()
	w.settleDelay = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(ctx) }()

	for _, name := range []string{"a.json", "b.json", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got := map[string]bool{}
	for len(got) < 2 {
		select {
		case name := <-handled:
			if name == "notes.txt" {
				t.Fatal("extension filter let notes.txt through")
			}
			got[name] = true
		case <-time.After(5 * time.Second):
			t.Fatalf("handled %v, want a.json and b.json", got)
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Start() returned %v, want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Start did not return after cancellation")
	}
}
