package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var callCount atomic.Int32
	for i := 0; i < 10; i++ {
		d.Trigger(func() {
			callCount.Add(1)
		})
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)

	if count := callCount.Load(); count != 1 {
		t.Errorf("expected 1 callback invocation, got %d", count)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var called atomic.Bool
	d.Trigger(func() {
		called.Store(true)
	})
	d.Cancel()

	time.Sleep(100 * time.Millisecond)

	if called.Load() {
		t.Error("callback should not have been invoked after cancel")
	}
}

func TestDebouncer_DefaultDuration(t *testing.T) {
	d := NewDebouncer(0)
	if d.Duration() != DefaultDebounceDuration {
		t.Errorf("expected default duration %v, got %v", DefaultDebounceDuration, d.Duration())
	}
}

func writeArticle(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func collectChanges(w *Watcher) (func() []string, func()) {
	var (
		mu    sync.Mutex
		names []string
	)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case name := <-w.Changed():
				mu.Lock()
				names = append(names, name)
				mu.Unlock()
			case <-done:
				return
			}
		}
	}()
	get := func() []string {
		mu.Lock()
		defer mu.Unlock()
		out := make([]string, len(names))
		copy(out, names)
		return out
	}
	return get, func() { close(done) }
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_DetectsArticleChange(t *testing.T) {
	dir := t.TempDir()
	path := writeArticle(t, dir, "networking/dns.md", "# DNS\n")

	w, err := New(dir, WithDebounceDuration(50*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	get, stop := collectChanges(w)
	defer stop()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("# DNS\n\nupdated\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ok := waitFor(t, 3*time.Second, func() bool {
		for _, n := range get() {
			if n == "networking/dns.md" {
				return true
			}
		}
		return false
	})
	if !ok {
		t.Fatalf("change not reported; got %v", get())
	}
}

func TestWatcher_PollingFallback(t *testing.T) {
	dir := t.TempDir()
	path := writeArticle(t, dir, "guide.md", "one\n")

	w, err := New(dir,
		WithForcePoll(true),
		WithPollInterval(50*time.Millisecond),
		WithDebounceDuration(25*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Fatal("expected polling mode")
	}

	get, stop := collectChanges(w)
	defer stop()

	time.Sleep(60 * time.Millisecond)
	if err := os.WriteFile(path, []byte("one two three\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ok := waitFor(t, 3*time.Second, func() bool {
		for _, n := range get() {
			if n == "guide.md" {
				return true
			}
		}
		return false
	})
	if !ok {
		t.Fatalf("polling change not reported; got %v", get())
	}
}

func TestWatcher_IgnoresNonMarkdown(t *testing.T) {
	dir := t.TempDir()
	writeArticle(t, dir, "guide.md", "x\n")

	w, err := New(dir,
		WithForcePoll(true),
		WithPollInterval(50*time.Millisecond),
		WithDebounceDuration(25*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	get, stop := collectChanges(w)
	defer stop()

	time.Sleep(60 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)
	if names := get(); len(names) != 0 {
		t.Errorf("non-markdown change reported: %v", names)
	}
}

func TestWatcher_EnvForcePolling(t *testing.T) {
	t.Setenv(EnvForcePolling, "1")

	dir := t.TempDir()
	w, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Error("expected env var to force polling mode")
	}
}

func TestWatcher_StartStop(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}

	if w.IsStarted() {
		t.Error("started before Start")
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if !w.IsStarted() {
		t.Error("not started after Start")
	}
	if err := w.Start(); err != ErrAlreadyStarted {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}

	w.Stop()
	if w.IsStarted() {
		t.Error("still started after Stop")
	}
	w.Stop() // idempotent
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err == nil {
		w.Stop()
		t.Fatal("expected error for missing directory")
	}
}

func TestEnvBool(t *testing.T) {
	cases := map[string]bool{
		"1": true, "true": true, "YES": true, "on": true,
		"0": false, "false": false, "": false, "nope": false,
	}
	for val, want := range cases {
		t.Setenv("KC_TEST_BOOL", val)
		if got := envBool("KC_TEST_BOOL"); got != want {
			t.Errorf("envBool(%q) = %v, want %v", val, got, want)
		}
	}
}
