package rundir

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func mkdirAt(t *testing.T, path string, mod time.Time) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func writeAt(t *testing.T, path string, mod time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func TestResolvePicksNewest(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)

	mkdirAt(t, filepath.Join(dir, "run-Study1-a"), base)
	mkdirAt(t, filepath.Join(dir, "run-Study1-b"), base.Add(2*time.Minute))
	mkdirAt(t, filepath.Join(dir, "run-Study1-c"), base.Add(time.Minute))
	mkdirAt(t, filepath.Join(dir, "run-Other"), base.Add(time.Hour))

	got, ok := Resolve(dir, "Study1", base)
	if !ok {
		t.Fatal("Expected a run directory")
	}
	if want := filepath.Join(dir, "run-Study1-b"); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestResolveIgnoresStaleDirectory(t *testing.T) {
	dir := t.TempDir()
	start := time.Now().Truncate(time.Second)

	mkdirAt(t, filepath.Join(dir, "run-Study1-old"), start.Add(-100*time.Second))

	if got, ok := Resolve(dir, "Study1", start); ok {
		t.Fatalf("Expected no directory before the run writes one, got %s", got)
	}

	mkdirAt(t, filepath.Join(dir, "run-Study1-new"), start.Add(time.Second))

	got, ok := Resolve(dir, "Study1", start)
	if !ok {
		t.Fatal("Expected the new run directory")
	}
	if want := filepath.Join(dir, "run-Study1-new"); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestResolveEqualToNotBefore(t *testing.T) {
	dir := t.TempDir()
	start := time.Now().Truncate(time.Second)
	mkdirAt(t, filepath.Join(dir, "run-S"), start)

	if _, ok := Resolve(dir, "S", start); !ok {
		t.Error("Expected a directory modified exactly at the start to resolve")
	}
}

func TestResolveSkipsFiles(t *testing.T) {
	dir := t.TempDir()
	writeAt(t, filepath.Join(dir, "run-S.txt"), time.Now())

	if got, ok := Resolve(dir, "S", time.Time{}); ok {
		t.Errorf("Expected regular files to be ignored, got %s", got)
	}
}

func TestResolveMissingInputs(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		workDir string
		study   string
	}{
		{"missing directory", filepath.Join(dir, "nope"), "S"},
		{"empty directory path", "", "S"},
		{"empty study", dir, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, ok := Resolve(tt.workDir, tt.study, time.Time{}); ok {
				t.Errorf("Expected nothing, got %s", got)
			}
		})
	}
}

func TestLatestFile(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)

	writeAt(t, filepath.Join(dir, "a_process_pool.log"), base)
	writeAt(t, filepath.Join(dir, "b_process_pool.log"), base.Add(time.Minute))
	writeAt(t, filepath.Join(dir, "c_run.log"), base.Add(time.Hour))
	mkdirAt(t, filepath.Join(dir, "d_process_pool.log"), base.Add(2*time.Hour))

	got, ok := LatestFile(dir, "_process_pool.log")
	if !ok {
		t.Fatal("Expected a log file")
	}
	if want := filepath.Join(dir, "b_process_pool.log"); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	if got, ok := LatestFile(dir, ".missing"); ok {
		t.Errorf("Expected no match, got %s", got)
	}
	if got, ok := LatestFile(filepath.Join(dir, "nope"), ".log"); ok {
		t.Errorf("Expected no match in missing dir, got %s", got)
	}
}
