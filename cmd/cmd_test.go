package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/rodopt/internal/runstore"
	"github.com/smazurov/rodopt/internal/supervisor"
)

const wingStudy = `<study>
  <general_settings>
    <name>Wing</name>
    <working_directory>work</working_directory>
    <dimension>2</dimension>
  </general_settings>
  <objective_function/>
  <constraint_function/>
</study>`

func TestHistoryCommandPrintsLatestRun(t *testing.T) {
	dir := t.TempDir()
	studyPath := filepath.Join(dir, "wing.xml")
	if err := os.WriteFile(studyPath, []byte(wingStudy), 0o644); err != nil {
		t.Fatal(err)
	}

	old := filepath.Join(dir, "work", "run-Wing-1")
	latest := filepath.Join(dir, "work", "run-Wing-2")
	for _, d := range []string{old, latest} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}

	csv := "x1,x2,drag,improvement,feasible\n" +
		"0.1,0.2,4.5,0,1.0\n" +
		"0.3,0.4,2.5,1,1.0\n" +
		"0.5,0.6,1.5,0,0.0\n"
	if err := os.WriteFile(filepath.Join(latest, "DoE_history.csv"), []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := CreateHistoryCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{studyPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{"run-Wing-2", "drag", "*2", "Yes", "No", "3 evaluations, 2 feasible, best is #2"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "improvement") || strings.Contains(got, "x1") {
		t.Errorf("hidden columns rendered:\n%s", got)
	}
}

func TestRunsCommandListsJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := runstore.New(path)
	if err != nil {
		t.Fatal(err)
	}
	started := time.Now().Add(-time.Minute)
	if err := store.Begin(runstore.Run{ID: "abcdef0123456789", StudyName: "Wing", StartedAt: started}); err != nil {
		t.Fatal(err)
	}
	code := 0
	if err := store.Finish("abcdef0123456789", time.Now(), "exited", &code, 0); err != nil {
		t.Fatal(err)
	}
	store.Close()

	cmd := CreateRunsCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--journal", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{"abcdef01", "Wing", "exited"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestExitStatus(t *testing.T) {
	zero, three := 0, 3
	tests := []struct {
		name   string
		status supervisor.Status
		want   int
	}{
		{"clean exit", supervisor.Status{StopReason: supervisor.ReasonExited, ExitCode: &zero}, 0},
		{"failure code", supervisor.Status{StopReason: supervisor.ReasonExited, ExitCode: &three}, 3},
		{"segfault", supervisor.Status{StopReason: supervisor.ReasonExited, Signal: 11}, 139},
		{"exited without status", supervisor.Status{StopReason: supervisor.ReasonExited}, 1},
		{"stopped", supervisor.Status{StopReason: supervisor.ReasonStopped, Signal: 15}, 143},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitStatus(tt.status); got != tt.want {
				t.Errorf("exitStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
