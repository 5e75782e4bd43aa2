package study

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleStudy = `<?xml version="1.0"?>
<study>
  <general_settings>
    <name> Study1 </name>
    <working_directory>/tmp/work</working_directory>
    <dimension>3</dimension>
  </general_settings>
  <objective_function><name>f1</name></objective_function>
  <objective_function><name>f2</name></objective_function>
  <constraint_function><name>g1</name></constraint_function>
</study>`

func TestParse(t *testing.T) {
	info, err := Parse([]byte(sampleStudy))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := Info{
		Name:             "Study1",
		WorkingDirectory: "/tmp/work",
		Dimension:        3,
		Objectives:       2,
		Constraints:      1,
	}
	if info != want {
		t.Errorf("Parse() = %+v, want %+v", info, want)
	}
}

func TestParseCapitalizedTags(t *testing.T) {
	doc := `<Study>
  <GeneralSettings>
    <Name>Beam</Name>
    <Working_directory>/data</Working_directory>
    <Dimension>x</Dimension>
  </GeneralSettings>
</Study>`
	info, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if info.Name != "Beam" || info.WorkingDirectory != "/data" {
		t.Errorf("Unexpected info %+v", info)
	}
	if info.Dimension != 0 {
		t.Errorf("Expected invalid dimension to read as 0, got %d", info.Dimension)
	}
	if info.ObjectiveCount() != 1 {
		t.Errorf("Expected study without objectives to count as one, got %d", info.ObjectiveCount())
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]byte("<study></study>")); !errors.Is(err, ErrNoGeneralSettings) {
		t.Errorf("Expected ErrNoGeneralSettings, got %v", err)
	}
	if _, err := Parse([]byte("<study>")); err == nil {
		t.Error("Expected error for truncated document")
	}
}

func TestLoadResolvesRelativeWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "study.xml")
	doc := `<study><general_settings><name>S</name><working_directory>out</working_directory></general_settings></study>`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if info.Path != path {
		t.Errorf("Expected path %s, got %s", path, info.Path)
	}
	if want := filepath.Join(dir, "out"); info.WorkingDirectory != want {
		t.Errorf("Expected working directory %s, got %s", want, info.WorkingDirectory)
	}

	if _, err := Load(filepath.Join(dir, "missing.xml")); err == nil {
		t.Error("Expected error for missing study")
	}
}

func TestSameRunTarget(t *testing.T) {
	a := Info{Name: "S", WorkingDirectory: "/w", Dimension: 2}
	b := Info{Name: "S", WorkingDirectory: "/w", Dimension: 5}
	c := Info{Name: "T", WorkingDirectory: "/w"}
	if !a.SameRunTarget(b) || a.SameRunTarget(c) {
		t.Error("SameRunTarget mismatch")
	}
}
