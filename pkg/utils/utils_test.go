package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := map[string]time.Duration{
		"":     DefaultJobTimeout,
		"90s":  90 * time.Second,
		"junk": DefaultJobTimeout,
		"-1m":  DefaultJobTimeout,
	}
	for in, want := range tests {
		if got := ParseDuration(in); got != want {
			t.Errorf("ParseDuration(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParsePositiveInt(t *testing.T) {
	if ParsePositiveInt(" 7 ", 10) != 7 || ParsePositiveInt("0", 10) != 10 || ParsePositiveInt("x", 3) != 3 {
		t.Fatal("unexpected ParsePositiveInt result")
	}
}

func TestOutputManager(t *testing.T) {
	om := NewOutputManager(t.TempDir())
	path, err := om.GetOutputFilePath("run-1", "../view.json")
	if err != nil {
		t.Fatalf("GetOutputFilePath: %v", err)
	}
	if filepath.Base(filepath.Dir(path)) != "run-1" || filepath.Base(path) != "view.json" {
		t.Fatalf("path = %s", path)
	}
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	files, err := om.ListFiles("run-1")
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 1 || files[0].Type != "json" || files[0].Size != 2 ||
		files[0].DownloadURL != "/api/v1/runs/run-1/files/view.json" {
		t.Fatalf("files = %+v", files)
	}
	if got, _ := om.ListFiles("run-2"); len(got) != 0 {
		t.Fatalf("run without exports listed %+v", got)
	}
	if _, err := om.LocateFile("run-1", "records.csv"); err == nil {
		t.Fatal("expected an error for a missing export")
	}
	if _, err := om.RunDir(".."); err == nil {
		t.Fatal("expected an error for an escaping run id")
	}
}
