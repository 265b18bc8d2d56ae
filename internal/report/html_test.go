package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stanstrup/rePredRet/internal/dataset"
	"github.com/stanstrup/rePredRet/internal/pipeline"
)

func TestGenerateHTML(t *testing.T) {
	idx := &pipeline.Index{
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		RunID:       "run-1",
		Entries: []pipeline.IndexEntry{
			{Sys1: "fem_long", Sys2: "riken", Compounds: 42, MedianCIWidth: 1.234, MedianAbsError: 0.5, BuiltAt: "2026-03-01T12:00:00Z"},
		},
	}
	datasets := []dataset.Dataset{
		{ID: "fem_long", Name: "FEM long", SystemType: "RP", CompoundCount: 400, DOI: "10.1021/ac503123x"},
	}

	html, err := GenerateHTML(idx, datasets)
	if err != nil {
		t.Fatalf("GenerateHTML() error = %v", err)
	}

	for _, want := range []string{
		"<!DOCTYPE html>",
		"run-1",
		"FEM long",
		"10.1021/ac503123x",
		"fem_long",
		"riken",
		"1.234",
		"Systems (1)",
		"Models (1)",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestGenerateHTML_EscapesContent(t *testing.T) {
	idx := &pipeline.Index{}
	datasets := []dataset.Dataset{{ID: "x", Name: "<script>alert(1)</script>"}}

	html, err := GenerateHTML(idx, datasets)
	if err != nil {
		t.Fatalf("GenerateHTML() error = %v", err)
	}
	if strings.Contains(html, "<script>alert") {
		t.Error("dataset name not escaped")
	}
}

func TestGenerateHTML_NilIndex(t *testing.T) {
	if _, err := GenerateHTML(nil, nil); err == nil {
		t.Fatal("expected error for nil index")
	}
}
