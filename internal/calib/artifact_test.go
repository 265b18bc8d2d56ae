package calib

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestArtifactName(t *testing.T) {
	if got := ArtifactName("fem_long", "riken"); got != "fem_long__riken.json.gz" {
		t.Errorf("ArtifactName() = %q", got)
	}
}

func TestArtifactRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ArtifactName("a", "b"))
	in := &Model{
		Sys1:         "a",
		Sys2:         "b",
		Fingerprint1: "f1",
		Fingerprint2: "f2",
		Knots:        []Knot{{X: 1, Y: 2}, {X: 3, Y: 4}},
		LowerOffset:  -0.5,
		UpperOffset:  0.5,
		CILevel:      0.95,
		Stats:        Stats{Compounds: 12, MedianCIWidth: 1.0, MedianAbsError: 0.2},
		BuiltAt:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	if err := WriteArtifact(path, in); err != nil {
		t.Fatalf("WriteArtifact() error = %v", err)
	}

	out, err := ReadArtifact(path)
	if err != nil {
		t.Fatalf("ReadArtifact() error = %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("roundtrip mismatch:\n in: %+v\nout: %+v", in, out)
	}
}

func TestReadArtifact_Missing(t *testing.T) {
	_, err := ReadArtifact(filepath.Join(t.TempDir(), "nope.json.gz"))
	if err == nil {
		t.Fatal("expected error for missing artifact")
	}
}
