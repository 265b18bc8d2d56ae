package main

import (
	"os"
	"testing"

	"github.com/stanstrup/rePredRet/internal/config"
	"github.com/stanstrup/rePredRet/internal/dataset"
	"github.com/stanstrup/rePredRet/internal/storage"
)

// driftedRepo sets up a repository with one dataset whose recorded
// fingerprint no longer matches its data file.
func driftedRepo(t *testing.T) (string, []dataset.Dataset) {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(config.DataPath(root), 0o755); err != nil {
		t.Fatal(err)
	}

	ms := []dataset.Measurement{
		{Compound: "Caffeine", RT: 3.2},
		{Compound: "Glucose", RT: 1.1},
	}
	if err := dataset.WriteMeasurements(config.DatasetCSVPath(root, "a"), ms); err != nil {
		t.Fatal(err)
	}

	datasets := []dataset.Dataset{{ID: "a", Fingerprint: "drifted"}}
	if err := storage.WriteAllDatasets(config.DatasetsPath(root), datasets); err != nil {
		t.Fatal(err)
	}
	return root, datasets
}

func TestCurrentFingerprints_DoesNotPersist(t *testing.T) {
	root, datasets := driftedRepo(t)
	before, err := os.ReadFile(config.DatasetsPath(root))
	if err != nil {
		t.Fatal(err)
	}

	got, changed, err := currentFingerprints(root, datasets)
	if err != nil {
		t.Fatalf("currentFingerprints() error = %v", err)
	}
	if !changed {
		t.Error("changed = false, want true for drifted fingerprint")
	}
	if got[0].Fingerprint == "drifted" {
		t.Error("fingerprint not recomputed")
	}

	after, err := os.ReadFile(config.DatasetsPath(root))
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("datasets.jsonl was rewritten by a read-only fingerprint pass")
	}
}

func TestRefreshFingerprints_PersistsDrift(t *testing.T) {
	root, datasets := driftedRepo(t)

	got, err := refreshFingerprints(root, datasets)
	if err != nil {
		t.Fatalf("refreshFingerprints() error = %v", err)
	}

	stored, err := storage.ReadAllDatasets(config.DatasetsPath(root))
	if err != nil {
		t.Fatal(err)
	}
	if stored[0].Fingerprint != got[0].Fingerprint {
		t.Errorf("stored fingerprint %q, want %q", stored[0].Fingerprint, got[0].Fingerprint)
	}
	if stored[0].Fingerprint == "drifted" {
		t.Error("drifted fingerprint not rewritten")
	}
}

func TestRefreshFingerprints_NoDriftNoRewrite(t *testing.T) {
	root, datasets := driftedRepo(t)
	datasets, err := refreshFingerprints(root, datasets)
	if err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(config.DatasetsPath(root))
	if err != nil {
		t.Fatal(err)
	}
	mtime := info.ModTime()

	// Second pass sees no drift and must leave the file alone.
	if _, err := refreshFingerprints(root, datasets); err != nil {
		t.Fatal(err)
	}
	info, err = os.Stat(config.DatasetsPath(root))
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(mtime) {
		t.Error("datasets.jsonl rewritten without fingerprint drift")
	}
}
