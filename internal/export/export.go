// Package export writes the model index and artifacts to an output
// directory for downstream consumers (spreadsheets, website viewer).
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/stanstrup/rePredRet/internal/dataset"
	"github.com/stanstrup/rePredRet/internal/pipeline"
	"github.com/stanstrup/rePredRet/internal/report"
)

// Result summarises what was exported.
type Result struct {
	Dir       string `json:"dir"`
	Models    int    `json:"models"`
	Artifacts int    `json:"artifacts"`
}

// Export writes index.csv, index.json, report.html, and copies every
// model artifact from modelsDir into outDir.
func Export(idx *pipeline.Index, datasets []dataset.Dataset, modelsDir, outDir string) (*Result, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}

	if err := idx.Save(filepath.Join(outDir, "index.json")); err != nil {
		return nil, err
	}
	if err := idx.WriteCSV(filepath.Join(outDir, "index.csv")); err != nil {
		return nil, err
	}

	html, err := report.GenerateHTML(idx, datasets)
	if err != nil {
		return nil, fmt.Errorf("generating report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "report.html"), []byte(html), 0644); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}

	artifacts, err := copyArtifacts(modelsDir, outDir)
	if err != nil {
		return nil, err
	}

	return &Result{Dir: outDir, Models: len(idx.Entries), Artifacts: artifacts}, nil
}

// copyArtifacts copies every .json.gz model artifact into outDir/models.
func copyArtifacts(modelsDir, outDir string) (int, error) {
	entries, err := os.ReadDir(modelsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading models directory: %w", err)
	}

	dst := filepath.Join(outDir, "models")
	if err := os.MkdirAll(dst, 0755); err != nil {
		return 0, fmt.Errorf("creating models export directory: %w", err)
	}

	count := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json.gz") {
			continue
		}
		if err := copyFile(filepath.Join(modelsDir, e.Name()), filepath.Join(dst, e.Name())); err != nil {
			return 0, err
		}
		count++
	}

	return count, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying %s: %w", src, err)
	}

	return nil
}
