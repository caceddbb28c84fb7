package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// OutputManager lays out export files as <base>/<runID>/<file>.
type OutputManager struct {
	BaseOutputDir string
}

func NewOutputManager(baseOutputDir string) *OutputManager {
	return &OutputManager{BaseOutputDir: baseOutputDir}
}

// OutputFile describes one export on disk.
type OutputFile struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"downloadUrl"`
}

// CreateRunOutputDir creates the directory holding a run's exports.
func (om *OutputManager) CreateRunOutputDir(runID string) (string, error) {
	dir, err := om.RunDir(runID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run output directory: %w", err)
	}
	return dir, nil
}

// RunDir is the run's directory; run IDs that would escape the base are rejected.
func (om *OutputManager) RunDir(runID string) (string, error) {
	clean := filepath.Base(runID)
	if clean != runID || clean == "." || clean == ".." || clean == "" {
		return "", fmt.Errorf("invalid run id %q", runID)
	}
	return filepath.Join(om.BaseOutputDir, clean), nil
}

// GetOutputFilePath generates a full path for an output file, creating the
// run directory.
func (om *OutputManager) GetOutputFilePath(runID, fileName string) (string, error) {
	dir, err := om.CreateRunOutputDir(runID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.Base(fileName)), nil
}

// LocateFile returns the path of an existing export.
func (om *OutputManager) LocateFile(runID, fileName string) (string, error) {
	dir, err := om.RunDir(runID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, filepath.Base(fileName))
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// ListFiles lists a run's exports by name. A run without exports has none.
func (om *OutputManager) ListFiles(runID string) ([]OutputFile, error) {
	dir, err := om.RunDir(runID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []OutputFile{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := []OutputFile{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		size, _ := om.GetFileSize(filepath.Join(dir, e.Name()))
		out = append(out, OutputFile{
			Name:        e.Name(),
			Type:        om.GetFileType(e.Name()),
			Size:        size,
			DownloadURL: om.GetDownloadURL(runID, e.Name()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (om *OutputManager) GetDownloadURL(runID, fileName string) string {
	return fmt.Sprintf("/api/v1/runs/%s/files/%s", runID, filepath.Base(fileName))
}

// GetFileType determines the file type based on extension
func (om *OutputManager) GetFileType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	case ".xlsx", ".xls":
		return "excel"
	default:
		return "unknown"
	}
}

func (om *OutputManager) GetFileSize(filePath string) (int64, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return 0, err
	}
	return fileInfo.Size(), nil
}

// EnsureOutputDirExists ensures the base output directory exists
func (om *OutputManager) EnsureOutputDirExists() error {
	return os.MkdirAll(om.BaseOutputDir, 0755)
}
