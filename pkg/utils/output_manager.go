package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidFileName is returned for download names that try to leave the
// plan directory.
var ErrInvalidFileName = errors.New("invalid file name")

// OutputManager handles output file organization and path management
type OutputManager struct {
	BaseOutputDir string
}

// NewOutputManager creates a new output manager
func NewOutputManager(baseOutputDir string) *OutputManager {
	return &OutputManager{
		BaseOutputDir: baseOutputDir,
	}
}

// CreatePlanOutputDir creates the directory holding one plan's files
func (om *OutputManager) CreatePlanOutputDir(planID string) (string, error) {
	planDir := filepath.Join(om.BaseOutputDir, filepath.Base(planID))

	err := os.MkdirAll(planDir, 0755)
	if err != nil {
		return "", fmt.Errorf("failed to create plan output directory: %w", err)
	}

	return planDir, nil
}

// GetOutputFilePath generates a full path for an output file
func (om *OutputManager) GetOutputFilePath(planID, fileName string) (string, error) {
	planDir, err := om.CreatePlanOutputDir(planID)
	if err != nil {
		return "", err
	}

	return filepath.Join(planDir, filepath.Base(fileName)), nil
}

// ResolveDownload maps a download request back to a file on disk.
func (om *OutputManager) ResolveDownload(planID, fileName string) (string, error) {
	for _, part := range []string{planID, fileName} {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("%w: %q", ErrInvalidFileName, part)
		}
	}
	path := filepath.Join(om.BaseOutputDir, planID, fileName)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// GetDownloadURL generates a download URL for a file
func (om *OutputManager) GetDownloadURL(planID, fileName string) string {
	return fmt.Sprintf("/api/v1/download/%s/%s", planID, filepath.Base(fileName))
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
	case ".md":
		return "markdown"
	default:
		return "unknown"
	}
}

// ContentType is the media type served for a generated file.
func (om *OutputManager) ContentType(fileName string) string {
	switch om.GetFileType(fileName) {
	case "csv":
		return "text/csv; charset=utf-8"
	case "json":
		return "application/json"
	case "excel":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "markdown":
		return "text/markdown; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// GetFileSize returns the size of a file in bytes
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
