package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Run is the record kept for a single dispatch when history is enabled.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	Prompt     string    `json:"prompt"`
	Model      string    `json:"model"`
	StatusCode int       `json:"status_code,omitempty"`
	Content    string    `json:"content,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// getHistoryDir ensures the history directory exists and returns its path.
// An empty override resolves to the user's config directory.
func getHistoryDir(override string) (string, error) {
	historyDir := override
	if historyDir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user config directory: %w", err)
		}
		historyDir = filepath.Join(configDir, AppHistoryDir, "history")
	}
	if err := os.MkdirAll(historyDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create history directory: %w", err)
	}
	return historyDir, nil
}

// saveRun writes run as indented JSON named after its ID.
func saveRun(dir string, run Run) error {
	historyDir, err := getHistoryDir(dir)
	if err != nil {
		return err
	}
	filePath := filepath.Join(historyDir, fmt.Sprintf("%s.json", run.ID))
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create run file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(run); err != nil {
		return fmt.Errorf("failed to encode run: %w", err)
	}
	return nil
}

// loadRun reads the record for id.
func loadRun(dir, id string) (Run, error) {
	historyDir, err := getHistoryDir(dir)
	if err != nil {
		return Run{}, err
	}
	filePath := filepath.Join(historyDir, fmt.Sprintf("%s.json", id))
	file, err := os.Open(filePath)
	if err != nil {
		return Run{}, fmt.Errorf("failed to open run file: %w", err)
	}
	defer file.Close()

	var run Run
	if err := json.NewDecoder(file).Decode(&run); err != nil {
		return Run{}, fmt.Errorf("failed to decode run: %w", err)
	}
	return run, nil
}

// listRuns returns every recorded run, newest first.
func listRuns(dir string) ([]Run, error) {
	historyDir, err := getHistoryDir(dir)
	if err != nil {
		return nil, err
	}

	files, err := os.ReadDir(historyDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	var runs []Run
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		run, err := loadRun(historyDir, strings.TrimSuffix(file.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs, nil
}
