package main

import (
	"fmt"
	"os"
)

// writeArtifact replaces the file at path with content, byte for byte.
func writeArtifact(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
