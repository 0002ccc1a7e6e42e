package worker

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadIDsFromFile reads content IDs from a file, one per line. Blank
// lines and lines starting with # are skipped.
func ReadIDsFromFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open id file %s: %w", path, err)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read id file %s: %w", path, err)
	}
	return ids, nil
}

// TasksFromIDs wraps content IDs as pool tasks
func TasksFromIDs(ids []string) []Task {
	tasks := make([]Task, len(ids))
	for i, id := range ids {
		tasks[i] = Task{ContentID: id}
	}
	return tasks
}
