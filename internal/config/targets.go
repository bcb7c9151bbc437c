package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/nao1215/leakscan/internal/scope"
)

// ReadTargets reads one target per line from path and normalizes each one.
// Blank lines and lines starting with '#' are skipped. Order and duplicates
// are kept as written.
func ReadTargets(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided targets path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open targets file: %w", err)
	}
	defer f.Close()

	targets := make([]string, 0)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, scope.NormalizeTarget(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read targets file: %w", err)
	}
	return targets, nil
}
