package settings

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/desertthunder/arrx/internal/models"
)

var sectionPattern = regexp.MustCompile(`^\[(\w+)\]$`)

// ParseSettingsFile reads the plain-text credentials format:
//
//	[radarr]
//	http://localhost:7878
//	<api key>
//	[sonarr]
//	...
//
// Blank lines are ignored, unknown sections are skipped and extra lines after the key are dropped.
// Only values present in the file are returned.
func ParseSettingsFile(r io.Reader) (map[string]string, error) {
	values := map[string]string{}
	var (
		kind    models.Kind
		inKnown bool
		step    int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if m := sectionPattern.FindStringSubmatch(line); m != nil {
			k, err := models.ParseKind(m[1])
			kind, inKnown, step = k, err == nil, 0
			continue
		}
		if !inKnown {
			continue
		}

		switch step {
		case 0:
			values[URLKey(kind)] = line
		case 1:
			values[APIKeyKey(kind)] = line
		}
		step++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	return values, nil
}

// Import writes every parsed value into s and returns the keys written in order.
func Import(ctx context.Context, s Store, values map[string]string) ([]string, error) {
	keys := SortedKeys(values)
	for _, k := range keys {
		if err := s.Set(ctx, k, values[k]); err != nil {
			return nil, fmt.Errorf("failed to store %s: %w", k, err)
		}
	}
	return keys, nil
}
