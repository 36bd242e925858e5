package mcpserver

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// parseJSON parses a JSON string into the target type.
func parseJSON(data string, target any) error {
	return json.Unmarshal([]byte(data), target)
}

// parseIDs splits a comma-separated id list, dropping blanks.
func parseIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// parsePoints reads "x1,y1,x2,y2,..." or a JSON array into a flat coordinate list.
func parsePoints(s string, minPairs int) ([]float64, error) {
	s = strings.TrimSpace(s)
	var raw []any
	if strings.HasPrefix(s, "[") {
		if err := parseJSON(s, &raw); err != nil {
			return nil, fmt.Errorf("points: %w", err)
		}
	} else {
		for _, p := range strings.Split(s, ",") {
			raw = append(raw, strings.TrimSpace(p))
		}
	}

	pts := make([]float64, 0, len(raw))
	for i, v := range raw {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, fmt.Errorf("points[%d]: %w", i, err)
		}
		pts = append(pts, f)
	}
	if len(pts)%2 != 0 {
		return nil, fmt.Errorf("points: odd number of coordinates (%d)", len(pts))
	}
	if len(pts)/2 < minPairs {
		return nil, fmt.Errorf("points: need at least %d points, got %d", minPairs, len(pts)/2)
	}
	return pts, nil
}
