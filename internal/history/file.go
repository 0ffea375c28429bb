package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/web3-frozen/cosmos-defi/internal/yield"
)

// ReadFile loads a history file; a missing file is an empty history.
func ReadFile(path string) ([]yield.Point, error) {
	body, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return Decode(body)
}

// AppendFile appends p to the history file at path unless a point with the
// same ID is already present. It reports whether p was written. The file is
// replaced atomically so readers never see a partial array.
func AppendFile(path string, p yield.Point) (bool, error) {
	points, err := ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	for _, existing := range points {
		if existing.ID == p.ID {
			return false, nil
		}
	}

	points = append(points, p)
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})

	body, err := json.MarshalIndent(points, "", "  ")
	if err != nil {
		return false, fmt.Errorf("encode history: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".history-*.json")
	if err != nil {
		return false, err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return false, err
	}
	if err := tmp.Close(); err != nil {
		return false, err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return false, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return false, err
	}
	return true, nil
}
