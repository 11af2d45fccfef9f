// Package livedata holds the most recent execution result shown in node tooltips.
package livedata

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
)

// ErrNoData is returned when interpreter output contains no array.
var ErrNoData = errors.New("no array found in output")

// DefaultPreviewItems is how many elements a preview shows.
const DefaultPreviewItems = 3

// arrayPattern finds the first nested or flat array printed by the interpreter.
var arrayPattern = regexp.MustCompile(`(?s)\[\[.*\]\]|\[.*\]`)

// ParseOutput extracts the result array from raw interpreter output.
func ParseOutput(output string) ([]interface{}, error) {
	match := arrayPattern.FindString(output)
	if match == "" {
		return nil, ErrNoData
	}

	var values []interface{}
	if err := json.Unmarshal([]byte(match), &values); err != nil {
		return nil, fmt.Errorf("data parsing failed: %w", err)
	}
	return values, nil
}

// Snapshot is the latest execution result.
type Snapshot struct {
	Values    []interface{} `json:"values"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Store keeps the latest execution result. It is safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	snap *Snapshot
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Set replaces the stored result.
func (s *Store) Set(values []interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = &Snapshot{Values: values, UpdatedAt: time.Now()}
}

// Latest returns the stored result, if any.
func (s *Store) Latest() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return Snapshot{}, false
	}
	return *s.snap, true
}

// Clear drops the stored result.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = nil
}

var global = NewStore()

// Global returns the process-wide store.
func Global() *Store {
	return global
}

// Summary is a bounded view of a result.
type Summary struct {
	Size      int           `json:"size"`
	Sample    []interface{} `json:"sample"`
	Truncated bool          `json:"truncated"`
}

// Preview returns the size of values and at most n leading elements.
func Preview(values []interface{}, n int) Summary {
	if n <= 0 {
		n = DefaultPreviewItems
	}
	sample := values
	if len(sample) > n {
		sample = sample[:n]
	}
	return Summary{
		Size:      len(values),
		Sample:    append([]interface{}(nil), sample...),
		Truncated: len(values) > n,
	}
}

// String renders the summary the way the tooltip shows it.
func (s Summary) String() string {
	parts := make([]string, 0, len(s.Sample))
	for _, v := range s.Sample {
		parts = append(parts, formatValue(v))
	}
	return fmt.Sprintf("Size: %d items\nSample: [%s...]", s.Size, strings.Join(parts, ","))
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case []interface{}:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			parts = append(parts, formatValue(e))
		}
		return strings.Join(parts, ",")
	case nil:
		return "null"
	default:
		return fmt.Sprint(x)
	}
}
