package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Source produces a complete rate snapshot
type Source interface {
	Name() string
	Fetch(ctx context.Context) (*Snapshot, error)
}

// StaticSource serves a fixed rate table, stamped at fetch time
type StaticSource struct {
	rates map[string]float64
	now   func() time.Time
}

// NewStaticSource creates a source over rates ("EUR/USD" -> 1.08)
func NewStaticSource(rates map[string]float64) *StaticSource {
	return &StaticSource{rates: rates, now: time.Now}
}

// Name returns "static"
func (s *StaticSource) Name() string { return "static" }

// Fetch builds a snapshot from the table
func (s *StaticSource) Fetch(ctx context.Context) (*Snapshot, error) {
	return NewSnapshot(s.now(), s.Name(), s.rates)
}

// FileSource reads a JSON or YAML rate feed from disk
type FileSource struct {
	path string
}

// NewFileSource creates a source reading path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns the file path
func (f *FileSource) Name() string { return "file:" + f.path }

// Fetch reads and parses the file. Without a timestamp in the payload the
// file modification time is used.
func (f *FileSource) Fetch(ctx context.Context) (*Snapshot, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		return nil, fmt.Errorf("stat rate file: %w", err)
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read rate file: %w", err)
	}

	format := "json"
	switch strings.ToLower(filepath.Ext(f.path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	return ParseFeed(data, format, info.ModTime(), f.Name())
}

// feed is the wire shape of a rate feed:
//
//	{"base": "USD", "timestamp": "2024-06-01T12:00:00Z", "rates": {"EUR": 0.92, "GBP/USD": 1.27}}
//
// Plain codes are quoted against base; "A/B" keys are taken as-is.
type feed struct {
	Base      string             `json:"base" yaml:"base"`
	Timestamp string             `json:"timestamp" yaml:"timestamp"`
	Rates     map[string]float64 `json:"rates" yaml:"rates"`
}

// ParseFeed decodes a JSON or YAML feed into a snapshot
func ParseFeed(data []byte, format string, fallback time.Time, source string) (*Snapshot, error) {
	var f feed
	var err error
	if format == "yaml" {
		err = yaml.Unmarshal(data, &f)
	} else {
		err = json.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("decode rate feed: %w", err)
	}

	ts := fallback
	if f.Timestamp != "" {
		ts, err = parseTimestamp(f.Timestamp)
		if err != nil {
			return nil, err
		}
	}

	base := f.Base
	if base == "" {
		base = Base
	}
	rates := make(map[string]float64, len(f.Rates))
	for key, value := range f.Rates {
		if strings.EqualFold(key, base) {
			continue
		}
		if !strings.ContainsAny(key, "/_-:") {
			// public feeds carry local codes (FOK, GGP) that are not ISO 4217
			if _, err := NormalizeCode(key); err != nil {
				continue
			}
			key = base + "/" + key
		}
		rates[key] = value
	}

	return NewSnapshot(ts, source, rates)
}

// parseTimestamp accepts RFC 3339 or unix seconds
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse feed timestamp %q: %w", s, err)
	}
	return ts, nil
}
