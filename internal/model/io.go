package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReadBrief loads a trip brief from a .json, .yaml or .yml file
func ReadBrief(path string) (TripBrief, error) {
	var b TripBrief
	if err := decodeFile(path, &b); err != nil {
		return TripBrief{}, fmt.Errorf("read brief: %w", err)
	}
	return b, nil
}

// ReadCandidates loads a candidate list. The file holds either a bare list
// or an object with a "candidates" list.
func ReadCandidates(path string) ([]Candidate, error) {
	var list []Candidate
	if err := decodeFile(path, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Candidates []Candidate `json:"candidates" yaml:"candidates"`
	}
	if err := decodeFile(path, &wrapped); err != nil {
		return nil, fmt.Errorf("read candidates: %w", err)
	}
	return wrapped.Candidates, nil
}

// DecodeBytes decodes JSON or YAML into v; format is "json" or "yaml"
func DecodeBytes(data []byte, format string, v any) error {
	if format == "json" {
		return json.Unmarshal(data, v)
	}
	return yaml.Unmarshal(data, v)
}

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return DecodeBytes(data, formatOf(path), v)
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}
