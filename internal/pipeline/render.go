package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/wayfare/internal/currency"
	"github.com/ppiankov/wayfare/internal/model"
)

// Renderer writes rankings as JSON or Markdown
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes v as indented JSON to path, creating parent directories
func (r *Renderer) RenderJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes a Markdown table per ranking to path
func (r *Renderer) RenderMarkdown(rankings []*model.Ranking, path string) error {
	var b strings.Builder
	r.WriteMarkdown(&b, rankings)
	return writeFile(path, []byte(b.String()))
}

// WriteMarkdown renders rankings to w
func (r *Renderer) WriteMarkdown(w io.Writer, rankings []*model.Ranking) {
	for i, rk := range rankings {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "## %s\n\n", titleCase(string(rk.Domain)))

		if len(rk.Results) == 0 {
			fmt.Fprintf(w, "No candidates passed the hard constraints (%d excluded).\n", rk.Excluded)
		} else {
			fmt.Fprintln(w, "| # | Name | Score | Price | Why |")
			fmt.Fprintln(w, "|---|------|-------|-------|-----|")
			for n, res := range rk.Results {
				name := res.Name
				if name == "" {
					name = res.ID
				}
				if res.DeepLink != "" {
					name = fmt.Sprintf("[%s](%s)", name, res.DeepLink)
				}
				price := "-"
				if res.Price != nil {
					price = currency.Format(*res.Price, res.Currency)
				}
				fmt.Fprintf(w, "| %d | %s | %.1f | %s | %s |\n", n+1, escapeCell(name), res.Score, price, escapeCell(res.Reasoning))
			}
			if rk.Excluded > 0 {
				fmt.Fprintf(w, "\n%d candidate(s) excluded by hard constraints.\n", rk.Excluded)
			}
		}

		if len(rk.Missing) > 0 {
			fmt.Fprintf(w, "\n**Brief is missing:** %s\n", strings.Join(rk.Missing, "; "))
		}
		for _, warn := range rk.Warnings {
			fmt.Fprintf(w, "\n> ⚠ %s\n", warn)
		}
		if rk.Summary != nil && rk.Summary.Text != "" {
			fmt.Fprintf(w, "\n### Summary\n\n%s\n", rk.Summary.Text)
		}
	}

	if r.includeFooter {
		fmt.Fprintln(w, "\n---\n_Scores rank candidates that met every hard constraint. Prices are converted at the rates shown and may be approximate._")
	}
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
