package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"muhabbet/model"
)

// ExportFormat selects the transcript encoding.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportText ExportFormat = "txt"
)

// ParseExportFormat accepts "json" or "txt"; empty means txt.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "txt", "text":
		return ExportText, nil
	case "json":
		return ExportJSON, nil
	default:
		return "", fmt.Errorf("unknown export format: %q", s)
	}
}

// ContentType returns the HTTP content type of an export.
func (f ExportFormat) ContentType() string {
	if f == ExportJSON {
		return "application/json"
	}
	return "text/plain; charset=utf-8"
}

// ExportFilename returns the download name for an export made at t.
func ExportFilename(f ExportFormat, t time.Time) string {
	return fmt.Sprintf("muhabbet-ai-chat-%s.%s", t.Format("2006-01-02"), f)
}

// Export renders turns as an indented JSON array or as a plain transcript.
// System turns are never exported.
func Export(f ExportFormat, turns []model.Turn, loc *time.Location) ([]byte, error) {
	visible := make([]model.Turn, 0, len(turns))
	for _, t := range turns {
		if t.Role != model.RoleSystem {
			visible = append(visible, t)
		}
	}

	switch f {
	case ExportJSON:
		data, err := json.MarshalIndent(visible, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal transcript: %w", err)
		}
		return data, nil
	case ExportText:
		return []byte(Transcript(visible, loc)), nil
	default:
		return nil, fmt.Errorf("unknown export format: %q", f)
	}
}

// Transcript renders one "[dd.mm.yyyy hh:mm:ss] SEN|AI: text" entry per turn,
// separated by blank lines.
func Transcript(turns []model.Turn, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}

	entries := make([]string, 0, len(turns))
	for _, t := range turns {
		who := "AI"
		if t.Role == model.RoleUser {
			who = "SEN"
		}
		text := t.Text()
		if mc, ok := t.Content.(model.MultimodalContent); ok {
			for range mc.Images() {
				text = strings.TrimSpace(text + " [Görsel]")
			}
		}
		entries = append(entries, fmt.Sprintf("[%s] %s: %s",
			t.CreatedAt.In(loc).Format("02.01.2006 15:04:05"), who, text))
	}
	return strings.Join(entries, "\n\n")
}
