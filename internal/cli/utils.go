// Package cli provides CLI output and argument helpers for kenja.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hyperjump/kenja/internal/models"
	"github.com/hyperjump/kenja/pkg/utils"
)

// OutputFormat is the format for query result output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one result per line.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// maxTagWidth bounds tag names in text output.
const maxTagWidth = 40

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteNeighbors writes nearest-neighbour results to w in the given format.
func WriteNeighbors(w io.Writer, response *models.NeighborResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		for _, n := range response.Neighbors {
			fmt.Fprintf(w, "%d\t%d\t%.4f\n", n.Rank, n.UserID, n.Distance)
		}
		return nil
	default:
		if response.UserID != nil {
			fmt.Fprintf(w, "\nUsers similar to %d ", *response.UserID)
		} else {
			fmt.Fprint(w, "\nNearest users ")
		}
		fmt.Fprintf(w, "(%d found in %dms)\n\n", len(response.Neighbors), response.QueryTime)
		for _, n := range response.Neighbors {
			fmt.Fprintf(w, "%3d. user %-12d distance %.4f\n", n.Rank, n.UserID, n.Distance)
		}
		return nil
	}
}

// WriteExperts writes expert lookup results to w in the given format.
func WriteExperts(w io.Writer, response *models.ExpertResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		for _, e := range response.Experts {
			fmt.Fprintf(w, "%d\t%d\t%s\t%.4f\n", e.Rank, e.UserID, e.Tag, e.Score)
		}
		return nil
	default:
		fmt.Fprintf(w, "\nExperts for %q in %dms\n", response.Query, response.QueryTime)
		if len(response.Tags) == 0 {
			fmt.Fprintln(w, "No matching tags.")
			return nil
		}
		fmt.Fprintf(w, "Tags: %s\n\n", strings.Join(response.Tags, ", "))
		for _, e := range response.Experts {
			fmt.Fprintf(w, "%3d. user %-12d %-*s %.4f\n", e.Rank, e.UserID, maxTagWidth, utils.Truncate(e.Tag, maxTagWidth), e.Score)
		}
		return nil
	}
}

// WriteProfile writes the expertise scores of one user to w in the given format.
func WriteProfile(w io.Writer, userID int64, scores []models.ExpertiseScore, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, struct {
			UserID int64                   `json:"user_id"`
			Scores []models.ExpertiseScore `json:"scores"`
		}{userID, scores})
	case OutputCompact:
		for _, s := range scores {
			fmt.Fprintf(w, "%d\t%s\t%.4f\n", s.UserID, s.Tag, s.Score)
		}
		return nil
	default:
		fmt.Fprintf(w, "\nUser %d: %d scored tags\n", userID, len(scores))
		for _, s := range scores {
			fmt.Fprintf(w, "  %-*s %.4f\n", maxTagWidth, utils.Truncate(s.Tag, maxTagWidth), s.Score)
		}
		return nil
	}
}

// ParseVector parses a comma- or space-separated list of numbers.
func ParseVector(s string) ([]float32, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty vector")
	}
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("vector component %d: %w", i, err)
		}
		out[i] = float32(v)
	}
	return out, nil
}

// JoinArgs joins positional args with spaces so multi-word queries work with or without quotes.
func JoinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// ReorderArgs moves flags that appear after positional arguments to the front, since the flag
// package stops parsing at the first non-flag argument.
func ReorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}
