// package formatter provides functions to export recommendations to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/snapmix/internal/models"
	"github.com/desertthunder/snapmix/internal/params"
	"github.com/desertthunder/snapmix/internal/shared"
)

// Format names accepted by [Export].
const (
	FormatCSV      = "csv"
	FormatMarkdown = "md"
	FormatText     = "text"
)

// Report is one cycle's output as presented to the user.
type Report struct {
	User    string
	Image   string
	Created time.Time
	Params  params.Set
	Tracks  []models.Track
}

// ReportFromRun rebuilds a report from a saved history row.
func ReportFromRun(run *models.AnalysisRun) *Report {
	return &Report{
		User:    run.UserID(),
		Image:   fmt.Sprintf("run #%d (%s)", run.Sequence(), run.MediaType()),
		Created: run.CreatedAt(),
		Params:  params.FromStrings(run.Params()),
		Tracks:  run.Recommendations(),
	}
}

// ExportToCSV converts a Report's tracks to CSV with columns: Rank, ID, Name, Artists
func ExportToCSV(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Rank", "ID", "Name", "Artists"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range report.Tracks {
		record := []string{strconv.Itoa(i + 1), track.ID, track.Name, track.ArtistLine()}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders the parameters as a table followed by the numbered track list
func ExportToMarkdown(report *Report) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Recommendations\n\n")
	if report.User != "" {
		fmt.Fprintf(&buf, "**User**: %s\n", report.User)
	}
	if report.Image != "" {
		fmt.Fprintf(&buf, "**Photo**: %s\n", report.Image)
	}
	if !report.Created.IsZero() {
		fmt.Fprintf(&buf, "**Created**: %s\n", report.Created.Format(time.RFC3339))
	}
	buf.WriteString("\n")

	if report.Params.Len() > 0 {
		buf.WriteString("## Parameters\n\n| Key | Value |\n| --- | --- |\n")
		for _, key := range report.Params.Keys() {
			v, _ := report.Params.Get(key)
			fmt.Fprintf(&buf, "| %s | %s |\n", key, strings.ReplaceAll(v.String(), "|", `\|`))
		}
		buf.WriteString("\n")
	}

	fmt.Fprintf(&buf, "## Tracks (%d)\n\n", len(report.Tracks))
	for i, track := range report.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.ArtistLine(), track.Name)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a Report to plain text format
func ExportToText(report *Report) ([]byte, error) {
	var buf bytes.Buffer

	if report.User != "" {
		fmt.Fprintf(&buf, "User: %s\n", report.User)
	}
	if report.Params.Len() > 0 {
		buf.WriteString("Parameters:\n")
		for _, key := range report.Params.Keys() {
			v, _ := report.Params.Get(key)
			fmt.Fprintf(&buf, "  %s: %s\n", key, v)
		}
	}
	fmt.Fprintf(&buf, "%s:\n\n", shared.Pluralize(len(report.Tracks), "recommendation"))

	for i, track := range report.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.ArtistLine(), track.Name)
	}

	return buf.Bytes(), nil
}

// Export renders report in the named format.
func Export(report *Report, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return ExportToCSV(report)
	case FormatMarkdown, "markdown":
		return ExportToMarkdown(report)
	case FormatText, "txt", "":
		return ExportToText(report)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want csv, md or text)", shared.ErrInvalidFlag, format)
	}
}

// WriteExport renders report and writes it to path.
//
// Defaults to recommendations.{ext} when path is empty. Returns the path written.
func WriteExport(report *Report, format, path string) (string, error) {
	data, err := Export(report, format)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = "recommendations." + extension(format)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func extension(format string) string {
	switch strings.ToLower(format) {
	case FormatCSV:
		return "csv"
	case FormatMarkdown, "markdown":
		return "md"
	default:
		return "txt"
	}
}
