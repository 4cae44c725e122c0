// package formatter renders API data as aligned text tables and JSON for CLI
// output.
package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/tcx/internal/history"
	"github.com/desertthunder/tcx/internal/locales"
	"github.com/desertthunder/tcx/internal/tonie"
)

// Table renders headers and rows as a left-aligned ASCII table with a dashed
// separator under the header. Columns are sized to their widest cell.
func Table(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var buf bytes.Buffer
	writeRow := func(cells []string) {
		for i, w := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			if i > 0 {
				buf.WriteString("  ")
			}
			buf.WriteString(cell)
			if i < len(widths)-1 {
				buf.WriteString(strings.Repeat(" ", w-len(cell)))
			}
		}
		buf.WriteByte('\n')
	}

	writeRow(headers)
	dashes := make([]string, len(widths))
	for i, w := range widths {
		dashes[i] = strings.Repeat("-", w)
	}
	writeRow(dashes)
	for _, row := range rows {
		writeRow(row)
	}
	return buf.String()
}

// JSON renders data as indented JSON.
func JSON(data any) (string, error) {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode JSON: %w", err)
	}
	return string(out) + "\n", nil
}

// FormatSeconds renders a duration in seconds as m:ss or h:mm:ss.
func FormatSeconds(seconds float64) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Households renders a household listing.
func Households(tr *locales.Translator, households []tonie.Household) string {
	if len(households) == 0 {
		return tr.T("cli.households.empty") + "\n"
	}
	headers := []string{"ID", tr.T("cli.households.name"), tr.T("cli.households.owner"), tr.T("cli.households.access")}
	rows := make([][]string, len(households))
	for i, h := range households {
		rows[i] = []string{h.ID, h.Name, h.OwnerName, h.Access}
	}
	return Table(headers, rows)
}

// Tonies renders a Creative Tonie listing with chapter counts and remaining time.
func Tonies(tr *locales.Translator, tonies []tonie.CreativeTonie) string {
	if len(tonies) == 0 {
		return tr.T("cli.tonies.empty") + "\n"
	}
	headers := []string{"ID", tr.T("cli.tonies.name"), tr.T("cli.tonies.chapters"), tr.T("cli.tonies.remaining")}
	rows := make([][]string, len(tonies))
	for i, t := range tonies {
		rows[i] = []string{
			t.ID,
			t.Name,
			strconv.Itoa(len(t.Chapters)),
			FormatSeconds(t.SecondsRemaining),
		}
	}
	return Table(headers, rows)
}

// Chapters renders the playlist of one tonie.
func Chapters(chapters []tonie.Chapter) string {
	var buf bytes.Buffer
	for i, ch := range chapters {
		buf.WriteString(fmt.Sprintf("%d. %s [%s]\n", i+1, ch.Title, FormatSeconds(ch.Seconds)))
	}
	return buf.String()
}

// Uploads renders recent upload history.
func Uploads(tr *locales.Translator, uploads []history.Upload) string {
	if len(uploads) == 0 {
		return tr.T("cli.history.empty") + "\n"
	}
	headers := []string{tr.T("cli.history.file"), tr.T("cli.history.tonie"), tr.T("cli.history.time")}
	rows := make([][]string, len(uploads))
	for i, u := range uploads {
		rows[i] = []string{
			filepath.Base(u.File),
			u.TonieID,
			u.UploadedAt.Local().Format("2006-01-02 15:04"),
		}
	}
	return Table(headers, rows)
}
