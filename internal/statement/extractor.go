package statement

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when a PDF yields no extractable text.
var ErrNoText = errors.New("no text could be extracted from PDF")

// ExtractLines returns the text lines of every page of an in-memory PDF.
// A non-empty password opens encrypted statements.
func ExtractLines(data []byte, password string) (lines []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			lines = nil
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	r, err := openReader(data, password)
	if err != nil {
		return nil, err
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	// Row extraction keeps the statement layout; the other methods are
	// fallbacks for PDFs whose rows come back empty.
	for _, extract := range []func(*pdf.Reader, int) []string{extractByRow, extractByContent, extractByReaderPlainText} {
		lines = extract(r, numPages)
		if len(lines) > 0 {
			return lines, nil
		}
	}
	return nil, ErrNoText
}

func openReader(data []byte, password string) (*pdf.Reader, error) {
	ra := bytes.NewReader(data)
	if password == "" {
		r, err := pdf.NewReader(ra, int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("open PDF: %w", err)
		}
		return r, nil
	}

	tried := false
	r, err := pdf.NewReaderEncrypted(ra, int64(len(data)), func() string {
		if tried {
			return ""
		}
		tried = true
		return password
	})
	if err != nil {
		return nil, fmt.Errorf("open encrypted PDF: %w", err)
	}
	return r, nil
}

func extractByRow(r *pdf.Reader, numPages int) []string {
	var lines []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			parts := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines
}

// extractByContent groups text objects by Y coordinate and orders each row
// by X. PDF Y grows upwards, so rows are emitted top to bottom.
func extractByContent(r *pdf.Reader, numPages int) []string {
	type textItem struct {
		x float64
		s string
	}

	var lines []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()

		rowMap := make(map[int][]textItem)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			y := int(math.Round(t.Y))
			rowMap[y] = append(rowMap[y], textItem{x: t.X, s: t.S})
		}

		ys := make([]int, 0, len(rowMap))
		for y := range rowMap {
			ys = append(ys, y)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(ys)))

		for _, y := range ys {
			items := rowMap[y]
			sort.Slice(items, func(a, b int) bool { return items[a].x < items[b].x })

			var b strings.Builder
			var prevX float64
			for j, item := range items {
				if j > 0 && item.x-prevX > 15 {
					b.WriteString("  ")
				}
				b.WriteString(item.s)
				prevX = item.x
			}
			if line := strings.TrimSpace(b.String()); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines
}

func extractByReaderPlainText(r *pdf.Reader, _ int) []string {
	reader, err := r.GetPlainText()
	if err != nil {
		return nil
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
