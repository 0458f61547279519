package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/blackcoderx/aperture/internal/apperr"
)

// renderTable prints doc as a simple padded-column table (spec.md §8
// "--format table on an array of homogeneous objects -> one row per
// element, one column per top-level key"). Grounded on the teacher's plain
// strings.Builder + column-padding text-table style; no example repo
// carries a dedicated table-rendering library.
func renderTable(w io.Writer, doc any) error {
	rows, ok := doc.([]any)
	if !ok {
		return renderSingleRowTable(w, doc)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return nil
	}

	var columns []string
	seen := map[string]bool{}
	for _, r := range rows {
		obj, ok := r.(map[string]any)
		if !ok {
			return apperr.New(apperr.Validation, "--format table requires an array of objects")
		}
		for k := range obj {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)

	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = len(c)
	}

	cellRows := make([][]string, len(rows))
	for ri, r := range rows {
		obj := r.(map[string]any)
		cells := make([]string, len(columns))
		for ci, c := range columns {
			cells[ci] = cellString(obj[c])
			if len(cells[ci]) > widths[ci] {
				widths[ci] = len(cells[ci])
			}
		}
		cellRows[ri] = cells
	}

	writeRow(w, columns, widths)
	writeSeparator(w, widths)
	for _, cells := range cellRows {
		writeRow(w, cells, widths)
	}
	return nil
}

func renderSingleRowTable(w io.Writer, doc any) error {
	obj, ok := doc.(map[string]any)
	if !ok {
		fmt.Fprintln(w, cellString(doc))
		return nil
	}
	var keys []string
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	keyWidth := 0
	for _, k := range keys {
		if len(k) > keyWidth {
			keyWidth = len(k)
		}
	}
	for _, k := range keys {
		fmt.Fprintf(w, "%-*s  %s\n", keyWidth, k, cellString(obj[k]))
	}
	return nil
}

func writeRow(w io.Writer, cells []string, widths []int) {
	var b strings.Builder
	for i, c := range cells {
		b.WriteString(fmt.Sprintf("%-*s", widths[i], c))
		if i < len(cells)-1 {
			b.WriteString("  ")
		}
	}
	fmt.Fprintln(w, b.String())
}

func writeSeparator(w io.Writer, widths []int) {
	var b strings.Builder
	for i, width := range widths {
		b.WriteString(strings.Repeat("-", width))
		if i < len(widths)-1 {
			b.WriteString("  ")
		}
	}
	fmt.Fprintln(w, b.String())
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
