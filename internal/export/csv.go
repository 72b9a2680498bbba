package export

import (
	"bufio"
	"io"
	"strings"
)

// WriteCSV writes t with a header row. Cells marked Quote are always quoted;
// others only when they contain a comma, quote or line break.
func WriteCSV(w io.Writer, t Table) error {
	bw := bufio.NewWriter(w)
	header := make([]Cell, len(t.Header))
	for i, h := range t.Header {
		header[i] = text(h)
	}
	writeRow(bw, header)
	for _, row := range t.Rows {
		writeRow(bw, row)
	}
	return bw.Flush()
}

func writeRow(w *bufio.Writer, row []Cell) {
	for i, c := range row {
		if i > 0 {
			w.WriteByte(',')
		}
		if c.Quote || strings.ContainsAny(c.Text, ",\"\r\n") {
			w.WriteByte('"')
			w.WriteString(strings.ReplaceAll(c.Text, `"`, `""`))
			w.WriteByte('"')
			continue
		}
		w.WriteString(c.Text)
	}
	w.WriteByte('\n')
}
