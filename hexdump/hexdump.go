// Package hexdump renders snapshot and stub bytes, optionally highlighting
// address spans such as a decoded hook stub or bytes that differ from disk.
package hexdump

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/Moonlight-Companies/gologger/coloransi"
)

// Span is a highlighted address range [Start, End)
type Span struct {
	Start uint64
	End   uint64
}

func (s Span) contains(addr uint64) bool {
	return addr >= s.Start && addr < s.End
}

// Options defines options for customizing the hexdump output
type Options struct {
	// BytesPerLine defines the number of bytes to display per line
	BytesPerLine int

	// MaxLines is the maximum number of lines to show (0 for no limit)
	MaxLines int

	// Color enables ANSI colors for highlighted bytes
	Color bool

	// Highlight lists the address spans to mark
	Highlight []Span
}

// DefaultOptions returns the default hexdump options
func DefaultOptions() Options {
	return Options{
		BytesPerLine: 16,
		Color:        true,
	}
}

// Dump creates a hex dump of data, which lives at base
func Dump(data []byte, base uint64, options Options) string {
	var buffer bytes.Buffer
	DumpToWriter(&buffer, data, base, options)
	return buffer.String()
}

// DumpToWriter writes a hex dump of data, which lives at base, to writer
func DumpToWriter(writer io.Writer, data []byte, base uint64, options Options) {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 16
	}

	lineCount := 0
	for offset := 0; offset < len(data); offset += options.BytesPerLine {
		if options.MaxLines > 0 && lineCount >= options.MaxLines {
			fmt.Fprintf(writer, "... %d more bytes\n", len(data)-offset)
			break
		}

		end := offset + options.BytesPerLine
		if end > len(data) {
			end = len(data)
		}

		formatLine(writer, data[offset:end], base+uint64(offset), options)
		lineCount++
	}
}

func highlighted(addr uint64, options Options) bool {
	for _, s := range options.Highlight {
		if s.contains(addr) {
			return true
		}
	}
	return false
}

// cell renders one byte of the hex column, always three columns wide. Without
// color a highlighted byte is followed by '*'.
func cell(b byte, hl bool, options Options) string {
	h := fmt.Sprintf("%02x", b)
	switch {
	case hl && options.Color:
		return coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, h) + " "
	case hl:
		return h + "*"
	}
	return h + " "
}

// formatLine writes one line: address, hex split in two halves, ascii
func formatLine(writer io.Writer, data []byte, addr uint64, options Options) {
	fmt.Fprintf(writer, "%016x  ", addr)

	half := options.BytesPerLine / 2
	split := options.BytesPerLine >= 8
	width := 0
	for i, b := range data {
		if split && i == half {
			fmt.Fprint(writer, "| ")
			width += 2
		}
		fmt.Fprint(writer, cell(b, highlighted(addr+uint64(i), options), options))
		width += 3
	}

	// pad short lines so the ascii column stays aligned
	full := options.BytesPerLine * 3
	if split {
		full += 2
	}
	if full > width {
		fmt.Fprint(writer, strings.Repeat(" ", full-width))
	}

	fmt.Fprint(writer, "| ")
	for i, b := range data {
		c := "."
		if r := rune(b); b != 0 && r < unicode.MaxASCII && unicode.IsPrint(r) {
			c = string(r)
		}
		if options.Color && highlighted(addr+uint64(i), options) {
			c = coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, c)
		}
		fmt.Fprint(writer, c)
	}

	fmt.Fprintln(writer)
}

// DiffSpans returns the ranges where live and disk differ, as addresses
// starting at base. Only the common prefix of the two slices is compared.
func DiffSpans(live, disk []byte, base uint64) []Span {
	n := len(live)
	if len(disk) < n {
		n = len(disk)
	}

	var spans []Span
	for i := 0; i < n; {
		if live[i] == disk[i] {
			i++
			continue
		}
		start := i
		for i < n && live[i] != disk[i] {
			i++
		}
		spans = append(spans, Span{Start: base + uint64(start), End: base + uint64(i)})
	}
	return spans
}
