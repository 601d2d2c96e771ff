package formatter

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gnoswap-labs/probify/internal/parser"
)

// SourceCode stores the content of a program file.
type SourceCode struct {
	Lines []string
}

// ReadSourceCode reads the content of a file and returns it as a `SourceCode` struct.
func ReadSourceCode(filename string) (*SourceCode, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return NewSourceCode(string(content)), nil
}

func NewSourceCode(src string) *SourceCode {
	return &SourceCode{Lines: strings.Split(src, "\n")}
}

// FormatErrorWithSource renders err like FormatError. Syntax errors whose
// line is present in source also show that line with an arrow under the
// offending column:
//
//	error: syntax error
//	 --> attack.dice:1:5
//	  |
//	1 | x = 2d
//	  |     ^ dice literal "2d" is missing the number of sides
func FormatErrorWithSource(filename string, source *SourceCode, err error, opts Options) string {
	var synErr *parser.Error
	if source == nil || !errors.As(err, &synErr) || synErr.Line < 1 || synErr.Line > len(source.Lines) {
		return FormatError(filename, err, opts)
	}

	p := newPalette(opts.Color)
	var b strings.Builder

	lineNum := strconv.Itoa(synErr.Line)
	gutter := strings.Repeat(" ", len(lineNum)+1) + p.gutter.Sprint("|")

	// Write error header
	b.WriteString(p.bad.Sprint("error: ") + parser.ErrSyntax.Error() + "\n")
	b.WriteString(p.gutter.Sprint(" --> ") + p.file.Sprint(fmt.Sprintf("%s:%d:%d", filename, synErr.Line, synErr.Col)) + "\n")
	b.WriteString(gutter + "\n")

	// Write the problematic line with line number
	line := strings.TrimSuffix(source.Lines[synErr.Line-1], "\r")
	b.WriteString(p.gutter.Sprint(lineNum+" |") + " " + expandTabs(line) + "\n")

	// Write the arrow pointing to the issue
	b.WriteString(gutter + " ")
	b.WriteString(strings.Repeat(" ", visualColumn(line, synErr.Col)))
	b.WriteString(p.bad.Sprint("^") + " " + synErr.Msg + "\n")
	return b.String()
}

// expandTabs replaces tab characters with spaces, considering a tab width of 8
func expandTabs(line string) string {
	var expanded strings.Builder
	column := 0
	for _, ch := range line {
		if ch == '\t' {
			spaceCount := 8 - (column % 8)
			expanded.WriteString(strings.Repeat(" ", spaceCount))
			column += spaceCount
		} else {
			expanded.WriteRune(ch)
			column++
		}
	}
	return expanded.String()
}

// visualColumn is the width of line before the 1-based byte column.
func visualColumn(line string, column int) int {
	visual := 0
	for i, ch := range line {
		if i+1 >= column {
			break
		}
		if ch == '\t' {
			visual += 8 - (visual % 8)
		} else {
			visual++
		}
	}
	return visual
}
