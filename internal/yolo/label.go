package yolo

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"humanparts/internal/annotations"
)

// Line is one normalized detection: class id followed by center x, center y,
// width, and height as fractions of the image size.
type Line struct {
	ClassID int
	XCenter float64
	YCenter float64
	Width   float64
	Height  float64
}

// ErrMalformedLine reports a label line that is not five numeric fields.
var ErrMalformedLine = errors.New("malformed label line")

// String renders the line as whitespace separated values using the shortest
// decimal form of each coordinate.
func (l Line) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(l.ClassID))
	for _, v := range [4]float64{l.XCenter, l.YCenter, l.Width, l.Height} {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}

// ParseLine decodes one label line.
func ParseLine(text string) (Line, error) {
	fields := strings.Fields(text)
	if len(fields) != 5 {
		return Line{}, fmt.Errorf("%w: want 5 fields, got %d", ErrMalformedLine, len(fields))
	}
	classID, err := strconv.Atoi(fields[0])
	if err != nil {
		return Line{}, fmt.Errorf("%w: class id %q", ErrMalformedLine, fields[0])
	}
	var coords [4]float64
	for i, field := range fields[1:] {
		coords[i], err = strconv.ParseFloat(field, 64)
		if err != nil {
			return Line{}, fmt.Errorf("%w: coordinate %q", ErrMalformedLine, field)
		}
	}
	return Line{ClassID: classID, XCenter: coords[0], YCenter: coords[1], Width: coords[2], Height: coords[3]}, nil
}

// Malformed is a rejected line of a label file.
type Malformed struct {
	LineNumber int
	Text       string
	Err        error
}

// ReadFile parses a label file. Blank lines are skipped; malformed lines are
// returned separately so callers can report them.
func ReadFile(path string) ([]Line, []Malformed, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	var (
		lines []Line
		bad   []Malformed
	)
	scanner := bufio.NewScanner(file)
	number := 0
	for scanner.Scan() {
		number++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		line, err := ParseLine(text)
		if err != nil {
			bad = append(bad, Malformed{LineNumber: number, Text: text, Err: err})
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, bad, nil
}

// WriteFile writes lines to path, one per line, replacing any existing file.
func WriteFile(path string, lines []Line) error {
	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line.String())
		buf.WriteByte('\n')
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// RemapFile rewrites the class ids of a label file in place and drops
// malformed lines, which are returned for reporting.
func RemapFile(path string, mapping annotations.Mapping) ([]Malformed, error) {
	lines, bad, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		lines[i].ClassID = mapping.Apply(lines[i].ClassID)
	}
	if err := WriteFile(path, lines); err != nil {
		return nil, err
	}
	return bad, nil
}
