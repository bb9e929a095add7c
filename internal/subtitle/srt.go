// Package subtitle handles SubRip files and the timing work around them:
// parsing and writing cues, estimating how long a line takes to speak, and
// trimming lines that cannot fit their cue window.
package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const maxLineSize = 1024 * 1024

// Cue is a single subtitle entry.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// Window returns the time available to speak the cue.
func (c Cue) Window() time.Duration {
	if c.End <= c.Start {
		return 0
	}
	return c.End - c.Start
}

// ParseSRT reads SubRip cues from r. It tolerates CRLF line endings, a
// leading byte order mark and repeated blank lines between entries.
// Multi-line cue text is flattened to a single line, since every later
// stage treats a cue as one translatable unit.
func ParseSRT(r io.Reader) ([]Cue, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		cues    []Cue
		lineNum int
	)

	readLine := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		lineNum++
		line := scanner.Text()
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		return strings.TrimSpace(line), true
	}

	for {
		line, ok := readLine()
		if !ok {
			break
		}
		if line == "" {
			continue
		}

		index, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: expected cue index, got %q", lineNum, line)
		}

		timing, ok := readLine()
		if !ok {
			return nil, fmt.Errorf("line %d: cue %d is missing its timing line", lineNum, index)
		}
		start, end, err := parseTiming(timing)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		var text []string
		for {
			textLine, ok := readLine()
			if !ok || textLine == "" {
				break
			}
			text = append(text, textLine)
		}

		cues = append(cues, Cue{
			Index: index,
			Start: start,
			End:   end,
			Text:  strings.Join(text, " "),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read subtitles: %w", err)
	}

	return cues, nil
}

// WriteSRT writes cues to w in SubRip format, renumbering them from 1.
func WriteSRT(w io.Writer, cues []Cue) error {
	for i, cue := range cues {
		_, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n",
			i+1, formatTimestamp(cue.Start), formatTimestamp(cue.End), cue.Text)
		if err != nil {
			return fmt.Errorf("write cue %d: %w", i+1, err)
		}
	}
	return nil
}

func parseTiming(line string) (time.Duration, time.Duration, error) {
	startPart, endPart, found := strings.Cut(line, "-->")
	if !found {
		return 0, 0, fmt.Errorf("invalid timing line %q", line)
	}

	start, err := parseTimestamp(startPart)
	if err != nil {
		return 0, 0, err
	}

	end, err := parseTimestamp(endPart)
	if err != nil {
		return 0, 0, err
	}

	return start, end, nil
}

// parseTimestamp parses "HH:MM:SS,mmm". A dot before the milliseconds is
// accepted as well, some tools write it that way.
func parseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)

	clockPart, millisPart, found := strings.Cut(strings.Replace(value, ".", ",", 1), ",")
	if !found {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}

	clock := strings.Split(clockPart, ":")
	if len(clock) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}

	hours, err := strconv.Atoi(clock[0])
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	minutes, err := strconv.Atoi(clock[1])
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	seconds, err := strconv.Atoi(clock[2])
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	millis, err := strconv.Atoi(millisPart)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

func formatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	millis := (d - seconds*time.Second) / time.Millisecond

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}
