package subtitle

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// Format identifies a subtitle text format.
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

// Policy decides what happens to a cue whose timestamp cannot be read.
type Policy int

const (
	// Lenient substitutes 0 for the unreadable timestamp and keeps the cue.
	Lenient Policy = iota
	// Strict fails the whole file.
	Strict
)

func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "lenient"
}

// ParsePolicy maps a config value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient":
		return Lenient, nil
	case "strict":
		return Strict, nil
	default:
		return Lenient, fmt.Errorf("unknown decode policy %q", s)
	}
}

// Cue is one timed subtitle line.
type Cue struct {
	Start float64
	End   float64
	Text  string
}

// Track is the decoded content of one subtitle file.
type Track struct {
	Format Format
	Cues   []Cue
	// Degraded counts cues that had a timestamp replaced by 0 under Lenient.
	Degraded int
}

var (
	ErrInvalidEncoding = errors.New("file is not valid UTF-8")
	ErrMissingHeader   = errors.New("missing WEBVTT signature")
	ErrNoTimings       = errors.New("no cue timings found")
	ErrBadTimestamp    = errors.New("unrecognised timestamp")
	ErrMalformedTiming = errors.New("malformed cue timing line")
	ErrUnknownFormat   = errors.New("unknown subtitle format")
)

// DecodeError reports a subtitle file that could not be decoded.
type DecodeError struct {
	Path string
	// Line is the 1-based line of the failure, 0 when it concerns the whole file.
	Line int
	// Cue is the 1-based cue number, 0 when it concerns the whole file.
	Cue int
	Err error
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString("decode subtitle")
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d", e.Line)
	}
	if e.Cue > 0 {
		fmt.Fprintf(&b, " (cue %d)", e.Cue)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodeFile reads and decodes the subtitle file at path.
func DecodeFile(path string, format Format, policy Policy) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open subtitle: %w", err)
	}
	defer f.Close()

	track, err := Decode(f, format, policy)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Path = path
		}
		return nil, err
	}
	return track, nil
}

// Decode reads r as format. Read errors are returned as-is; content that
// cannot be decoded is reported as *DecodeError.
func Decode(r io.Reader, format Format, policy Policy) (*Track, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read subtitle: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, &DecodeError{Err: ErrInvalidEncoding}
	}
	lines := splitLines(data)

	d := &decoder{policy: policy}
	switch format {
	case FormatSRT:
		err = d.decodeSRT(lines)
	case FormatVTT:
		err = d.decodeVTT(lines)
	default:
		return nil, &DecodeError{Err: fmt.Errorf("%w: %q", ErrUnknownFormat, format)}
	}
	if err != nil {
		return nil, err
	}

	return &Track{Format: format, Cues: d.cues, Degraded: d.degraded}, nil
}

// splitLines strips a UTF-8 BOM and splits on LF, CRLF or lone CR.
func splitLines(data []byte) []string {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	s := strings.ReplaceAll(string(data), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}

// block is a run of non-blank lines. first is the 0-based index of lines[0]
// in the file.
type block struct {
	first int
	lines []string
}

func splitBlocks(lines []string) []block {
	var blocks []block
	var cur *block
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			cur = nil
			continue
		}
		if cur == nil {
			blocks = append(blocks, block{first: i})
			cur = &blocks[len(blocks)-1]
		}
		cur.lines = append(cur.lines, line)
	}
	return blocks
}

type decoder struct {
	policy   Policy
	cues     []Cue
	degraded int
}

// timingIndex returns the index of the timing line within b, looking at
// the first two lines only (an optional identifier may precede it).
func timingIndex(b block) int {
	for i := 0; i < len(b.lines) && i < 2; i++ {
		if strings.Contains(b.lines[i], "-->") {
			return i
		}
	}
	return -1
}

// addCue parses the timing line of b and appends the cue.
func (d *decoder) addCue(b block, ti int, parse func(string) (float64, error)) error {
	startText, endText := splitTiming(b.lines[ti])
	start, errStart := parse(startText)
	end, errEnd := parse(endText)
	if errStart != nil || errEnd != nil {
		if d.policy == Strict {
			bad := errStart
			if bad == nil {
				bad = errEnd
			}
			return &DecodeError{Line: b.first + ti + 1, Cue: len(d.cues) + 1, Err: bad}
		}
		d.degraded++
	}

	d.cues = append(d.cues, Cue{
		Start: start,
		End:   end,
		Text:  joinText(b.lines[ti+1:]),
	})
	return nil
}

// addMalformed handles a cue whose timing line b.lines[ti] has no "-->".
// Strict fails the file; Lenient keeps the text with both times at 0.
func (d *decoder) addMalformed(b block, ti int) error {
	if d.policy == Strict {
		return &DecodeError{
			Line: b.first + ti + 1,
			Cue:  len(d.cues) + 1,
			Err:  fmt.Errorf("%w %q", ErrMalformedTiming, b.lines[ti]),
		}
	}
	d.degraded++
	d.cues = append(d.cues, Cue{Text: joinText(b.lines[ti+1:])})
	return nil
}

// splitTiming splits "start --> end [settings]" into its two timestamps.
func splitTiming(line string) (string, string) {
	parts := strings.SplitN(line, "-->", 2)
	start := strings.TrimSpace(parts[0])
	end := ""
	if len(parts) == 2 {
		if fields := strings.Fields(parts[1]); len(fields) > 0 {
			end = fields[0]
		}
	}
	return start, end
}

func joinText(lines []string) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, strings.TrimRight(l, " \t"))
	}
	return strings.Join(parts, " ")
}
