package subtitle

import (
	"fmt"
	"strconv"
	"strings"
)

func (d *decoder) decodeVTT(lines []string) error {
	blocks := splitBlocks(lines)
	if len(blocks) == 0 {
		return &DecodeError{Err: ErrMissingHeader}
	}
	header := blocks[0]
	if !isVTTSignature(header.lines[0]) {
		return &DecodeError{Line: header.first + 1, Err: ErrMissingHeader}
	}

	// The header block may run straight into the first cue when the blank
	// line after the signature is missing.
	rest := blocks[1:]
	for i := 1; i < len(header.lines); i++ {
		if strings.Contains(header.lines[i], "-->") {
			cue := block{first: header.first + i, lines: header.lines[i:]}
			rest = append([]block{cue}, rest...)
			break
		}
	}

	for _, b := range rest {
		if isVTTMetaBlock(b.lines[0]) {
			continue
		}
		ti := timingIndex(b)
		if ti < 0 {
			// An identifier followed by a line without "-->".
			if len(b.lines) >= 2 {
				if err := d.addMalformed(b, 1); err != nil {
					return err
				}
			}
			continue
		}
		if err := d.addCue(b, ti, parseVTTTimestamp); err != nil {
			return err
		}
	}
	return nil
}

func isVTTSignature(line string) bool {
	if !strings.HasPrefix(line, "WEBVTT") {
		return false
	}
	rest := line[len("WEBVTT"):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}

func isVTTMetaBlock(first string) bool {
	for _, kw := range []string{"NOTE", "STYLE", "REGION"} {
		if first == kw || strings.HasPrefix(first, kw+" ") || strings.HasPrefix(first, kw+"\t") {
			return true
		}
	}
	return false
}

// parseVTTTimestamp reads MM:SS.mmm or HH:MM:SS.mmm, telling the two apart
// by the number of components after splitting on ':' and '.'.
func parseVTTTimestamp(value string) (float64, error) {
	parts := strings.Split(strings.ReplaceAll(strings.TrimSpace(value), ".", ":"), ":")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("%w %q", ErrBadTimestamp, value)
		}
		nums[i] = n
	}

	switch len(nums) {
	case 3:
		return float64(nums[0]*60+nums[1]) + float64(nums[2])/1000, nil
	case 4:
		return float64(nums[0]*3600+nums[1]*60+nums[2]) + float64(nums[3])/1000, nil
	default:
		return 0, fmt.Errorf("%w %q", ErrBadTimestamp, value)
	}
}
