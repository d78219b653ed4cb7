package subtitle

import (
	"fmt"
	"strconv"
	"strings"
)

func (d *decoder) decodeSRT(lines []string) error {
	blocks := splitBlocks(lines)
	found := false
	for _, b := range blocks {
		ti := timingIndex(b)
		if ti < 0 {
			// A cue number followed by a line without "-->".
			if len(b.lines) >= 2 && isCueNumber(b.lines[0]) {
				found = true
				if err := d.addMalformed(b, 1); err != nil {
					return err
				}
			}
			continue
		}
		found = true
		if err := d.addCue(b, ti, parseSRTTimestamp); err != nil {
			return err
		}
	}
	if len(blocks) > 0 && !found {
		return &DecodeError{Err: ErrNoTimings}
	}
	return nil
}

func isCueNumber(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	for _, r := range line {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseSRTTimestamp reads HH:MM:SS,mmm; a period is accepted in place of
// the comma.
func parseSRTTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("%w: empty", ErrBadTimestamp)
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("%w %q", ErrBadTimestamp, value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("%w %q", ErrBadTimestamp, value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("%w %q", ErrBadTimestamp, value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}
