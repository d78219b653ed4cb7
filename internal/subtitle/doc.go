// Package subtitle decodes SubRip (.srt) and WebVTT (.vtt) files into an
// ordered list of cues.
//
// Cue order is file order. Multi-line cue text is flattened to a single
// line because every downstream artifact is line oriented. Timestamps that
// cannot be read are handled according to a Policy: Lenient substitutes
// zero and counts the cue as degraded, Strict fails the whole file.
package subtitle
