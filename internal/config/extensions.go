package config

import (
	"path/filepath"
	"strings"
)

// Kind classifies a file found while walking a library.
type Kind int

const (
	KindOther Kind = iota
	KindMedia
	KindSRT
	KindVTT
)

func (k Kind) String() string {
	switch k {
	case KindMedia:
		return "media"
	case KindSRT:
		return "srt"
	case KindVTT:
		return "vtt"
	default:
		return "other"
	}
}

// DefaultMediaExtensions returns the container extensions recognised as
// media. Files are only classified by name, never opened.
func DefaultMediaExtensions() []string {
	return []string{
		".mp4",
		".mkv",
		".avi",
		".webm",
		".m4a",
		".mp3",
	}
}

// Extensions maps lower-cased file extensions (with the leading dot) to a Kind.
type Extensions map[string]Kind

// NewExtensions builds a lookup table. Later groups win when an extension
// appears in more than one list.
func NewExtensions(media, srt, vtt []string) Extensions {
	ext := make(Extensions, len(media)+len(srt)+len(vtt))
	add := func(list []string, k Kind) {
		for _, e := range list {
			e = strings.ToLower(strings.TrimSpace(e))
			if e == "" {
				continue
			}
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			ext[e] = k
		}
	}
	add(media, KindMedia)
	add(srt, KindSRT)
	add(vtt, KindVTT)
	return ext
}

// Classify returns the Kind of path based on its extension.
func (e Extensions) Classify(path string) Kind {
	return e[strings.ToLower(filepath.Ext(path))]
}
