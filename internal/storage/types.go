package storage

import "time"

// MediaRecord is one indexed media file. Path is unique.
type MediaRecord struct {
	ID   int64
	Path string
	// ChangeToken is the string form of the modification time at index time.
	ChangeToken  string
	ModifiedTime int64 // unix seconds
}

// Cue is one stored subtitle line. IDs are assigned in insertion order and
// are the only ordering used for context expansion.
type Cue struct {
	ID      int64
	MediaID int64
	Start   float64
	End     float64
	Text    string
}

// Hit is a cue that matched a search, with its owning media record.
type Hit struct {
	Media MediaRecord
	Cue   Cue
}

// Stats holds aggregate statistics about the index.
type Stats struct {
	MediaFiles        int64
	Cues              int64
	LastModified      time.Time // zero when the index is empty
	DatabaseSizeBytes int64
	TopMedia          []MediaCount
}

// MediaCount pairs a media path with its cue count.
type MediaCount struct {
	Path string
	Cues int64
}
