package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:              "~/.config/subclip",
			SQLiteFile:        "subtitles.db",
			SQLiteJournalMode: "wal",
		},
		Library: LibraryConfig{
			MediaExtensions: DefaultMediaExtensions(),
			SRTExtensions:   []string{".srt"},
			VTTExtensions:   []string{".vtt"},
			DecodePolicy:    DecodePolicyLenient,
		},
		Search: SearchConfig{
			Before: 1,
			After:  1,
		},
		Output: OutputConfig{
			Dir:               "",
			CaptionGapSeconds: 0.5,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}
