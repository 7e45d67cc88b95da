package domain

import "time"

// ImportResult summarises one import run.
type ImportResult struct {
	// Frames is the number of frames written.
	Frames int

	// Nodes is the number of OCR nodes written.
	Nodes int

	// Segments is the number of directories or videos that produced frames.
	Segments int

	// Skipped counts files that could not be imported.
	Skipped int

	// DataSourceVersion is the version after the import.
	DataSourceVersion int64

	// Duration is the wall time of the run.
	Duration time.Duration
}
