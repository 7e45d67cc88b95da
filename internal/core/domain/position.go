package domain

import "time"

// PositionSchemaVersion is the current layout of PersistedPosition.
// Bump it whenever the record shape changes; older snapshots are discarded.
const PositionSchemaVersion = 2

// PersistedPosition is a saved timeline window and index used to resume
// the viewer. A record without Frames is a lightweight marker: only
// Timestamp and CurrentIndex are meaningful.
type PersistedPosition struct {
	SchemaVersion     int        `json:"schema_version"`
	DataSourceVersion int64      `json:"data_source_version"`
	SavedAt           int64      `json:"saved_at"`
	CurrentIndex      int        `json:"current_index"`
	Timestamp         time.Time  `json:"timestamp"`
	Frames            []FrameRef `json:"frames,omitempty"`
}

// IsMarker reports whether the record holds no frame snapshot.
func (p *PersistedPosition) IsMarker() bool {
	return len(p.Frames) == 0
}

// SavedTime returns SavedAt as a time.
func (p *PersistedPosition) SavedTime() time.Time {
	return time.Unix(p.SavedAt, 0)
}
