package model

import "time"

// Podcast mirrors the 'podcasts' table.  URL points at the externally
// hosted audio file; PublicID is the media host's asset identifier and
// is needed to delete the file when the record goes away.  PlayCount
// is a monotonic counter incremented atomically in SQL.
type Podcast struct {
	ID          uint64    // podcasts.id
	Title       string    // podcasts.title
	Description string    // podcasts.description
	URL         string    // podcasts.url
	PublicID    string    // podcasts.public_id
	Duration    float64   // podcasts.duration (seconds)
	FileSize    int64     // podcasts.file_size (bytes)
	FileType    string    // podcasts.file_type (MIME)
	UploadedBy  uint64    // podcasts.uploaded_by
	IsPublished bool      // podcasts.is_published
	PlayCount   uint64    // podcasts.play_count
	Tags        []string  // podcasts.tags (JSON)
	CreatedAt   time.Time // podcasts.created_at
	UpdatedAt   time.Time // podcasts.updated_at
}
