package model

import "time"

// ArchiveRecord is the canonical metadata unit describing one archived file.
// This is a pure domain model with no database-specific dependencies or tags.
// Records are immutable after creation; there is no update-in-place path.
type ArchiveRecord struct {
	FileID              string    `json:"file_id"`
	OwnerID             string    `json:"owner_id"`
	Filename            string    `json:"filename"`
	OriginalFilename    string    `json:"original_filename"`
	ContentType         string    `json:"content_type"`
	OriginalContentType string    `json:"original_content_type"`
	WasCompressed       bool      `json:"was_compressed"`
	Size                int64     `json:"size"`
	Tags                []string  `json:"tags"`
	ArchivePolicy       string    `json:"archive_policy"`
	ArchivedAt          time.Time `json:"archived_at"`
	Status              string    `json:"status"`
}

// StatusArchived is the lifecycle marker set once an upload is finalized.
const StatusArchived = "archived"

// DefaultArchivePolicy is used when the caller does not supply a policy.
const DefaultArchivePolicy = "standard"

// Part identifies one uploaded chunk of a multipart session. The client
// assembles this list from the ETags returned by the storage provider and
// submits it at completion time; the server does not track parts in between.
type Part struct {
	PartNumber int    `json:"part_number"`
	ETag       string `json:"etag"`
}

// FailedIndexEntry is one ledger row recording a search-index write that
// failed after the metadata was durably persisted. Reconciliation is an
// external process.
type FailedIndexEntry struct {
	FileID    string    `json:"file_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
