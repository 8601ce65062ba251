package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"archiveapi/internal/cache"
	"archiveapi/internal/model"
	"archiveapi/internal/repository"
	"archiveapi/internal/search"
	"archiveapi/internal/storage"
)

var indexFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "archive_index_failures_total",
	Help: "Search index writes that failed and were written to the ledger.",
})

// CompleteUploadInput carries everything the client submits to finalize a
// multipart session. Parts must be the complete, correctly ordered set the
// client assembled from prior part-URL calls; the server trusts the
// client/gateway handshake and lets the gateway validate ETags.
type CompleteUploadInput struct {
	UploadID string
	Filename string
	Parts    []model.Part
	// DeclaredSize may be zero but must be present.
	DeclaredSize *int64
	ContentType  string
	Tags         []string
	Policy       string
}

// RetrievedArchive is a record joined with a freshly signed download URL.
// URLs are minted per call and never cached, because they expire on their own
// schedule and must reflect current signing.
type RetrievedArchive struct {
	model.ArchiveRecord
	DownloadURL string `json:"download_url"`
}

// ArchiveService defines the use cases for archiving and retrieving files.
type ArchiveService interface {
	// Archive is the small-file path: optionally gzip, upload in one call,
	// persist metadata, index best-effort.
	Archive(ctx context.Context, ownerID string, r io.Reader, originalFilename, contentType string, size int64, tags []string, policy string) (*model.ArchiveRecord, error)

	// StartMultipartUpload opens a storage-side multipart session for filename.
	// No metadata record exists until completion.
	StartMultipartUpload(ctx context.Context, ownerID, filename string) (string, error)

	// PresignUploadPart mints a time-limited URL for uploading one part
	// directly to storage.
	PresignUploadPart(ctx context.Context, ownerID, uploadID, filename string, partNumber int) (string, error)

	// CompleteMultipartUpload assembles the object, persists the metadata
	// record and indexes it. Indexing failures are absorbed into the ledger;
	// persistence failures are fatal.
	CompleteMultipartUpload(ctx context.Context, ownerID string, in CompleteUploadInput) (*model.ArchiveRecord, error)

	// AbortMultipartUpload releases gateway resources for a session that will
	// never complete. Best-effort and idempotent: all errors are logged and
	// swallowed so an abort can never mask the failure that triggered it.
	AbortMultipartUpload(ctx context.Context, uploadID, filename string)

	// Get retrieves a record scoped to its owner, via cache then store, and
	// joins a fresh download URL.
	Get(ctx context.Context, fileID, ownerID string) (*RetrievedArchive, error)

	// Search runs an owner-scoped query against the search index.
	Search(ctx context.Context, q search.Query) (*search.Result, error)

	// Stats aggregates one owner's archive totals from the search index.
	Stats(ctx context.Context, ownerID string) (*search.Stats, error)
}

// archiveService is a concrete implementation of ArchiveService.
type archiveService struct {
	store         storage.Storage
	repo          repository.ArchiveRepository
	ledger        repository.FailedIndexRepository
	index         search.Index
	cache         cache.Cache // nil disables caching; correctness is unaffected
	presignExpiry time.Duration
	compress      CompressionPolicy
	logger        zerolog.Logger
}

// NewArchiveService constructs a new ArchiveService. cache may be nil when
// Redis is unavailable; every other dependency is required.
func NewArchiveService(
	store storage.Storage,
	repo repository.ArchiveRepository,
	ledger repository.FailedIndexRepository,
	index search.Index,
	c cache.Cache,
	presignExpiry time.Duration,
	compress CompressionPolicy,
	logger zerolog.Logger,
) ArchiveService {
	if presignExpiry <= 0 {
		presignExpiry = time.Hour
	}
	if compress == nil {
		compress = DefaultCompressionPolicy
	}
	return &archiveService{
		store:         store,
		repo:          repo,
		ledger:        ledger,
		index:         index,
		cache:         c,
		presignExpiry: presignExpiry,
		compress:      compress,
		logger:        logger,
	}
}

func (s *archiveService) Archive(ctx context.Context, ownerID string, r io.Reader, originalFilename, contentType string, size int64, tags []string, policy string) (*model.ArchiveRecord, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	if s.store == nil {
		return nil, ErrStorageNotConfigured
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ext := filepath.Ext(originalFilename)
	genName := uuid.New().String() + ext
	storedType := contentType
	compressed := false

	body := r
	if s.compress(contentType) {
		buf, err := gzipAll(r)
		if err != nil {
			return nil, &GatewayError{Op: "compress", Err: err}
		}
		body = buf
		size = int64(buf.Len())
		genName += ".gz"
		storedType = "application/gzip"
		compressed = true
	}
	key := filepath.ToSlash(filepath.Join("archives", genName))

	objInfo, err := s.store.Put(ctx, key, body, storage.PutObjectOptions{
		Size:        size,
		ContentType: storedType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		return nil, &GatewayError{Op: "put", Err: err}
	}

	rec := &model.ArchiveRecord{
		FileID:              uuid.New().String(),
		OwnerID:             ownerID,
		Filename:            objInfo.Key,
		OriginalFilename:    originalFilename,
		ContentType:         storedType,
		OriginalContentType: contentType,
		WasCompressed:       compressed,
		// Size reflects the bytes actually stored, post-transform.
		Size:          objInfo.Size,
		Tags:          normalizeTags(tags),
		ArchivePolicy: defaultPolicy(policy),
		ArchivedAt:    time.Now().UTC(),
		Status:        model.StatusArchived,
	}

	stored, err := s.repo.Insert(ctx, rec)
	if err != nil {
		// Rollback: delete the object so storage and metadata stay agreed.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Error().Err(delErr).Str("key", key).Msg("rollback delete failed")
		}
		return nil, &PersistenceError{Err: err}
	}

	s.indexRecord(ctx, stored)
	return stored, nil
}

func (s *archiveService) StartMultipartUpload(ctx context.Context, ownerID, filename string) (string, error) {
	if s.store == nil {
		return "", ErrStorageNotConfigured
	}
	if filename == "" {
		return "", &ValidationError{Field: "filename", Reason: "required"}
	}

	uploadID, err := s.store.CreateMultipartUpload(ctx, filename)
	if err != nil {
		return "", &GatewayError{Op: "create session", Err: err}
	}

	s.logger.Info().
		Str("owner_id", ownerID).
		Str("upload_id", uploadID).
		Str("filename", filename).
		Msg("multipart upload started")
	return uploadID, nil
}

func (s *archiveService) PresignUploadPart(ctx context.Context, ownerID, uploadID, filename string, partNumber int) (string, error) {
	if s.store == nil {
		return "", ErrStorageNotConfigured
	}
	if uploadID == "" {
		return "", &ValidationError{Field: "upload_id", Reason: "required"}
	}
	if filename == "" {
		return "", &ValidationError{Field: "filename", Reason: "required"}
	}
	if partNumber < 1 {
		return "", &ValidationError{Field: "part_number", Reason: "must be a positive integer"}
	}

	u, err := s.store.PresignPart(ctx, filename, uploadID, partNumber, s.presignExpiry)
	if err != nil {
		// Signing is idempotent; callers are expected to retry.
		return "", &GatewayError{Op: "presign part", Err: err}
	}
	return u, nil
}

func (s *archiveService) CompleteMultipartUpload(ctx context.Context, ownerID string, in CompleteUploadInput) (*model.ArchiveRecord, error) {
	if s.store == nil {
		return nil, ErrStorageNotConfigured
	}
	if in.Filename == "" {
		return nil, &ValidationError{Field: "filename", Reason: "required"}
	}
	if in.UploadID == "" {
		return nil, &ValidationError{Field: "upload_id", Reason: "required"}
	}
	if len(in.Parts) == 0 {
		return nil, &ValidationError{Field: "parts", Reason: "at least one part is required"}
	}
	if in.DeclaredSize == nil {
		return nil, &ValidationError{Field: "size", Reason: "required"}
	}

	// Phase 1: assemble. The gateway validates ETags and part ordering; on
	// failure the session is released so half-finished uploads don't pile up.
	objInfo, err := s.store.CompleteMultipartUpload(ctx, in.Filename, in.UploadID, in.Parts)
	if err != nil {
		s.AbortMultipartUpload(ctx, in.UploadID, in.Filename)
		return nil, &AssemblyError{UploadID: in.UploadID, Err: err}
	}

	// Phase 2: build the canonical record. Prefer the gateway-reported size
	// of the assembled object; fall back to the client-declared byte count
	// when the backend doesn't report one.
	size := *in.DeclaredSize
	if objInfo.Size > 0 {
		if size != 0 && objInfo.Size != size {
			s.logger.Warn().
				Str("upload_id", in.UploadID).
				Int64("declared", size).
				Int64("assembled", objInfo.Size).
				Msg("declared size disagrees with assembled object")
		}
		size = objInfo.Size
	}

	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	rec := &model.ArchiveRecord{
		FileID:              uuid.New().String(),
		OwnerID:             ownerID,
		Filename:            in.Filename,
		OriginalFilename:    in.Filename,
		ContentType:         contentType,
		OriginalContentType: contentType,
		WasCompressed:       false, // the multipart path never compresses
		Size:                size,
		Tags:                normalizeTags(in.Tags),
		ArchivePolicy:       defaultPolicy(in.Policy),
		ArchivedAt:          time.Now().UTC(),
		Status:              model.StatusArchived,
	}

	// Phase 3: persist. A record in storage but not in the metadata store is
	// an orphan object — acceptable to leave behind, unacceptable to report
	// as archived.
	stored, err := s.repo.Insert(ctx, rec)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}

	// Phase 4: index, strictly after persistence so a concurrent retrieval
	// can never see an indexed-but-not-stored record.
	s.indexRecord(ctx, stored)

	s.logger.Info().
		Str("owner_id", ownerID).
		Str("upload_id", in.UploadID).
		Str("file_id", stored.FileID).
		Int64("size", stored.Size).
		Msg("multipart upload completed")
	return stored, nil
}

func (s *archiveService) AbortMultipartUpload(ctx context.Context, uploadID, filename string) {
	if s.store == nil || uploadID == "" {
		return
	}
	if err := s.store.AbortMultipartUpload(ctx, filename, uploadID); err != nil {
		// Aborting an already-aborted or completed session is fine; nothing
		// here may mask the error that triggered the abort.
		s.logger.Warn().Err(err).
			Str("upload_id", uploadID).
			Str("filename", filename).
			Msg("abort multipart upload failed")
	}
}

func (s *archiveService) Get(ctx context.Context, fileID, ownerID string) (*RetrievedArchive, error) {
	if fileID == "" {
		return nil, &ValidationError{Field: "file_id", Reason: "required"}
	}

	rec := s.cachedRecord(ctx, fileID)
	if rec != nil && rec.OwnerID != ownerID {
		// Someone else's record: identical to not-found by design.
		return nil, ErrNotFound
	}

	if rec == nil {
		found, err := s.repo.FindOne(ctx, fileID, ownerID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, &PersistenceError{Err: err}
		}
		rec = found
		s.cacheRecord(ctx, rec)
	}

	if s.store == nil {
		return nil, ErrStorageNotConfigured
	}
	url, err := s.store.PresignGet(ctx, rec.Filename, s.presignExpiry)
	if err != nil {
		return nil, &GatewayError{Op: "presign download", Err: err}
	}

	return &RetrievedArchive{ArchiveRecord: *rec, DownloadURL: url}, nil
}

func (s *archiveService) Search(ctx context.Context, q search.Query) (*search.Result, error) {
	if q.OwnerID == "" {
		return nil, &ValidationError{Field: "owner_id", Reason: "required"}
	}
	return s.index.Search(ctx, q)
}

func (s *archiveService) Stats(ctx context.Context, ownerID string) (*search.Stats, error) {
	if ownerID == "" {
		return nil, &ValidationError{Field: "owner_id", Reason: "required"}
	}
	return s.index.Stats(ctx, ownerID)
}

// indexRecord mirrors the record into the search index. Every successful
// completion attempts exactly one index write; a failure lands in the ledger
// and the upload still succeeds.
func (s *archiveService) indexRecord(ctx context.Context, rec *model.ArchiveRecord) Outcome {
	if err := s.index.Index(ctx, rec); err != nil {
		indexFailures.Inc()
		s.logger.Warn().Err(err).Str("file_id", rec.FileID).Msg("index write failed, recording in ledger")
		entry := model.FailedIndexEntry{
			FileID:    rec.FileID,
			Reason:    err.Error(),
			Timestamp: time.Now().UTC(),
		}
		if ledgerErr := s.ledger.Append(ctx, entry); ledgerErr != nil {
			s.logger.Error().Err(ledgerErr).Str("file_id", rec.FileID).Msg("ledger append failed")
		}
		return OutcomeAbsorbed
	}
	return OutcomeOK
}

// cachedRecord reads the cache; any failure is absorbed and counts as a miss.
func (s *archiveService) cachedRecord(ctx context.Context, fileID string) *model.ArchiveRecord {
	if s.cache == nil {
		return nil
	}
	rec, err := s.cache.Get(ctx, fileID)
	if err != nil {
		s.logger.Warn().Err(err).Str("file_id", fileID).Msg("cache read failed")
		return nil
	}
	return rec
}

// cacheRecord writes a copy into the cache; failures only cost latency.
func (s *archiveService) cacheRecord(ctx context.Context, rec *model.ArchiveRecord) Outcome {
	if s.cache == nil {
		return OutcomeOK
	}
	cp := *rec
	if err := s.cache.Set(ctx, rec.FileID, &cp); err != nil {
		s.logger.Warn().Err(err).Str("file_id", rec.FileID).Msg("cache write failed")
		return OutcomeAbsorbed
	}
	return OutcomeOK
}

// normalizeTags lowercases and trims tags, drops empties and de-duplicates
// preserving first occurrence, so search term filters behave predictably.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func defaultPolicy(policy string) string {
	if policy == "" {
		return model.DefaultArchivePolicy
	}
	return policy
}
