package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"archiveapi/internal/config"
	"archiveapi/internal/model"
)

// esIndex implements Index against Elasticsearch 8.x.
type esIndex struct {
	client *elasticsearch.Client
	index  string
}

// mapping is the explicit schema for archive documents. Keyword fields back
// exact term filters; filename stays full-text for fuzzy matching.
const mapping = `{
  "mappings": {
    "properties": {
      "file_id":               {"type": "keyword"},
      "owner_id":              {"type": "keyword"},
      "filename":              {"type": "text"},
      "original_filename":     {"type": "text"},
      "content_type":          {"type": "keyword"},
      "original_content_type": {"type": "keyword"},
      "was_compressed":        {"type": "boolean"},
      "size":                  {"type": "long"},
      "tags":                  {"type": "keyword"},
      "archive_policy":        {"type": "keyword"},
      "archived_at":           {"type": "date"},
      "status":                {"type": "keyword"}
    }
  }
}`

// NewElasticsearch creates an Elasticsearch-backed index client.
func NewElasticsearch(cfg config.ElasticsearchConfig) (Index, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("elasticsearch addresses are required")
	}
	if cfg.Index == "" {
		return nil, fmt.Errorf("elasticsearch index name is required")
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &esIndex{client: client, index: cfg.Index}, nil
}

// NewElasticsearchWithClient wires an existing client; used by tests.
func NewElasticsearchWithClient(client *elasticsearch.Client, index string) Index {
	return &esIndex{client: client, index: index}
}

// EnsureSchema creates the index with an explicit mapping if it doesn't already exist.
func (e *esIndex) EnsureSchema(ctx context.Context) error {
	res, err := e.client.Indices.Exists(
		[]string{e.index},
		e.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("check index existence: %s", res.String())
	}

	createRes, err := e.client.Indices.Create(
		e.index,
		e.client.Indices.Create.WithBody(bytes.NewReader([]byte(mapping))),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer createRes.Body.Close()
	if createRes.IsError() {
		return fmt.Errorf("create index: %s", createRes.String())
	}
	return nil
}

// Index writes one document keyed by file_id, so a reconciliation replay of
// the same record is idempotent.
func (e *esIndex) Index(ctx context.Context, rec *model.ArchiveRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	res, err := e.client.Index(
		e.index,
		bytes.NewReader(body),
		e.client.Index.WithDocumentID(rec.FileID),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index document: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index document: %s", res.String())
	}
	return nil
}

// Search runs a bool query: mandatory owner term, optional fuzzy text match,
// optional tags filter and archived-date range, sorted newest first.
func (e *esIndex) Search(ctx context.Context, q Query) (*Result, error) {
	if q.OwnerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}

	filter := []map[string]any{
		{"term": map[string]any{"owner_id": q.OwnerID}},
	}
	if len(q.Tags) > 0 {
		filter = append(filter, map[string]any{
			"terms": map[string]any{"tags": q.Tags},
		})
	}
	if q.From != nil || q.To != nil {
		rangeQ := map[string]any{}
		if q.From != nil {
			rangeQ["gte"] = q.From.UTC().Format(time.RFC3339)
		}
		if q.To != nil {
			rangeQ["lte"] = q.To.UTC().Format(time.RFC3339)
		}
		filter = append(filter, map[string]any{
			"range": map[string]any{"archived_at": rangeQ},
		})
	}

	boolQ := map[string]any{"filter": filter}
	if q.Text != "" {
		boolQ["must"] = []map[string]any{
			{
				"multi_match": map[string]any{
					"query":     q.Text,
					"fields":    []string{"filename", "content_type", "tags"},
					"fuzziness": "AUTO",
				},
			},
		}
	}

	body := map[string]any{
		"query": map[string]any{"bool": boolQ},
		"sort":  []map[string]any{{"archived_at": map[string]any{"order": "desc"}}},
	}
	if q.Size > 0 {
		body["size"] = q.Size
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(&buf),
		e.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source model.ArchiveRecord `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	items := make([]model.ArchiveRecord, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		items = append(items, hit.Source)
	}
	return &Result{Total: parsed.Hits.Total.Value, Items: items}, nil
}

// Stats aggregates one owner's totals: item count, byte sum and most recent
// upload timestamp.
func (e *esIndex) Stats(ctx context.Context, ownerID string) (*Stats, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}

	body := map[string]any{
		"size": 0,
		"query": map[string]any{
			"term": map[string]any{"owner_id": ownerID},
		},
		"aggs": map[string]any{
			"total_bytes": map[string]any{"sum": map[string]any{"field": "size"}},
			"last_upload": map[string]any{"max": map[string]any{"field": "archived_at"}},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(&buf),
		e.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("stats: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
		} `json:"hits"`
		Aggregations struct {
			TotalBytes struct {
				Value float64 `json:"value"`
			} `json:"total_bytes"`
			LastUpload struct {
				Value         *float64 `json:"value"`
				ValueAsString string   `json:"value_as_string"`
			} `json:"last_upload"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode stats response: %w", err)
	}

	stats := &Stats{
		TotalItems: parsed.Hits.Total.Value,
		TotalBytes: int64(parsed.Aggregations.TotalBytes.Value),
	}
	if parsed.Aggregations.LastUpload.Value != nil {
		// Date max aggregations return epoch milliseconds.
		ts := time.UnixMilli(int64(*parsed.Aggregations.LastUpload.Value)).UTC()
		stats.LastUpload = &ts
	}
	return stats, nil
}
