// Package search maintains the public concert index. Publish and finish
// transitions in the review workflow write through here so the storefront
// search only ever sees published listings.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"tessera/internal/models"
)

type Config struct {
	URL      string
	Username string
	Password string
	Index    string
}

type ConcertIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewConcertIndex(cfg Config) (*ConcertIndex, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{cfg.URL},
		Username:      cfg.Username,
		Password:      cfg.Password,
		RetryOnStatus: []int{502, 503, 504, 429},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	idx := &ConcertIndex{client: es, index: cfg.Index}

	if err := idx.ensureIndex(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}

	return idx, nil
}

func (c *ConcertIndex) ensureIndex(ctx context.Context) error {
	req := esapi.IndicesExistsRequest{
		Index: []string{c.index},
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		slog.Info("Elasticsearch index already exists", "index", c.index)
		return nil
	}

	mapping := map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 0,
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id":               map[string]interface{}{"type": "keyword"},
				"con_title":        map[string]interface{}{"type": "text"},
				"con_introduction": map[string]interface{}{"type": "text"},
				"con_info_status":  map[string]interface{}{"type": "keyword"},
				"event_start_date": map[string]interface{}{
					"type":   "date",
					"format": "strict_date_optional_time||epoch_millis",
				},
				"event_end_date": map[string]interface{}{
					"type":   "date",
					"format": "strict_date_optional_time||epoch_millis",
				},
			},
		},
	}

	body, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal index mapping: %w", err)
	}

	createReq := esapi.IndicesCreateRequest{
		Index: c.index,
		Body:  bytes.NewReader(body),
	}

	createRes, err := createReq.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("index creation returned error: %s", createRes.String())
	}

	slog.Info("Created Elasticsearch index", "index", c.index)
	return nil
}

// IndexConcert upserts a concert document. Called on publish and finish.
func (c *ConcertIndex) IndexConcert(ctx context.Context, concert *models.Concert) error {
	body, err := json.Marshal(concert)
	if err != nil {
		return fmt.Errorf("failed to marshal concert document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      c.index,
		DocumentID: concert.ID,
		Body:       strings.NewReader(string(body)),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to index concert: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexing concert %s returned error: %s", concert.ID, res.String())
	}

	return nil
}

// DeleteConcert removes a concert document, used when a published listing is
// taken down.
func (c *ConcertIndex) DeleteConcert(ctx context.Context, concertID string) error {
	req := esapi.DeleteRequest{
		Index:      c.index,
		DocumentID: concertID,
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to delete concert document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("deleting concert %s returned error: %s", concertID, res.String())
	}

	return nil
}
