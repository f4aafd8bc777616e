// Package audit mirrors settled wagers into Elasticsearch for search and
// retention. The SQL ledger stays the source of truth.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	"github.com/fadedpez/gamblinghall/internal/logging"
	"github.com/fadedpez/gamblinghall/pkg/entities"
)

const monthLayout = "2006-01"

// documentNamespace scopes the deterministic wager document ids
var documentNamespace = uuid.MustParse("8f4f0c8e-3c1d-4a8e-9a57-2d0f3b6c9e11")

// Config holds configuration options for the Elasticsearch mirror
type Config struct {
	URL             string
	Username        string
	Password        string
	IndexPrefix     string
	RetentionPeriod time.Duration // How long wagers stay searchable
}

// DefaultConfig returns a default configuration for Elasticsearch
func DefaultConfig() *Config {
	return &Config{
		URL:             "http://localhost:9200",
		IndexPrefix:     "gamblinghall",
		RetentionPeriod: 90 * 24 * time.Hour,
	}
}

// Repository writes wagers to monthly indices named <prefix>_wagers_YYYY-MM
type Repository struct {
	client  *elasticsearch.Client
	config  *Config
	logger  *logging.Logger
	now     func() time.Time
	mu      sync.Mutex
	indices map[string]bool
}

// NewRepository creates a new Elasticsearch mirror
func NewRepository(config *Config, logger *logging.Logger) (*Repository, error) {
	defaults := DefaultConfig()
	if config.IndexPrefix == "" {
		config.IndexPrefix = defaults.IndexPrefix
	}
	if config.RetentionPeriod == 0 {
		config.RetentionPeriod = defaults.RetentionPeriod
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	cfg := elasticsearch.Config{
		Addresses: []string{config.URL},
	}

	// Add authentication if provided
	if config.Username != "" && config.Password != "" {
		cfg.Username = config.Username
		cfg.Password = config.Password
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Elasticsearch client: %w", err)
	}

	return &Repository{
		client:  client,
		config:  config,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		indices: make(map[string]bool),
	}, nil
}

// Ping checks the cluster is reachable
func (r *Repository) Ping(ctx context.Context) error {
	res, err := r.client.Info(r.client.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("error reaching Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error reaching Elasticsearch: %s", res.String())
	}
	return nil
}

func (r *Repository) pattern() string {
	return r.config.IndexPrefix + "_wagers_*"
}

func (r *Repository) indexFor(t time.Time) string {
	return r.config.IndexPrefix + "_wagers_" + t.UTC().Format(monthLayout)
}

// ensureIndex creates the monthly index with its mapping on first use
func (r *Repository) ensureIndex(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indices[name] {
		return nil
	}

	res, err := r.client.Indices.Exists([]string{name}, r.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("error checking if index %s exists: %w", name, err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		req := esapi.IndicesCreateRequest{
			Index: name,
			Body:  strings.NewReader(wagerMapping),
		}

		res, err := req.Do(ctx, r.client)
		if err != nil {
			return fmt.Errorf("error creating index %s: %w", name, err)
		}
		defer res.Body.Close()

		// Another instance may have created it first
		if res.IsError() && !strings.Contains(res.String(), "resource_already_exists_exception") {
			return fmt.Errorf("error creating index %s: %s", name, res.String())
		}
		r.logger.Info("created audit index %s", name)
	}

	r.indices[name] = true
	return nil
}

// DocumentID is the deterministic id of a wager document, so re-indexing
// the same wager overwrites it
func DocumentID(playerID, key string) string {
	return uuid.NewSHA1(documentNamespace, []byte(playerID+"/"+key)).String()
}

// IndexWager mirrors one settled wager
func (r *Repository) IndexWager(ctx context.Context, wager *entities.Wager) error {
	createdAt := wager.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}
	index := r.indexFor(createdAt)
	if err := r.ensureIndex(ctx, index); err != nil {
		return err
	}

	jsonData, err := json.Marshal(newWagerDocument(wager))
	if err != nil {
		return fmt.Errorf("error marshaling wager: %w", err)
	}

	res, err := r.client.Index(
		index,
		bytes.NewReader(jsonData),
		r.client.Index.WithContext(ctx),
		r.client.Index.WithDocumentID(DocumentID(wager.PlayerID, wager.IdempotencyKey)),
	)
	if err != nil {
		return fmt.Errorf("error indexing wager: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing wager: %s", res.String())
	}

	return nil
}

// searchResponse is the part of a search response the mirror reads
type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source WagerDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (r *Repository) search(ctx context.Context, query map[string]interface{}, limit int) ([]*WagerDocument, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("error building query: %w", err)
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.pattern()),
		r.client.Search.WithBody(bytes.NewReader(body)),
		r.client.Search.WithSize(limit),
		r.client.Search.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return nil, fmt.Errorf("error searching wagers: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error searching wagers: %s", res.String())
	}

	var result searchResponse
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("error parsing search response: %w", err)
	}

	docs := make([]*WagerDocument, 0, len(result.Hits.Hits))
	for i := range result.Hits.Hits {
		docs = append(docs, &result.Hits.Hits[i].Source)
	}
	return docs, nil
}

// GetPlayerWagers returns a player's most recent mirrored wagers
func (r *Repository) GetPlayerWagers(ctx context.Context, playerID string, limit int) ([]*WagerDocument, error) {
	return r.search(ctx, map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"player_id": playerID},
		},
		"sort": []interface{}{
			map[string]interface{}{"created_at": map[string]string{"order": "desc"}},
		},
	}, limit)
}

// GetSeedWagers returns every mirrored wager of a round, oldest first
func (r *Repository) GetSeedWagers(ctx context.Context, seed string) ([]*WagerDocument, error) {
	return r.search(ctx, map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"seed": seed},
		},
		"sort": []interface{}{
			map[string]interface{}{"created_at": map[string]string{"order": "asc"}},
		},
	}, 100)
}

// PruneExpired deletes wagers older than the retention period and drops
// monthly indices that are entirely past it. It returns the number of
// deleted documents.
func (r *Repository) PruneExpired(ctx context.Context) (int64, error) {
	cutoff := r.now().Add(-r.config.RetentionPeriod)

	dropped, err := r.dropExpiredIndices(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	query, err := json.Marshal(map[string]interface{}{
		"query": map[string]interface{}{
			"range": map[string]interface{}{
				"created_at": map[string]string{"lt": cutoff.Format(time.RFC3339)},
			},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("error building prune query: %w", err)
	}

	res, err := r.client.DeleteByQuery(
		[]string{r.pattern()},
		bytes.NewReader(query),
		r.client.DeleteByQuery.WithContext(ctx),
		r.client.DeleteByQuery.WithIgnoreUnavailable(true),
		r.client.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return 0, fmt.Errorf("error pruning wagers: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, fmt.Errorf("error pruning wagers: %s", res.String())
	}

	var result struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("error parsing prune response: %w", err)
	}

	r.logger.Info("pruned %d audit wagers and %d indices older than %s", result.Deleted, dropped, cutoff.Format(time.RFC3339))
	return result.Deleted, nil
}

// GetIndices lists the mirror's monthly indices
func (r *Repository) GetIndices(ctx context.Context) ([]string, error) {
	res, err := r.client.Indices.Get(
		[]string{r.pattern()},
		r.client.Indices.Get.WithContext(ctx),
		r.client.Indices.Get.WithExpandWildcards("open"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get indices: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error getting indices: %s", res.String())
	}

	var indices map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&indices); err != nil {
		return nil, fmt.Errorf("error parsing indices response: %w", err)
	}

	names := make([]string, 0, len(indices))
	for name := range indices {
		names = append(names, name)
	}
	return names, nil
}

func (r *Repository) dropExpiredIndices(ctx context.Context, cutoff time.Time) (int, error) {
	names, err := r.GetIndices(ctx)
	if err != nil {
		return 0, err
	}

	prefix := r.config.IndexPrefix + "_wagers_"
	dropped := 0
	for _, name := range names {
		month, err := time.Parse(monthLayout, strings.TrimPrefix(name, prefix))
		if err != nil {
			r.logger.Warn("skipping index %s with unexpected name", name)
			continue
		}
		if month.AddDate(0, 1, 0).After(cutoff) {
			continue
		}

		res, err := r.client.Indices.Delete([]string{name}, r.client.Indices.Delete.WithContext(ctx))
		if err != nil {
			return dropped, fmt.Errorf("error deleting index %s: %w", name, err)
		}
		res.Body.Close()
		if res.IsError() {
			return dropped, fmt.Errorf("error deleting index %s: %s", name, res.String())
		}

		r.mu.Lock()
		delete(r.indices, name)
		r.mu.Unlock()
		dropped++
	}
	return dropped, nil
}

// Close is a no-op for the HTTP client
func (r *Repository) Close() error {
	return nil
}
