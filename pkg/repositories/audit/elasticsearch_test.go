package audit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/fadedpez/gamblinghall/internal/logging"
	"github.com/fadedpez/gamblinghall/pkg/entities"
)

// fakeCluster answers the handful of Elasticsearch endpoints the mirror uses
type fakeCluster struct {
	mu       sync.Mutex
	indices  map[string]bool
	docs     map[string]map[string]json.RawMessage
	requests []string
	bodies   map[string]string
	deleted  []string
}

func newFakeCluster() *fakeCluster {
	return &fakeCluster{
		indices: make(map[string]bool),
		docs:    make(map[string]map[string]json.RawMessage),
		bodies:  make(map[string]string),
	}
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	body, _ := io.ReadAll(r.Body)
	path := strings.Trim(r.URL.Path, "/")
	parts := strings.Split(path, "/")
	f.requests = append(f.requests, r.Method+" /"+path)

	switch {
	case path == "":
		io.WriteString(w, `{"version":{"number":"8.17.0"}}`)
	case r.Method == http.MethodHead && len(parts) == 1:
		if !f.indices[parts[0]] {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut && len(parts) == 1:
		f.indices[parts[0]] = true
		f.docs[parts[0]] = make(map[string]json.RawMessage)
		io.WriteString(w, `{"acknowledged":true}`)
	case r.Method == http.MethodPut && len(parts) == 3 && parts[1] == "_doc":
		f.docs[parts[0]][parts[2]] = json.RawMessage(body)
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"result":"created"}`)
	case len(parts) == 2 && parts[1] == "_search":
		f.bodies["search"] = string(body)
		hits := make([]map[string]json.RawMessage, 0)
		for _, docs := range f.docs {
			for _, doc := range docs {
				hits = append(hits, map[string]json.RawMessage{"_source": doc})
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"hits": map[string]interface{}{"hits": hits},
		})
	case r.Method == http.MethodGet && len(parts) == 1:
		out := make(map[string]interface{})
		for name := range f.indices {
			out[name] = map[string]interface{}{}
		}
		json.NewEncoder(w).Encode(out)
	case r.Method == http.MethodDelete && len(parts) == 1:
		delete(f.indices, parts[0])
		delete(f.docs, parts[0])
		f.deleted = append(f.deleted, parts[0])
		io.WriteString(w, `{"acknowledged":true}`)
	case len(parts) == 2 && parts[1] == "_delete_by_query":
		f.bodies["delete_by_query"] = string(body)
		io.WriteString(w, `{"deleted":3}`)
	default:
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"unexpected request"}`)
	}
}

type AuditRepositoryTestSuite struct {
	suite.Suite
	cluster *fakeCluster
	server  *httptest.Server
	repo    *Repository
	ctx     context.Context
	now     time.Time
}

func TestAuditRepositorySuite(t *testing.T) {
	suite.Run(t, new(AuditRepositoryTestSuite))
}

func (s *AuditRepositoryTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.cluster = newFakeCluster()
	s.server = httptest.NewServer(s.cluster)
	s.now = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	repo, err := NewRepository(&Config{URL: s.server.URL, IndexPrefix: "test"}, logging.NewNop())
	s.Require().NoError(err)
	repo.now = func() time.Time { return s.now }
	s.repo = repo
}

func (s *AuditRepositoryTestSuite) TearDownTest() {
	s.server.Close()
}

func testWager(key string, at time.Time) *entities.Wager {
	return &entities.Wager{
		IdempotencyKey: key,
		PlayerID:       "p1",
		Game:           entities.GameSlots,
		Seed:           "ab" + key,
		Bet:            100,
		Debit:          100,
		Credit:         5000,
		Net:            4900,
		Resolved:       true,
		BalanceAfter:   5900,
		Result: &entities.RoundResult{
			Game:  entities.GameSlots,
			Flags: entities.Flags{Jackpot: true},
		},
		CreatedAt: at,
	}
}

func (s *AuditRepositoryTestSuite) TestPing() {
	s.NoError(s.repo.Ping(s.ctx))
}

func (s *AuditRepositoryTestSuite) TestIndexWagerCreatesMonthlyIndexOnce() {
	s.Require().NoError(s.repo.IndexWager(s.ctx, testWager("k1", s.now)))
	s.Require().NoError(s.repo.IndexWager(s.ctx, testWager("k2", s.now)))

	s.True(s.cluster.indices["test_wagers_2026-10"])
	s.Len(s.cluster.docs["test_wagers_2026-10"], 2)

	creates := 0
	for _, req := range s.cluster.requests {
		if req == "PUT /test_wagers_2026-10" {
			creates++
		}
	}
	s.Equal(1, creates)

	raw := s.cluster.docs["test_wagers_2026-10"][DocumentID("p1", "k1")]
	var doc WagerDocument
	s.Require().NoError(json.Unmarshal(raw, &doc))
	s.Equal("k1", doc.IdempotencyKey)
	s.True(doc.Flags.Jackpot)
	s.Equal(int64(4900), doc.Net)
}

func (s *AuditRepositoryTestSuite) TestReindexOverwrites() {
	s.Require().NoError(s.repo.IndexWager(s.ctx, testWager("k1", s.now)))
	s.Require().NoError(s.repo.IndexWager(s.ctx, testWager("k1", s.now)))
	s.Len(s.cluster.docs["test_wagers_2026-10"], 1)
}

func (s *AuditRepositoryTestSuite) TestDocumentIDIsPlayerScoped() {
	s.Equal(DocumentID("p1", "k"), DocumentID("p1", "k"))
	s.NotEqual(DocumentID("p1", "k"), DocumentID("p2", "k"))
}

func (s *AuditRepositoryTestSuite) TestGetPlayerWagers() {
	s.Require().NoError(s.repo.IndexWager(s.ctx, testWager("k1", s.now)))

	docs, err := s.repo.GetPlayerWagers(s.ctx, "p1", 10)
	s.Require().NoError(err)
	s.Require().Len(docs, 1)
	s.Equal("p1", docs[0].PlayerID)
	s.Contains(s.cluster.bodies["search"], `"player_id":"p1"`)
}

func (s *AuditRepositoryTestSuite) TestGetSeedWagers() {
	s.Require().NoError(s.repo.IndexWager(s.ctx, testWager("k1", s.now)))

	docs, err := s.repo.GetSeedWagers(s.ctx, "abk1")
	s.Require().NoError(err)
	s.Len(docs, 1)
	s.Contains(s.cluster.bodies["search"], `"seed":"abk1"`)
}

func (s *AuditRepositoryTestSuite) TestPruneExpired() {
	s.repo.config.RetentionPeriod = 90 * 24 * time.Hour
	old := time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.repo.IndexWager(s.ctx, testWager("old", old)))
	s.Require().NoError(s.repo.IndexWager(s.ctx, testWager("recent", recent)))

	deleted, err := s.repo.PruneExpired(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(3), deleted)

	// May is entirely past the cutoff, July straddles it
	s.Equal([]string{"test_wagers_2026-05"}, s.cluster.deleted)
	s.True(s.cluster.indices["test_wagers_2026-07"])
	s.Contains(s.cluster.bodies["delete_by_query"], "2026-07-20T12:00:00Z")

	// A dropped index is recreated on the next write
	s.Require().NoError(s.repo.IndexWager(s.ctx, testWager("late", old)))
	s.True(s.cluster.indices["test_wagers_2026-05"])
}

func (s *AuditRepositoryTestSuite) TestIndexErrorSurfaces() {
	s.server.Close()
	err := s.repo.IndexWager(s.ctx, testWager("k1", s.now))
	s.Error(err)
}
