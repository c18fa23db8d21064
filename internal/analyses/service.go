package analyses

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/repoflow/repoflow/internal/analyzer"
	"github.com/repoflow/repoflow/internal/githost"
	"github.com/repoflow/repoflow/internal/search"
)

// ErrSearchDisabled reports that no embedder was configured for this process.
var ErrSearchDisabled = errors.New("semantic search is not configured")

const (
	// cacheSize bounds how many finished result graphs stay in memory
	// for repeat submissions of the same repository.
	cacheSize = 128

	runTimeout = 5 * time.Minute
)

// Service accepts analysis submissions and runs them in the background.
type Service struct {
	store  *Store
	source analyzer.Source
	cache  *lru.Cache[string, *analyzer.AnalysisResult]
	hub    *hub
	index  *search.Index

	// One pipeline at a time keeps the host API quota predictable.
	runMu sync.Mutex
	wg    sync.WaitGroup
}

// NewService creates a service that analyzes repositories through the given
// source.
func NewService(store *Store, source analyzer.Source) *Service {
	cache, _ := lru.New[string, *analyzer.AnalysisResult](cacheSize)
	return &Service{
		store:  store,
		source: source,
		cache:  cache,
		hub:    newHub(),
	}
}

// Store returns the backing analysis store.
func (s *Service) Store() *Store { return s.store }

// SetSearchIndex enables semantic node search on finished analyses.
func (s *Service) SetSearchIndex(ix *search.Index) { s.index = ix }

// Subscribe registers for progress events of one analysis.
func (s *Service) Subscribe(analysisID string) (<-chan Event, func()) {
	return s.hub.Subscribe(analysisID)
}

// Submit validates the repository reference, records a queued analysis and
// starts it in the background.
func (s *Service) Submit(ctx context.Context, repoURL string) (*Analysis, error) {
	ref, err := githost.ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		RepoURL:  ref.URL,
		RepoName: ref.Name,
		Branch:   ref.Branch,
		Status:   StatusQueued,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.run(a.ID, ref)
	return a, nil
}

// Wait blocks until all in-flight analyses finish. Used on shutdown.
func (s *Service) Wait() { s.wg.Wait() }

func (s *Service) run(id string, ref githost.RepositoryReference) {
	defer s.wg.Done()
	s.runMu.Lock()
	defer s.runMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	s.setStatus(ctx, id, StatusRunning, "")

	key := ref.String()
	if res, ok := s.cache.Get(key); ok {
		s.finish(ctx, id, res)
		return
	}

	pipe := analyzer.NewPipeline(s.source, analyzer.Options{
		Reporter: &eventReporter{hub: s.hub, analysisID: id},
	})
	res, err := pipe.AnalyzeRef(ctx, ref)
	if err != nil {
		s.setStatus(ctx, id, StatusFailed, err.Error())
		return
	}

	// Demo fallbacks stand in for a failed fetch; caching one would pin
	// canned data on a repository that may fetch fine next time.
	if !analyzer.IsFallback(res) {
		s.cache.Add(key, res)
	}
	s.finish(ctx, id, res)
}

func (s *Service) setStatus(ctx context.Context, id, status, msg string) {
	if err := s.store.UpdateStatus(ctx, id, status, msg); err != nil {
		log.Printf("analyses: updating %s to %s: %v", id, status, err)
	}
	s.hub.Publish(Event{Type: "status", AnalysisID: id, Status: status, Message: msg})
}

func (s *Service) finish(ctx context.Context, id string, res *analyzer.AnalysisResult) {
	if err := s.store.SaveResult(ctx, id, res); err != nil {
		log.Printf("analyses: saving result for %s: %v", id, err)
		s.setStatus(ctx, id, StatusFailed, "saving result: "+err.Error())
		return
	}
	if s.index != nil {
		if err := s.index.IndexResult(ctx, id, res); err != nil {
			log.Printf("analyses: indexing nodes for %s: %v", id, err)
		}
	}
	s.hub.Publish(Event{Type: "status", AnalysisID: id, Status: StatusCompleted})
}

// Search returns ranked node matches for one completed analysis. Analyses
// stored before the process started are indexed lazily on first query.
func (s *Service) Search(ctx context.Context, id, query string, limit int) ([]search.Hit, error) {
	if s.index == nil {
		return nil, ErrSearchDisabled
	}
	if !s.index.Has(id) {
		res, err := s.store.Result(ctx, id)
		if err != nil {
			return nil, err
		}
		if res == nil {
			return nil, fmt.Errorf("analysis %s has no stored result", id)
		}
		if err := s.index.IndexResult(ctx, id, res); err != nil {
			return nil, fmt.Errorf("indexing %s: %w", id, err)
		}
	}
	return s.index.Query(ctx, id, query, limit)
}

// Delete removes the analysis record along with its search documents.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.Remove(ctx, id); err != nil {
			log.Printf("analyses: dropping search documents for %s: %v", id, err)
		}
	}
	return nil
}
