package service

import (
	"encoding/json"
	"fmt"
	"log"

	"anoa.com/titlereview/internal/entity"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

// SearchService maintains the Meilisearch titles index. Indexing is
// best-effort: the database stays the source of truth and callers log
// failures instead of failing the write.
type SearchService interface {
	Enabled() bool
	IndexTitle(title *entity.Title) error
	DeleteTitle(id string) error
	SearchTitleIDs(query string, offset, limit int) ([]uuid.UUID, int64, error)
}

type searchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

type titleDocument struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Year        int    `json:"year"`
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	s := &searchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	if client != nil {
		s.initIndexes()
	}
	return s
}

func (s *searchService) initIndexes() {
	sortableAttrs := []string{"year"}
	if _, err := s.client.Index("titles").UpdateSortableAttributes(&sortableAttrs); err != nil {
		log.Printf("Failed to update titles sortable attributes: %v", err)
	}
}

func (s *searchService) Enabled() bool {
	return s.client != nil
}

func (s *searchService) IndexTitle(title *entity.Title) error {
	if s.client == nil {
		return nil
	}

	doc := titleDocument{
		ID:          title.ID.String(),
		Name:        s.sanitizer.Sanitize(title.Name),
		Description: s.sanitizer.Sanitize(title.Description),
		Year:        title.Year,
	}

	if _, err := s.client.Index("titles").AddDocuments([]titleDocument{doc}, strPtr("id")); err != nil {
		return fmt.Errorf("failed to index title: %w", err)
	}
	return nil
}

func (s *searchService) DeleteTitle(id string) error {
	if s.client == nil {
		return nil
	}
	if _, err := s.client.Index("titles").DeleteDocument(id); err != nil {
		return fmt.Errorf("failed to delete title from index: %w", err)
	}
	return nil
}

func (s *searchService) SearchTitleIDs(query string, offset, limit int) ([]uuid.UUID, int64, error) {
	if s.client == nil {
		return nil, 0, nil
	}

	res, err := s.client.Index("titles").Search(query, &meilisearch.SearchRequest{
		Offset: int64(offset),
		Limit:  int64(limit),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search titles: %w", err)
	}

	raw, err := json.Marshal(res.Hits)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode search hits: %w", err)
	}
	var docs []titleDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode search hits: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(docs))
	for _, doc := range docs {
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	return ids, res.EstimatedTotalHits, nil
}

func strPtr(s string) *string {
	return &s
}
