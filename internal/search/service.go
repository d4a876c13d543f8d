package search

import (
	"context"
	"strings"

	"skillnest/internal/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Search narrows the name matches with every non-empty filter.
func (s *Service) Search(ctx context.Context, query string, f Filters) ([]*Member, error) {
	candidates, err := s.repo.SearchByName(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}
	out := make([]*Member, 0, len(candidates))
	for _, m := range candidates {
		if f.match(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

// FilterOptions lists the values a client can filter on, keyed by field.
func (s *Service) FilterOptions(ctx context.Context) (map[Field][]string, error) {
	opts := make(map[Field][]string, len(allFields))
	for _, f := range allFields {
		vals, err := s.repo.Distinct(ctx, f)
		if err != nil {
			return nil, err
		}
		opts[f] = vals
	}
	return opts, nil
}

// Upsert replaces the projection for m.ID. First and last name are derived
// from the full name when missing.
func (s *Service) Upsert(ctx context.Context, m *Member) (*Member, error) {
	m.FullName = strings.TrimSpace(m.FullName)
	if m.ID == "" {
		return nil, apperr.Validation("member id is required")
	}
	if m.FullName == "" {
		return nil, apperr.Validation("full name is required")
	}
	if m.FirstName == "" && m.LastName == "" {
		parts := strings.Fields(m.FullName)
		m.FirstName = parts[0]
		m.LastName = strings.Join(parts[1:], " ")
	}
	if m.Skills == nil {
		m.Skills = []string{}
	}
	if err := s.repo.Upsert(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
