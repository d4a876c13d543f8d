package portfolio

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"skillnest/internal/apperr"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// owner guards every write: members only touch their own portfolio.
func owner(actorID, ownerID, kind string) error {
	if actorID == "" || actorID != ownerID {
		return apperr.Forbidden("you can only edit your own %s", kind)
	}
	return nil
}

func visibility(v Visibility) (Visibility, error) {
	switch Visibility(strings.ToLower(string(v))) {
	case "", Public:
		return Public, nil
	case Private:
		return Private, nil
	}
	return "", apperr.Validation("visibility must be public or private")
}

// cleanList trims entries and drops blanks and case-insensitive duplicates.
func cleanList(in []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, v := range in {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

func (s *Service) ListShowcases(ctx context.Context, viewerID, ownerID string) ([]*Showcase, error) {
	all, err := s.repo.ListShowcases(ctx, ownerID)
	if err != nil || viewerID == ownerID {
		return all, err
	}
	out := all[:0]
	for _, sc := range all {
		if sc.Visibility == Public {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (s *Service) CreateShowcase(ctx context.Context, actorID, ownerID string, req *ShowcaseRequest) (*Showcase, error) {
	if err := owner(actorID, ownerID, "showcases"); err != nil {
		return nil, err
	}
	now := s.now()
	sc := &Showcase{ID: uuid.NewString(), UserID: ownerID, CreatedAt: now}
	if err := applyShowcase(sc, req, now); err != nil {
		return nil, err
	}
	if err := s.repo.CreateShowcase(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *Service) UpdateShowcase(ctx context.Context, actorID, ownerID, id string, req *ShowcaseRequest) (*Showcase, error) {
	sc, err := s.ownedShowcase(ctx, actorID, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := applyShowcase(sc, req, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateShowcase(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *Service) DeleteShowcase(ctx context.Context, actorID, ownerID, id string) error {
	if _, err := s.ownedShowcase(ctx, actorID, ownerID, id); err != nil {
		return err
	}
	return s.repo.DeleteShowcase(ctx, id)
}

// ownedShowcase treats a showcase under the wrong user path as missing.
func (s *Service) ownedShowcase(ctx context.Context, actorID, ownerID, id string) (*Showcase, error) {
	if err := owner(actorID, ownerID, "showcases"); err != nil {
		return nil, err
	}
	sc, err := s.repo.GetShowcase(ctx, id)
	if err != nil {
		return nil, err
	}
	if sc.UserID != ownerID {
		return nil, apperr.NotFound("showcase %s", id)
	}
	return sc, nil
}

func applyShowcase(sc *Showcase, req *ShowcaseRequest, now time.Time) error {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return apperr.Validation("showcase title is required")
	}
	vis, err := visibility(req.Visibility)
	if err != nil {
		return err
	}
	link := strings.TrimSpace(req.ProjectURL)
	if link != "" {
		if u, err := url.Parse(link); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return apperr.Validation("project url must be an http(s) link")
		}
	}
	sc.Title = title
	sc.Description = req.Description
	sc.Skills = cleanList(req.Skills)
	sc.Visibility = vis
	sc.ProjectURL = link
	sc.UpdatedAt = now
	return nil
}

func (s *Service) ListDocuments(ctx context.Context, viewerID, ownerID string) ([]*Document, error) {
	all, err := s.repo.ListDocuments(ctx, ownerID)
	if err != nil || viewerID == ownerID {
		return all, err
	}
	out := all[:0]
	for _, d := range all {
		if d.Visibility == Public {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Service) CreateDocument(ctx context.Context, actorID, ownerID string, req *DocumentRequest) (*Document, error) {
	if err := owner(actorID, ownerID, "documents"); err != nil {
		return nil, err
	}
	now := s.now()
	d := &Document{ID: uuid.NewString(), UserID: ownerID, CreatedAt: now}
	if err := applyDocument(d, req, now); err != nil {
		return nil, err
	}
	if err := s.repo.CreateDocument(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) UpdateDocument(ctx context.Context, actorID, ownerID, id string, req *DocumentRequest) (*Document, error) {
	d, err := s.ownedDocument(ctx, actorID, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := applyDocument(d, req, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateDocument(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) DeleteDocument(ctx context.Context, actorID, ownerID, id string) error {
	if _, err := s.ownedDocument(ctx, actorID, ownerID, id); err != nil {
		return err
	}
	return s.repo.DeleteDocument(ctx, id)
}

func (s *Service) ownedDocument(ctx context.Context, actorID, ownerID, id string) (*Document, error) {
	if err := owner(actorID, ownerID, "documents"); err != nil {
		return nil, err
	}
	d, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.UserID != ownerID {
		return nil, apperr.NotFound("document %s", id)
	}
	return d, nil
}

func applyDocument(d *Document, req *DocumentRequest, now time.Time) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return apperr.Validation("document name is required")
	}
	vis, err := visibility(req.Visibility)
	if err != nil {
		return err
	}
	d.Name = name
	d.Description = req.Description
	d.Visibility = vis
	d.Folder = strings.Trim(strings.TrimSpace(req.Folder), "/")
	d.Tags = cleanList(req.Tags)
	d.UpdatedAt = now
	return nil
}
