package quotes

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Service answers quote history searches.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Search returns quotes where every term occurs, case-insensitively, in the
// original request or the quote explanation. Results are newest first, ties
// by request id, truncated to limit. A limit of zero or less returns no rows.
// Blank terms are ignored, so no terms match everything.
func (s *Service) Search(ctx context.Context, terms []string, limit int) ([]Record, error) {
	folded := foldTerms(terms)
	if limit <= 0 {
		return []Record{}, nil
	}
	records, err := s.repo.Search(ctx, folded, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "quote search failed", slog.Any("terms", folded), slog.Any("error", err))
		return nil, err
	}
	s.logger.DebugContext(ctx, "quote search", slog.Any("terms", folded), slog.Int("limit", limit), slog.Int("hits", len(records)))
	return records, nil
}

// Import replaces the stored history with corpus.
func (s *Service) Import(ctx context.Context, corpus Corpus) error {
	if err := s.repo.ReplaceCorpus(ctx, corpus); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "quote history loaded", slog.Int("requests", len(corpus.Requests)), slog.Int("quotes", len(corpus.Quotes)))
	return nil
}

func foldTerms(terms []string) []string {
	caser := cases.Lower(language.Und)
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		out = append(out, caser.String(term))
	}
	return out
}
