package moderation

import (
	"context"
	"regexp"

	"go.uber.org/zap"

	"github.com/outpost-social/outpost/internal/models"
	"github.com/outpost-social/outpost/pkg/logging"
)

// TermSource supplies the current disallowed-term list. The list is
// mutated by moderation tooling outside this service; scans read it
// fresh rather than caching it.
type TermSource interface {
	All(ctx context.Context) ([]*models.BadWord, error)
}

// Scanner tests submitted text against the disallowed-term list. A match
// produces an offensiveness flag; it never blocks the submission.
type Scanner struct {
	terms  TermSource
	logger *zap.Logger
}

// NewScanner creates a new scanner
func NewScanner(terms TermSource) *Scanner {
	return &Scanner{
		terms:  terms,
		logger: logging.WithComponent("moderation"),
	}
}

// Check reports whether the title or body trips any disallowed term,
// stopping at the first match.
func (s *Scanner) Check(ctx context.Context, title, body string) (bool, error) {
	words, err := s.terms.All(ctx)
	if err != nil {
		return false, err
	}

	for _, word := range words {
		// Patterns are moderator-supplied; an invalid one is skipped
		// rather than failing every scan.
		re, compileErr := regexp.Compile(`(?i)` + word.Pattern)
		if compileErr != nil {
			s.logger.Warn("Skipping invalid disallowed-term pattern",
				zap.Int64("term_id", word.ID),
				zap.Error(compileErr))
			continue
		}
		if re.MatchString(title) {
			s.logger.Debug("Title matched disallowed term", zap.Int64("term_id", word.ID))
			return true, nil
		}
		if body != "" && re.MatchString(body) {
			s.logger.Debug("Body matched disallowed term", zap.Int64("term_id", word.ID))
			return true, nil
		}
	}

	return false, nil
}
