package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"go.uber.org/zap"

	"github.com/outpost-social/outpost/internal/models"
	"github.com/outpost-social/outpost/pkg/config"
	"github.com/outpost-social/outpost/pkg/logging"
)

// maxPageBytes caps how much of a submitted page is read while looking
// for a preview image.
const maxPageBytes = 1 << 20

var (
	ogImageRe    = regexp.MustCompile(`(?i)<meta[^>]+property=["']og:image["'][^>]+content=["']([^"']+)["']`)
	twImageRe    = regexp.MustCompile(`(?i)<meta[^>]+name=["']twitter:image["'][^>]+content=["']([^"']+)["']`)
	firstImageRe = regexp.MustCompile(`(?i)<img[^>]+src=["']([^"']+)["']`)
)

// SubmissionStore is the slice of storage the enrichment workers need
type SubmissionStore interface {
	GetByID(ctx context.Context, id int64) (*models.Submission, error)
	SetThumbnail(ctx context.Context, submissionID int64, thumbnailURL string) error
	MarkBanned(ctx context.Context, submissionID int64) error
}

// Service performs post-commit enrichment of submissions: thumbnail
// extraction from the submitted page and content-safety scanning through
// an external verdict endpoint. Failures are logged and never affect the
// committed submission beyond the fields written here.
type Service struct {
	store      SubmissionStore
	client     *http.Client
	scannerURL string
	logger     *zap.Logger
}

// NewService creates an enrichment service
func NewService(store SubmissionStore, cfg *config.EnrichConfig) *Service {
	return &Service{
		store:      store,
		client:     &http.Client{Timeout: cfg.HTTPTimeout},
		scannerURL: cfg.ScannerURL,
		logger:     logging.WithComponent("enrich"),
	}
}

// GenerateThumbnail fetches the submitted page and records a preview
// image url on the submission content.
func (s *Service) GenerateThumbnail(ctx context.Context, publicID string) error {
	sub, err := s.load(ctx, publicID)
	if err != nil {
		return err
	}
	if sub.Content == nil || sub.Content.URL == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sub.Content.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to build page request: %w", err)
	}
	req.Header.Set("User-Agent", "outpost-thumbnailer/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("page fetch returned status %d", resp.StatusCode)
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return fmt.Errorf("failed to read page: %w", err)
	}

	thumb := extractPreviewImage(string(page), sub.Content.URL)
	if thumb == "" {
		s.logger.Debug("No preview image found", zap.String("post", publicID))
		return nil
	}

	if err := s.store.SetThumbnail(ctx, sub.ID, thumb); err != nil {
		return fmt.Errorf("failed to record thumbnail: %w", err)
	}

	s.logger.Debug("Thumbnail recorded",
		zap.String("post", publicID),
		zap.String("thumbnail", thumb))
	return nil
}

// ScanContent submits the post's url to the configured safety-scanning
// endpoint and removes the submission on a positive verdict.
func (s *Service) ScanContent(ctx context.Context, publicID string) error {
	if s.scannerURL == "" {
		return nil
	}

	sub, err := s.load(ctx, publicID)
	if err != nil {
		return err
	}
	if sub.Content == nil || sub.Content.URL == "" {
		return nil
	}

	payload, err := json.Marshal(map[string]string{"url": sub.Content.URL})
	if err != nil {
		return fmt.Errorf("failed to encode scan request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.scannerURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build scan request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach scanner: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("scanner returned status %d", resp.StatusCode)
	}

	var verdict struct {
		Flagged bool `json:"flagged"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return fmt.Errorf("failed to decode scan verdict: %w", err)
	}

	if verdict.Flagged {
		s.logger.Warn("Submission flagged by safety scanner", zap.String("post", publicID))
		if err := s.store.MarkBanned(ctx, sub.ID); err != nil {
			return fmt.Errorf("failed to remove flagged submission: %w", err)
		}
	}

	return nil
}

func (s *Service) load(ctx context.Context, publicID string) (*models.Submission, error) {
	id, err := strconv.ParseInt(publicID, 36, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid public id %q: %w", publicID, err)
	}

	sub, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("submission %q not found", publicID)
	}
	return sub, nil
}

// extractPreviewImage picks a preview image from page markup, preferring
// social-card metadata over the first inline image.
func extractPreviewImage(page, pageURL string) string {
	for _, re := range []*regexp.Regexp{ogImageRe, twImageRe, firstImageRe} {
		if m := re.FindStringSubmatch(page); len(m) > 1 {
			return absoluteURL(m[1], pageURL)
		}
	}
	return ""
}

// absoluteURL resolves a possibly-relative image reference against the
// page it came from.
func absoluteURL(image, pageURL string) string {
	imageRef, err := url.Parse(image)
	if err != nil {
		return ""
	}
	if imageRef.IsAbs() {
		return image
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return base.ResolveReference(imageRef).String()
}
