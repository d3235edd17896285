package submit

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/outpost-social/outpost/internal/models"
	"github.com/outpost-social/outpost/pkg/logging"
	"github.com/outpost-social/outpost/pkg/telemetry"
)

// SubmissionStore is the slice of submission storage the pipeline needs.
// Create must be atomic: either all three rows commit or none do.
type SubmissionStore interface {
	FindDuplicate(ctx context.Context, authorID, guildID int64, title, url, body string) (*models.Submission, error)
	FindRepost(ctx context.Context, guildID int64, url string) (*models.Submission, error)
	Create(ctx context.Context, sub *models.Submission, content *models.SubmissionContent, vote *models.Vote) error
}

// DomainPolicies looks up per-hostname policy records
type DomainPolicies interface {
	GetByHost(ctx context.Context, host string) (*models.Domain, error)
}

// BodyRenderer converts raw body text to sanitized HTML
type BodyRenderer interface {
	Render(raw string) string
}

// OffenseScanner tests text against the disallowed-term list
type OffenseScanner interface {
	Check(ctx context.Context, title, body string) (bool, error)
}

// EmbedResolver derives an embed url for a known domain
type EmbedResolver interface {
	Resolve(embedType, rawURL string) (string, error)
}

// ListingInvalidator drops cached guild listings after a commit
type ListingInvalidator interface {
	InvalidateListing(ctx context.Context, guildName, sort string) error
}

// TaskQueue accepts fire-and-forget background jobs
type TaskQueue interface {
	Submit(name string, run func(ctx context.Context)) bool
}

// Enricher performs post-commit enrichment keyed by public id
type Enricher interface {
	GenerateThumbnail(ctx context.Context, publicID string) error
	ScanContent(ctx context.Context, publicID string) error
}

// Result is the outcome of a successful pipeline run. Existing marks a
// duplicate short-circuit: Submission then references the earlier post
// and nothing was written.
type Result struct {
	Submission *models.Submission
	Content    *models.SubmissionContent
	Guild      *models.Guild
	Existing   bool
}

// Permalink returns the canonical path of the resulting submission
func (r *Result) Permalink() string {
	return r.Submission.Permalink()
}

// Service runs the content-submission pipeline: validate, authorize,
// deduplicate, render, persist, then dispatch post-commit work.
type Service struct {
	validator *Validator
	policy    *PolicyGate
	store     SubmissionStore
	domains   DomainPolicies
	renderer  BodyRenderer
	scanner   OffenseScanner
	embeds    EmbedResolver
	listings  ListingInvalidator
	tasks     TaskQueue
	enricher  Enricher
	logger    *zap.Logger
}

// Config wires the pipeline's collaborators
type Config struct {
	Validator *Validator
	Policy    *PolicyGate
	Store     SubmissionStore
	Domains   DomainPolicies
	Renderer  BodyRenderer
	Scanner   OffenseScanner
	Embeds    EmbedResolver
	Listings  ListingInvalidator
	Tasks     TaskQueue
	Enricher  Enricher
}

// NewService creates the submission pipeline
func NewService(cfg Config) *Service {
	return &Service{
		validator: cfg.Validator,
		policy:    cfg.Policy,
		store:     cfg.Store,
		domains:   cfg.Domains,
		renderer:  cfg.Renderer,
		scanner:   cfg.Scanner,
		embeds:    cfg.Embeds,
		listings:  cfg.Listings,
		tasks:     cfg.Tasks,
		enricher:  cfg.Enricher,
		logger:    logging.WithComponent("submit"),
	}
}

// Submit runs the pipeline for one request. Two near-simultaneous
// identical submissions by the same author may both land: duplicate
// detection reads before either writes and no uniqueness constraint
// guards the race. That is accepted behavior, not a bug.
func (s *Service) Submit(ctx context.Context, user *models.User, req *Request) (*Result, error) {
	ctx, span := telemetry.StartSpan(ctx, "submit.pipeline")
	defer span.End()

	norm, err := s.validator.Normalize(req)
	if err != nil {
		return nil, err
	}

	guild, err := s.policy.Authorize(ctx, user, norm.GuildName)
	if err != nil {
		return nil, err
	}

	// Identical resubmission short-circuits to the existing post. No new
	// row, no side effects, no error.
	dup, err := s.store.FindDuplicate(ctx, user.ID, guild.ID, norm.Title, norm.URL, norm.Body)
	if err != nil {
		return nil, err
	}
	if dup != nil {
		s.logger.Debug("Duplicate submission short-circuited",
			zap.String("post", dup.PublicID()),
			zap.Int64("author_id", user.ID))
		return &Result{Submission: dup, Guild: guild, Existing: true}, nil
	}

	domain, embedURL, err := s.resolveDomain(ctx, norm)
	if err != nil {
		return nil, err
	}

	bodyHTML := s.renderer.Render(norm.Body)

	repost, err := s.store.FindRepost(ctx, guild.ID, norm.URL)
	if err != nil {
		return nil, err
	}

	offensive, err := s.scanner.Check(ctx, norm.Title, norm.Body)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sub := &models.Submission{
		AuthorID:        user.ID,
		GuildID:         guild.ID,
		OriginalGuildID: guild.ID,
		Over18:          norm.Over18 || guild.Over18,
		PostPublic:      !guild.IsPrivate,
		IsOffensive:     offensive,
		CreatedAt:       now,
	}
	if domain != nil {
		sub.DomainID = sql.NullInt64{Int64: domain.ID, Valid: true}
	}
	if repost != nil {
		sub.RepostID = sql.NullInt64{Int64: repost.ID, Valid: true}
	}

	content := &models.SubmissionContent{
		Title:    norm.Title,
		URL:      norm.URL,
		Body:     norm.Body,
		BodyHTML: bodyHTML,
		EmbedURL: embedURL,
	}

	vote := &models.Vote{
		UserID:    user.ID,
		Value:     1,
		CreatedAt: now,
	}

	writeCtx, writeSpan := telemetry.StartSpan(ctx, "submit.write")
	err = s.store.Create(writeCtx, sub, content, vote)
	writeSpan.End()
	if err != nil {
		return nil, NewError(KindStorage, "failed to persist submission: %v", err)
	}
	sub.Content = content

	s.dispatchPostCommit(ctx, guild, sub)

	s.logger.Info("Submission created",
		zap.String("post", sub.PublicID()),
		zap.Int64("author_id", user.ID),
		zap.String("guild", guild.Name))

	return &Result{Submission: sub, Content: content, Guild: guild}, nil
}

// resolveDomain applies per-hostname policy and derives an embed url.
// Resolver failures are absorbed: an embed is an enhancement, never a
// reason to reject a submission.
func (s *Service) resolveDomain(ctx context.Context, norm *Normalized) (*models.Domain, string, error) {
	if norm.Host == "" {
		return nil, "", nil
	}

	domain, err := s.domains.GetByHost(ctx, norm.Host)
	if err != nil {
		return nil, "", err
	}
	if domain == nil {
		return nil, "", nil
	}

	if !domain.CanSubmit {
		return nil, "", NewError(KindForbidden, "%s", domain.BanReason())
	}

	embedURL, err := s.embeds.Resolve(domain.EmbedType, norm.URL)
	if err != nil {
		s.logger.Warn("Embed resolution failed",
			zap.String("host", norm.Host),
			zap.Error(err))
		embedURL = ""
	}

	return domain, embedURL, nil
}

// dispatchPostCommit schedules enrichment and drops stale listings. It
// runs strictly after the write transaction commits; every action here
// is detached from the request context, so a disconnecting caller can
// neither cancel dispatched jobs nor leave a stale listing behind.
func (s *Service) dispatchPostCommit(ctx context.Context, guild *models.Guild, sub *models.Submission) {
	ctx = context.WithoutCancel(ctx)
	if sub.Content != nil && sub.Content.URL != "" {
		publicID := sub.PublicID()

		s.tasks.Submit("thumbnail:"+publicID, func(taskCtx context.Context) {
			if err := s.enricher.GenerateThumbnail(taskCtx, publicID); err != nil {
				s.logger.Warn("Thumbnail generation failed",
					zap.String("post", publicID),
					zap.Error(err))
			}
		})

		s.tasks.Submit("safety-scan:"+publicID, func(taskCtx context.Context) {
			if err := s.enricher.ScanContent(taskCtx, publicID); err != nil {
				s.logger.Warn("Content-safety scan failed",
					zap.String("post", publicID),
					zap.Error(err))
			}
		})
	}

	if err := s.listings.InvalidateListing(ctx, guild.Name, "new"); err != nil {
		s.logger.Warn("Listing cache invalidation failed",
			zap.String("guild", guild.Name),
			zap.Error(err))
	}
}
