package submit

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/outpost-social/outpost/internal/models"
)

type fakeStore struct {
	duplicate *models.Submission
	repost    *models.Submission
	createErr error

	created        *models.Submission
	createdContent *models.SubmissionContent
	createdVote    *models.Vote
	creates        int
}

func (f *fakeStore) FindDuplicate(_ context.Context, _, _ int64, _, _, _ string) (*models.Submission, error) {
	return f.duplicate, nil
}

func (f *fakeStore) FindRepost(_ context.Context, _ int64, url string) (*models.Submission, error) {
	if url == "" {
		return nil, nil
	}
	return f.repost, nil
}

func (f *fakeStore) Create(_ context.Context, sub *models.Submission, content *models.SubmissionContent, vote *models.Vote) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.creates++
	sub.ID = 42
	content.SubmissionID = sub.ID
	vote.SubmissionID = sub.ID
	f.created = sub
	f.createdContent = content
	f.createdVote = vote
	return nil
}

type fakeDomains struct {
	domains map[string]*models.Domain
}

func (f *fakeDomains) GetByHost(_ context.Context, host string) (*models.Domain, error) {
	return f.domains[host], nil
}

type fakeRenderer struct{}

func (fakeRenderer) Render(raw string) string {
	if raw == "" {
		return ""
	}
	return "<p>" + raw + "</p>"
}

type fakeScanner struct {
	offensive bool
	err       error
}

func (f *fakeScanner) Check(_ context.Context, _, _ string) (bool, error) {
	return f.offensive, f.err
}

type fakeEmbeds struct {
	url string
	err error
}

func (f *fakeEmbeds) Resolve(_, _ string) (string, error) {
	return f.url, f.err
}

// recorder tracks post-commit actions in arrival order, so tests can
// assert dispatch happens only after a successful write.
type recorder struct {
	events            []string
	invalidateCtxErrs []error
}

func (r *recorder) InvalidateListing(ctx context.Context, guildName, sort string) error {
	r.events = append(r.events, "invalidate:"+guildName+":"+sort)
	r.invalidateCtxErrs = append(r.invalidateCtxErrs, ctx.Err())
	return nil
}

func (r *recorder) Submit(name string, run func(ctx context.Context)) bool {
	r.events = append(r.events, "task:"+name)
	run(context.Background())
	return true
}

type fakeEnricher struct {
	thumbnails []string
	scans      []string
}

func (f *fakeEnricher) GenerateThumbnail(_ context.Context, publicID string) error {
	f.thumbnails = append(f.thumbnails, publicID)
	return nil
}

func (f *fakeEnricher) ScanContent(_ context.Context, publicID string) error {
	f.scans = append(f.scans, publicID)
	return nil
}

type serviceFixture struct {
	svc      *Service
	store    *fakeStore
	domains  *fakeDomains
	scanner  *fakeScanner
	embeds   *fakeEmbeds
	rec      *recorder
	enricher *fakeEnricher
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		store:    &fakeStore{},
		domains:  &fakeDomains{domains: map[string]*models.Domain{}},
		scanner:  &fakeScanner{},
		embeds:   &fakeEmbeds{},
		rec:      &recorder{},
		enricher: &fakeEnricher{},
	}
	dir := &fakeGuildDirectory{
		guilds: map[string]*models.Guild{
			"general": {ID: 1, Name: "general"},
			"golang":  {ID: 2, Name: "golang"},
			"mature":  {ID: 3, Name: "mature", Over18: true},
		},
	}
	f.svc = NewService(Config{
		Validator: NewValidator(passthroughCleaner{}, "general"),
		Policy:    NewPolicyGate(dir, "general"),
		Store:     f.store,
		Domains:   f.domains,
		Renderer:  fakeRenderer{},
		Scanner:   f.scanner,
		Embeds:    f.embeds,
		Listings:  f.rec,
		Tasks:     f.rec,
		Enricher:  f.enricher,
	})
	return f
}

func TestServiceSubmitLinkPost(t *testing.T) {
	f := newServiceFixture()
	f.domains.domains["example.com"] = &models.Domain{ID: 9, Name: "example.com", CanSubmit: true, EmbedType: "youtube"}
	f.embeds.url = "https://www.youtube.com/embed/abc"
	f.store.repost = &models.Submission{ID: 11}
	user := &models.User{ID: 7, Username: "alice"}

	res, err := f.svc.Submit(context.Background(), user, &Request{
		Title:     "A link",
		URL:       "http://example.com/watch",
		GuildName: "golang",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.Existing {
		t.Error("Existing = true, want false")
	}

	sub := f.store.created
	if sub == nil {
		t.Fatal("Create was not called")
	}
	if sub.AuthorID != 7 || sub.GuildID != 2 || sub.OriginalGuildID != 2 {
		t.Errorf("ids = author %d guild %d original %d", sub.AuthorID, sub.GuildID, sub.OriginalGuildID)
	}
	if !sub.DomainID.Valid || sub.DomainID.Int64 != 9 {
		t.Errorf("DomainID = %+v, want 9", sub.DomainID)
	}
	if !sub.RepostID.Valid || sub.RepostID.Int64 != 11 {
		t.Errorf("RepostID = %+v, want 11", sub.RepostID)
	}
	if !sub.PostPublic {
		t.Error("PostPublic = false, want true")
	}

	content := f.store.createdContent
	if content.URL != "https://example.com/watch" {
		t.Errorf("URL = %q, want forced https", content.URL)
	}
	if content.EmbedURL != "https://www.youtube.com/embed/abc" {
		t.Errorf("EmbedURL = %q", content.EmbedURL)
	}

	vote := f.store.createdVote
	if vote.UserID != 7 || vote.Value != 1 || vote.SubmissionID != 42 {
		t.Errorf("vote = %+v, want author +1 on submission 42", vote)
	}

	if res.Permalink() != "/post/16" {
		t.Errorf("Permalink() = %q, want /post/16", res.Permalink())
	}

	want := []string{"task:thumbnail:16", "task:safety-scan:16", "invalidate:golang:new"}
	if len(f.rec.events) != len(want) {
		t.Fatalf("events = %v, want %v", f.rec.events, want)
	}
	for i := range want {
		if f.rec.events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, f.rec.events[i], want[i])
		}
	}
	if len(f.enricher.thumbnails) != 1 || f.enricher.thumbnails[0] != "16" {
		t.Errorf("thumbnails = %v", f.enricher.thumbnails)
	}
	if len(f.enricher.scans) != 1 || f.enricher.scans[0] != "16" {
		t.Errorf("scans = %v", f.enricher.scans)
	}
}

func TestServiceSubmitDuplicateShortCircuit(t *testing.T) {
	f := newServiceFixture()
	f.store.duplicate = &models.Submission{ID: 99, AuthorID: 7, GuildID: 1}
	user := &models.User{ID: 7}

	res, err := f.svc.Submit(context.Background(), user, &Request{Title: "again", Body: "same text"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !res.Existing {
		t.Error("Existing = false, want true")
	}
	if res.Submission.ID != 99 {
		t.Errorf("Submission.ID = %d, want 99", res.Submission.ID)
	}
	if res.Permalink() != "/post/2r" {
		t.Errorf("Permalink() = %q, want /post/2r", res.Permalink())
	}
	if f.store.created != nil {
		t.Error("Create was called on a duplicate")
	}
	if len(f.rec.events) != 0 {
		t.Errorf("post-commit events on a duplicate: %v", f.rec.events)
	}
}

// Duplicate detection is a read before the write, with no uniqueness
// constraint backing it. When two identical submissions interleave so
// that both reads happen before either write, both rows land. This pins
// that accepted behavior.
func TestServiceSubmitDuplicateCheckWindow(t *testing.T) {
	f := newServiceFixture()
	user := &models.User{ID: 7}
	req := &Request{Title: "same title", Body: "same body"}

	// The store's duplicate lookup sees nothing on either pass,
	// modeling both checks running before either insert commits.
	first, err := f.svc.Submit(context.Background(), user, req)
	if err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	second, err := f.svc.Submit(context.Background(), user, req)
	if err != nil {
		t.Fatalf("second Submit() error = %v", err)
	}

	if first.Existing || second.Existing {
		t.Error("neither submission should short-circuit when the lookup sees nothing")
	}
	if f.store.creates != 2 {
		t.Errorf("creates = %d, want 2 rows from the unguarded window", f.store.creates)
	}
}

func TestServiceSubmitInvalidationSurvivesDisconnect(t *testing.T) {
	f := newServiceFixture()
	user := &models.User{ID: 7}

	// The caller disconnects right as the pipeline runs. Post-commit
	// work must still go through under a detached context.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.svc.Submit(ctx, user, &Request{Title: "x", Body: "y"}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if len(f.rec.invalidateCtxErrs) != 1 {
		t.Fatalf("invalidations = %d, want 1", len(f.rec.invalidateCtxErrs))
	}
	if f.rec.invalidateCtxErrs[0] != nil {
		t.Errorf("invalidation context error = %v, want nil", f.rec.invalidateCtxErrs[0])
	}
}

func TestServiceSubmitBannedDomain(t *testing.T) {
	f := newServiceFixture()
	f.domains.domains["spam.example"] = &models.Domain{
		ID: 5, Name: "spam.example", CanSubmit: false, ReasonCode: models.BanReasonSpam,
	}
	user := &models.User{ID: 7}

	_, err := f.svc.Submit(context.Background(), user, &Request{Title: "spam", URL: "https://spam.example/x"})
	if err == nil {
		t.Fatal("Submit() error = nil, want forbidden")
	}
	if KindOf(err) != KindForbidden {
		t.Errorf("KindOf(err) = %v, want KindForbidden", KindOf(err))
	}
	if f.store.created != nil {
		t.Error("Create was called for a banned domain")
	}
}

func TestServiceSubmitTextPost(t *testing.T) {
	f := newServiceFixture()
	user := &models.User{ID: 7}

	res, err := f.svc.Submit(context.Background(), user, &Request{Title: "thoughts", Body: "hello world"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.Content.BodyHTML != "<p>hello world</p>" {
		t.Errorf("BodyHTML = %q", res.Content.BodyHTML)
	}
	if res.Content.URL != "" {
		t.Errorf("URL = %q, want empty", res.Content.URL)
	}
	if res.Guild.Name != "general" {
		t.Errorf("guild = %q, want general fallback", res.Guild.Name)
	}

	// No url means no enrichment jobs; the listing cache still turns over.
	want := []string{"invalidate:general:new"}
	if len(f.rec.events) != 1 || f.rec.events[0] != want[0] {
		t.Errorf("events = %v, want %v", f.rec.events, want)
	}
}

func TestServiceSubmitOffensiveFlag(t *testing.T) {
	f := newServiceFixture()
	f.scanner.offensive = true
	user := &models.User{ID: 7}

	res, err := f.svc.Submit(context.Background(), user, &Request{Title: "rude", Body: "text"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !res.Submission.IsOffensive {
		t.Error("IsOffensive = false, want true")
	}
}

func TestServiceSubmitGuildOver18Inherited(t *testing.T) {
	f := newServiceFixture()
	user := &models.User{ID: 7}

	res, err := f.svc.Submit(context.Background(), user, &Request{Title: "x", Body: "y", GuildName: "mature"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !res.Submission.Over18 {
		t.Error("Over18 = false, want inherited from guild")
	}
}

func TestServiceSubmitEmbedFailureSwallowed(t *testing.T) {
	f := newServiceFixture()
	f.domains.domains["example.com"] = &models.Domain{ID: 9, CanSubmit: true, EmbedType: "youtube"}
	f.embeds.err = errors.New("resolver down")
	user := &models.User{ID: 7}

	res, err := f.svc.Submit(context.Background(), user, &Request{Title: "x", URL: "https://example.com/x"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.Content.EmbedURL != "" {
		t.Errorf("EmbedURL = %q, want empty after resolver failure", res.Content.EmbedURL)
	}
}

func TestServiceSubmitStorageFailure(t *testing.T) {
	f := newServiceFixture()
	f.store.createErr = errors.New("connection reset")
	user := &models.User{ID: 7}

	_, err := f.svc.Submit(context.Background(), user, &Request{Title: "x", Body: "y"})
	if err == nil {
		t.Fatal("Submit() error = nil, want storage failure")
	}
	if KindOf(err) != KindStorage {
		t.Errorf("KindOf(err) = %v, want KindStorage", KindOf(err))
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("error = %q, want wrapped cause", err.Error())
	}
	if len(f.rec.events) != 0 {
		t.Errorf("post-commit events after failed write: %v", f.rec.events)
	}
}

func TestServiceSubmitValidationFailure(t *testing.T) {
	f := newServiceFixture()
	user := &models.User{ID: 7}

	_, err := f.svc.Submit(context.Background(), user, &Request{Title: "   "})
	if err == nil {
		t.Fatal("Submit() error = nil, want invalid input")
	}
	if KindOf(err) != KindInvalidInput {
		t.Errorf("KindOf(err) = %v, want KindInvalidInput", KindOf(err))
	}
}
