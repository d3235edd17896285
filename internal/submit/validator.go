package submit

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Field limits for submissions
const (
	MaxTitleLen = 500
	MaxURLLen   = 2048
	MaxBodyLen  = 10000
)

var blankRe = regexp.MustCompile(`^\s*$`)

// Request is the ephemeral input of one pipeline run
type Request struct {
	Title     string `json:"title" binding:"required"`
	URL       string `json:"url"`
	Body      string `json:"body"`
	GuildName string `json:"guild"`
	Over18    bool   `json:"over_18"`
}

// Normalized is a validated request ready for policy checks and
// persistence. URL carries the forced-https form or is empty; Host is
// the lowercased hostname used for domain-policy lookup.
type Normalized struct {
	Title     string
	URL       string
	Body      string
	Host      string
	GuildName string
	Over18    bool
}

// TitleCleaner strips markup from titles before storage
type TitleCleaner interface {
	CleanTitle(title string) string
}

// Validator normalizes and rejects malformed submission requests. It is
// pure: no lookups, no side effects.
type Validator struct {
	titles       TitleCleaner
	defaultGuild string
}

// NewValidator creates a validator
func NewValidator(titles TitleCleaner, defaultGuild string) *Validator {
	return &Validator{titles: titles, defaultGuild: defaultGuild}
}

// Normalize validates a request and produces its normalized form. Every
// rule is a hard stop with KindInvalidInput.
func (v *Validator) Normalize(req *Request) (*Normalized, error) {
	if blankRe.MatchString(req.Title) {
		return nil, NewError(KindInvalidInput, "Please enter a better title.")
	}
	if utf8.RuneCountInString(req.Title) > MaxTitleLen {
		return nil, NewError(KindInvalidInput, "%d character limit for titles.", MaxTitleLen)
	}
	// Cleaning strips markup, so a title made only of tags can come
	// back empty. Blankness is checked again on the stored form.
	title := v.titles.CleanTitle(req.Title)
	if blankRe.MatchString(title) {
		return nil, NewError(KindInvalidInput, "Please enter a better title.")
	}

	if req.URL == "" && req.Body == "" {
		return nil, NewError(KindInvalidInput, "Please include a URL or body text.")
	}
	if utf8.RuneCountInString(req.URL) > MaxURLLen {
		return nil, NewError(KindInvalidInput, "URLs cannot be over %d characters.", MaxURLLen)
	}

	parsed, err := url.Parse(req.URL)
	wellFormed := err == nil && parsed.Scheme != "" && parsed.Host != ""
	if !wellFormed && req.Body == "" {
		return nil, NewError(KindInvalidInput, "Please enter a URL or some text.")
	}

	// Force https for submitted urls, preserving everything after the
	// scheme. A url that does not parse into scheme+host is dropped in
	// favor of the body text.
	finalURL := ""
	host := ""
	if req.URL != "" && wellFormed {
		parsed.Scheme = "https"
		finalURL = parsed.String()
		host = strings.ToLower(parsed.Hostname())
	}

	if utf8.RuneCountInString(req.Body) > MaxBodyLen {
		return nil, NewError(KindInvalidInput, "%d character limit for text body.", MaxBodyLen)
	}

	guildName := strings.TrimSpace(strings.TrimLeft(req.GuildName, "+"))
	if guildName == "" {
		guildName = v.defaultGuild
	}

	return &Normalized{
		Title:     title,
		URL:       finalURL,
		Body:      req.Body,
		Host:      host,
		GuildName: strings.ToLower(guildName),
		Over18:    req.Over18,
	}, nil
}
