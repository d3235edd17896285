package embed

import (
	"fmt"
	"net/url"
	"strings"
)

// ResolverFunc derives an embeddable player url from a submitted link
type ResolverFunc func(rawURL string) (string, error)

// Registry maps a domain policy's embed type to a statically known
// resolver. Resolvers are fixed at build time; no stored expressions are
// ever evaluated.
type Registry struct {
	resolvers map[string]ResolverFunc
}

// NewRegistry creates a registry with the built-in resolvers
func NewRegistry() *Registry {
	return &Registry{
		resolvers: map[string]ResolverFunc{
			"youtube": resolveYouTube,
			"vimeo":   resolveVimeo,
			"twitch":  resolveTwitch,
		},
	}
}

// Resolve derives an embed url for the given embed type. An unknown or
// empty embed type yields no embed and no error.
func (r *Registry) Resolve(embedType, rawURL string) (string, error) {
	if embedType == "" {
		return "", nil
	}
	resolver, ok := r.resolvers[embedType]
	if !ok {
		return "", nil
	}
	return resolver(rawURL)
}

func resolveYouTube(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	videoID := u.Query().Get("v")
	if videoID == "" {
		// Short-link form: youtu.be/<id>
		videoID = strings.Trim(u.Path, "/")
	}
	if videoID == "" || strings.Contains(videoID, "/") {
		return "", fmt.Errorf("no video id in url %q", rawURL)
	}

	return "https://www.youtube.com/embed/" + videoID, nil
}

func resolveVimeo(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	videoID := strings.Trim(u.Path, "/")
	if videoID == "" || strings.Contains(videoID, "/") {
		return "", fmt.Errorf("no video id in url %q", rawURL)
	}

	return "https://player.vimeo.com/video/" + videoID, nil
}

func resolveTwitch(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	channel := strings.Trim(u.Path, "/")
	if channel == "" || strings.Contains(channel, "/") {
		return "", fmt.Errorf("no channel in url %q", rawURL)
	}

	return "https://player.twitch.tv/?channel=" + channel, nil
}
