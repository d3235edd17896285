package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/outpost-social/outpost/internal/cache"
	"github.com/outpost-social/outpost/internal/models"
	"github.com/outpost-social/outpost/pkg/logging"
)

const (
	listingTTL      = 5 * time.Minute
	maxListingLimit = 100
)

// GuildReader loads guilds by name and answers membership questions
type GuildReader interface {
	GetByName(ctx context.Context, name string) (*models.Guild, error)
	CanView(ctx context.Context, guildID, userID int64) (bool, error)
}

// ListingSource provides the ids backing a guild listing
type ListingSource interface {
	ListNewIDs(ctx context.Context, guildID int64, limit int) ([]int64, error)
	GetByID(ctx context.Context, id int64) (*models.Submission, error)
}

// GuildAPI serves guild lookup and listings
type GuildAPI struct {
	guilds   GuildReader
	listings ListingSource
	cache    *cache.Cache
	logger   *zap.Logger
}

// NewGuildAPI creates a new guild API
func NewGuildAPI(guilds GuildReader, listings ListingSource, redisCache *cache.Cache) *GuildAPI {
	return &GuildAPI{
		guilds:   guilds,
		listings: listings,
		cache:    redisCache,
		logger:   logging.WithComponent("api-guilds"),
	}
}

// GetGuild handles GET /api/v1/guild/:name
func (g *GuildAPI) GetGuild(c *gin.Context) {
	guild, err := g.loadGuild(c)
	if err != nil || guild == nil {
		return
	}
	c.JSON(http.StatusOK, guildObject(guild))
}

// GetGuildListing handles GET /api/v1/guild/:name/listing/new. The id
// list is cached; submission creation invalidates it so new posts show
// up immediately.
func (g *GuildAPI) GetGuildListing(c *gin.Context) {
	guild, err := g.loadGuild(c)
	if err != nil || guild == nil {
		return
	}

	limit := maxListingLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n < limit {
			limit = n
		}
	}

	ids, err := g.listingIDs(c.Request.Context(), guild)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}

	posts := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		sub, err := g.listings.GetByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if sub == nil || sub.IsDeleted || sub.IsBanned {
			continue
		}
		posts = append(posts, submissionObject(sub))
	}

	c.JSON(http.StatusOK, gin.H{
		"guild": guild.Name,
		"sort":  "new",
		"posts": posts,
	})
}

// listingIDs returns the newest submission ids for a guild, serving from
// cache when possible. Cache failures fall through to the database.
func (g *GuildAPI) listingIDs(ctx context.Context, guild *models.Guild) ([]int64, error) {
	key := cache.ListingKey(guild.Name, "new")

	var ids []int64
	if err := g.cache.GetJSON(ctx, key, &ids); err == nil {
		return ids, nil
	}

	ids, err := g.listings.ListNewIDs(ctx, guild.ID, maxListingLimit)
	if err != nil {
		return nil, err
	}

	if err := g.cache.SetJSON(ctx, key, ids, listingTTL); err != nil && err != cache.ErrCacheDisabled {
		g.logger.Warn("Failed to cache guild listing",
			zap.String("guild", guild.Name),
			zap.Error(err))
	}
	return ids, nil
}

func (g *GuildAPI) loadGuild(c *gin.Context) (*models.Guild, error) {
	name := strings.ToLower(strings.TrimPrefix(c.Param("name"), "+"))
	guild, err := g.guilds.GetByName(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return nil, err
	}
	if guild == nil || guild.IsBanned {
		respondNotFound(c)
		return nil, nil
	}

	// Private guild metadata is public; its listing is members-only.
	if guild.IsPrivate && strings.HasSuffix(c.FullPath(), "/listing/new") {
		user := currentUser(c)
		allowed := false
		if user != nil {
			allowed, err = g.guilds.CanView(c.Request.Context(), guild.ID, user.ID)
			if err != nil {
				respondError(c, err)
				return nil, err
			}
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "+" + guild.Name + " is private."})
			return nil, nil
		}
	}
	return guild, nil
}
