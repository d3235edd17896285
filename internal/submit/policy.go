package submit

import (
	"context"

	"github.com/outpost-social/outpost/internal/models"
)

// GuildDirectory is the slice of guild storage the pipeline needs.
// Absent guilds are a typed absence (nil, nil), not an error.
type GuildDirectory interface {
	GetByName(ctx context.Context, name string) (*models.Guild, error)
	HasBan(ctx context.Context, guildID, userID int64) (bool, error)
	CanSubmit(ctx context.Context, guildID, userID int64) (bool, error)
}

// PolicyGate resolves the target guild and authorizes the submission.
// All checks must pass; there is no partial authorization.
type PolicyGate struct {
	guilds       GuildDirectory
	defaultGuild string
}

// NewPolicyGate creates a policy gate
func NewPolicyGate(guilds GuildDirectory, defaultGuild string) *PolicyGate {
	return &PolicyGate{guilds: guilds, defaultGuild: defaultGuild}
}

// Authorize resolves the named guild and checks the acting user against
// its policy. An unknown guild name falls back to the default guild
// rather than failing.
func (p *PolicyGate) Authorize(ctx context.Context, user *models.User, guildName string) (*models.Guild, error) {
	guild, err := p.guilds.GetByName(ctx, guildName)
	if err != nil {
		return nil, err
	}
	if guild == nil {
		guild, err = p.guilds.GetByName(ctx, p.defaultGuild)
		if err != nil {
			return nil, err
		}
		if guild == nil {
			return nil, NewError(KindStorage, "default guild %q is missing", p.defaultGuild)
		}
	}

	if guild.IsBanned {
		return nil, NewError(KindForbidden, "+%s is banned.", guild.Name)
	}

	banned, err := p.guilds.HasBan(ctx, guild.ID, user.ID)
	if err != nil {
		return nil, err
	}
	if banned {
		return nil, NewError(KindForbidden, "You are exiled from +%s.", guild.Name)
	}

	if guild.RestrictedPosting || guild.IsPrivate {
		allowed, err := p.guilds.CanSubmit(ctx, guild.ID, user.ID)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, NewError(KindForbidden, "You are not an approved contributor for +%s.", guild.Name)
		}
	}

	return guild, nil
}
