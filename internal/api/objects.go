package api

import (
	"time"

	"github.com/outpost-social/outpost/internal/models"
)

// submissionObject builds the wire form of a submission. Content is
// optional: listings built from bare rows omit the content fields.
func submissionObject(sub *models.Submission) map[string]interface{} {
	obj := map[string]interface{}{
		"id":           sub.PublicID(),
		"permalink":    sub.Permalink(),
		"author_id":    sub.AuthorID,
		"guild_id":     sub.GuildID,
		"over_18":      sub.Over18,
		"is_offensive": sub.IsOffensive,
		"is_banned":    sub.IsBanned,
		"is_deleted":   sub.IsDeleted,
		"created_at":   sub.CreatedAt.UTC().Format(time.RFC3339),
	}
	if sub.RepostID.Valid {
		obj["repost_id"] = sub.RepostID.Int64
	}
	if sub.Content != nil {
		obj["title"] = sub.Content.Title
		obj["url"] = sub.Content.URL
		obj["body"] = sub.Content.Body
		obj["body_html"] = sub.Content.BodyHTML
		obj["embed_url"] = sub.Content.EmbedURL
		obj["thumbnail_url"] = sub.Content.ThumbnailURL
	}
	return obj
}

func guildObject(guild *models.Guild) map[string]interface{} {
	return map[string]interface{}{
		"id":                 guild.ID,
		"name":               guild.Name,
		"description":        guild.Description,
		"is_banned":          guild.IsBanned,
		"is_private":         guild.IsPrivate,
		"restricted_posting": guild.RestrictedPosting,
		"over_18":            guild.Over18,
		"subscribers":        guild.Subscribers,
		"created_at":         guild.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func userObject(user *models.User) map[string]interface{} {
	return map[string]interface{}{
		"id":         user.ID,
		"username":   user.Username,
		"is_banned":  user.IsBanned,
		"over_18":    user.Over18,
		"created_at": user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func commentObject(comment *models.Comment) map[string]interface{} {
	return map[string]interface{}{
		"id":            comment.PublicID(),
		"submission_id": comment.SubmissionID,
		"author_id":     comment.AuthorID,
		"body":          comment.Body,
		"body_html":     comment.BodyHTML,
		"is_deleted":    comment.IsDeleted,
		"created_at":    comment.CreatedAt.UTC().Format(time.RFC3339),
	}
}
