package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/outpost-social/outpost/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UserRepository provides user-related database operations
type UserRepository struct {
	*Repository
}

// NewUserRepository creates a new user repository
func NewUserRepository(repo *Repository) *UserRepository {
	return &UserRepository{Repository: repo}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByName retrieves a user by username
func (r *UserRepository) GetByName(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByToken retrieves a user by API token
func (r *UserRepository) GetByToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	var user models.User
	if err := r.db.WithContext(ctx).Where("api_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GuildRepository provides guild-related database operations
type GuildRepository struct {
	*Repository
}

// NewGuildRepository creates a new guild repository
func NewGuildRepository(repo *Repository) *GuildRepository {
	return &GuildRepository{Repository: repo}
}

// GetByID retrieves a guild by ID
func (r *GuildRepository) GetByID(ctx context.Context, id int64) (*models.Guild, error) {
	var guild models.Guild
	if err := r.db.WithContext(ctx).First(&guild, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &guild, nil
}

// GetByName retrieves a guild by name
func (r *GuildRepository) GetByName(ctx context.Context, name string) (*models.Guild, error) {
	var guild models.Guild
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&guild).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &guild, nil
}

// HasBan reports whether the user is exiled from the guild
func (r *GuildRepository) HasBan(ctx context.Context, guildID, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.GuildBan{}).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Count(&count).Error
	return count > 0, err
}

// CanSubmit reports whether the user may post to a restricted or private
// guild. Approved contributors and moderators qualify.
func (r *GuildRepository) CanSubmit(ctx context.Context, guildID, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.GuildContributor{}).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	err = r.db.WithContext(ctx).
		Model(&models.GuildModerator{}).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Count(&count).Error
	return count > 0, err
}

// CanView reports whether the user may view content in a private guild.
// Viewing rights follow submitting rights.
func (r *GuildRepository) CanView(ctx context.Context, guildID, userID int64) (bool, error) {
	return r.CanSubmit(ctx, guildID, userID)
}

// SubmissionRepository provides submission-related database operations
type SubmissionRepository struct {
	*Repository
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(repo *Repository) *SubmissionRepository {
	return &SubmissionRepository{Repository: repo}
}

// GetByID retrieves a submission with its content by ID
func (r *SubmissionRepository) GetByID(ctx context.Context, id int64) (*models.Submission, error) {
	var sub models.Submission
	if err := r.db.WithContext(ctx).Preload("Content").First(&sub, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// FindDuplicate searches for a non-deleted submission by the same author
// in the same guild with exactly matching title, url, and body.
func (r *SubmissionRepository) FindDuplicate(ctx context.Context, authorID, guildID int64, title, url, body string) (*models.Submission, error) {
	var sub models.Submission
	err := r.db.WithContext(ctx).
		Joins("JOIN outpost_submission_contents AS contents ON contents.submission_id = outpost_submissions.id").
		Where("outpost_submissions.author_id = ?", authorID).
		Where("outpost_submissions.guild_id = ?", guildID).
		Where("outpost_submissions.is_deleted = ?", false).
		Where("contents.title = ? AND contents.url = ? AND contents.body = ?", title, url, body).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// FindRepost returns the earliest non-deleted, non-banned submission in
// the guild whose url matches case-insensitively, regardless of author.
func (r *SubmissionRepository) FindRepost(ctx context.Context, guildID int64, url string) (*models.Submission, error) {
	if url == "" {
		return nil, nil
	}
	var sub models.Submission
	err := r.db.WithContext(ctx).
		Joins("JOIN outpost_submission_contents AS contents ON contents.submission_id = outpost_submissions.id").
		Where("outpost_submissions.guild_id = ?", guildID).
		Where("outpost_submissions.is_deleted = ?", false).
		Where("outpost_submissions.is_banned = ?", false).
		Where("LOWER(contents.url) = LOWER(?)", url).
		Order("outpost_submissions.id ASC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// Create persists a submission, its content, and the author's initial
// vote as one transaction. Nothing is visible unless all three commit.
func (r *SubmissionRepository) Create(ctx context.Context, sub *models.Submission, content *models.SubmissionContent, vote *models.Vote) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sub).Error; err != nil {
			return err
		}
		content.SubmissionID = sub.ID
		if err := tx.Create(content).Error; err != nil {
			return err
		}
		vote.SubmissionID = sub.ID
		if err := tx.Create(vote).Error; err != nil {
			return err
		}
		return nil
	})
}

// ListNewIDs returns ids of the newest visible submissions in a guild
func (r *SubmissionRepository) ListNewIDs(ctx context.Context, guildID int64, limit int) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("guild_id = ? AND is_deleted = ? AND is_banned = ?", guildID, false, false).
		Order("created_at DESC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// SetThumbnail records a thumbnail url resolved by background enrichment
func (r *SubmissionRepository) SetThumbnail(ctx context.Context, submissionID int64, thumbnailURL string) error {
	return r.db.WithContext(ctx).
		Model(&models.SubmissionContent{}).
		Where("submission_id = ?", submissionID).
		Update("thumbnail_url", thumbnailURL).Error
}

// MarkBanned flags a submission removed by the content-safety scanner
func (r *SubmissionRepository) MarkBanned(ctx context.Context, submissionID int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", submissionID).
		Update("is_banned", true).Error
}

// DomainRepository provides domain-policy database operations
type DomainRepository struct {
	*Repository
}

// NewDomainRepository creates a new domain repository
func NewDomainRepository(repo *Repository) *DomainRepository {
	return &DomainRepository{Repository: repo}
}

// GetByHost retrieves the policy record for a hostname
func (r *DomainRepository) GetByHost(ctx context.Context, host string) (*models.Domain, error) {
	if host == "" {
		return nil, nil
	}
	var domain models.Domain
	if err := r.db.WithContext(ctx).Where("name = ?", host).First(&domain).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &domain, nil
}

// BadWordRepository provides disallowed-term database operations
type BadWordRepository struct {
	*Repository
}

// NewBadWordRepository creates a new badword repository
func NewBadWordRepository(repo *Repository) *BadWordRepository {
	return &BadWordRepository{Repository: repo}
}

// All retrieves the full disallowed-term list. The list is mutated
// outside this service and read fresh on each scan.
func (r *BadWordRepository) All(ctx context.Context) ([]*models.BadWord, error) {
	var words []*models.BadWord
	if err := r.db.WithContext(ctx).Find(&words).Error; err != nil {
		return nil, err
	}
	return words, nil
}

// CommentRepository provides comment-related database operations
type CommentRepository struct {
	*Repository
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(repo *Repository) *CommentRepository {
	return &CommentRepository{Repository: repo}
}

// GetByID retrieves a comment by ID
func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}
