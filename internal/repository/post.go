// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/fullmoon-jpg/paceon-sub000/internal/cache"
	"github.com/fullmoon-jpg/paceon-sub000/internal/models"
	"github.com/fullmoon-jpg/paceon-sub000/internal/observability"
)

// ListOptions narrows and pages a feed listing.
type ListOptions struct {
	// AuthorID restricts the listing to a single author when non-zero.
	AuthorID uint
	Limit    int
	Offset   int
}

// PostRepository defines the interface for post data operations.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error)
	// List returns one page of posts newest-first and whether more pages remain.
	List(ctx context.Context, opts ListOptions, currentUserID uint) ([]*models.Post, bool, error)
	// ListSince returns posts created strictly after the given time, newest-first.
	ListSince(ctx context.Context, since time.Time, currentUserID uint) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	// ToggleLike flips the (user, post) like relation and returns the new
	// state along with the post's resulting like count.
	ToggleLike(ctx context.Context, userID, postID uint) (bool, int, error)
	// ToggleSave flips the (user, post) save relation and returns the new state.
	ToggleSave(ctx context.Context, userID, postID uint) (bool, error)
}

type postRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
	logger  *observability.RepoLogger
}

// NewPostRepository creates a new post repository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{
		db:      db,
		metrics: observability.NewDatabaseMetrics(db),
		logger:  observability.NewRepoLogger("posts"),
	}
}

// applyPostDetails adds subqueries to fetch counts and the requesting user's
// liked/saved relations in a single query.
func (r *postRepository) applyPostDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id AND comments.deleted_at IS NULL) as comment_count, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) as like_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+
			", EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) as liked"+
			", EXISTS(SELECT 1 FROM saves WHERE saves.post_id = posts.id AND saves.user_id = ?) as saved",
			currentUserID, currentUserID)
	}

	return db.Select(selectQuery + ", false as liked, false as saved")
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer r.metrics.TrackQuery("create", "posts")()

	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		r.logger.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	defer r.metrics.TrackQuery("get_by_id", "posts")()

	var post models.Post
	err := r.applyPostDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User").
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		r.logger.LogError(ctx, err, "get_by_id")
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, opts ListOptions, currentUserID uint) ([]*models.Post, bool, error) {
	defer r.metrics.TrackQuery("list", "posts")()

	base := r.applyPostDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User")
	if opts.AuthorID != 0 {
		base = base.Where("posts.user_id = ?", opts.AuthorID)
	}

	var posts []*models.Post
	// Fetch one extra row to learn whether another page exists.
	err := base.
		Order("posts.created_at DESC, posts.id DESC").
		Limit(opts.Limit + 1).
		Offset(opts.Offset).
		Find(&posts).Error
	if err != nil {
		r.logger.LogError(ctx, err, "list")
		return nil, false, models.NewInternalError(err)
	}

	hasMore := len(posts) > opts.Limit
	if hasMore {
		posts = posts[:opts.Limit]
	}
	return posts, hasMore, nil
}

func (r *postRepository) ListSince(ctx context.Context, since time.Time, currentUserID uint) ([]*models.Post, error) {
	defer r.metrics.TrackQuery("list_since", "posts")()

	var posts []*models.Post
	err := r.applyPostDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User").
		Where("posts.created_at > ?", since).
		Order("posts.created_at DESC, posts.id DESC").
		Find(&posts).Error
	if err != nil {
		r.logger.LogError(ctx, err, "list_since")
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	defer r.metrics.TrackQuery("update", "posts")()

	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		r.logger.LogError(ctx, err, "update")
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, post.ID)
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer r.metrics.TrackQuery("delete", "posts")()

	if err := r.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		r.logger.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, id)
	return nil
}

func (r *postRepository) ToggleLike(ctx context.Context, userID, postID uint) (bool, int, error) {
	defer r.metrics.TrackQuery("toggle_like", "posts")()

	var liked bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Post{}, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", postID)
			}
			return models.NewInternalError(err)
		}

		var existing models.Like
		err := tx.Where("user_id = ? AND post_id = ?", userID, postID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return models.NewInternalError(err)
			}
			liked = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&models.Like{UserID: userID, PostID: postID}).Error; err != nil {
				return models.NewInternalError(err)
			}
			liked = true
		default:
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		r.logger.LogError(ctx, err, "toggle_like")
		return false, 0, err
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		r.logger.LogError(ctx, err, "toggle_like")
		return false, 0, models.NewInternalError(err)
	}

	cache.InvalidatePost(ctx, postID)
	return liked, int(count), nil
}

func (r *postRepository) ToggleSave(ctx context.Context, userID, postID uint) (bool, error) {
	defer r.metrics.TrackQuery("toggle_save", "posts")()

	var saved bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Post{}, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", postID)
			}
			return models.NewInternalError(err)
		}

		var existing models.Save
		err := tx.Where("user_id = ? AND post_id = ?", userID, postID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return models.NewInternalError(err)
			}
			saved = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&models.Save{UserID: userID, PostID: postID}).Error; err != nil {
				return models.NewInternalError(err)
			}
			saved = true
		default:
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		r.logger.LogError(ctx, err, "toggle_save")
		return false, err
	}

	cache.InvalidatePost(ctx, postID)
	return saved, nil
}
