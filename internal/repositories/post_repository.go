package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/pagination"
)

// PostFilter narrows a listing. Zero value means every post.
type PostFilter struct {
	AuthorID   uint // posts by this author
	GroupID    uint // posts in this group
	FollowerID uint // posts by authors this user follows
}

// PostPage is one page of a listing, newest first.
type PostPage struct {
	pagination.Page
	Posts []models.Post
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetAuthorPost(ctx context.Context, username string, id uint) (*models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id uint) error
	CountPosts(ctx context.Context, filter PostFilter) (int64, error)
	ListPosts(ctx context.Context, filter PostFilter, rawPage string, perPage int) (*PostPage, error)
}

// SQLPostRepository implements PostRepository on top of gorm
type SQLPostRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new SQLPostRepository
func NewPostRepository(db *gorm.DB) *SQLPostRepository {
	return &SQLPostRepository{db: db}
}

// CreatePost inserts the post; PubDate is stamped by the database layer
func (r *SQLPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error)
}

// GetAuthorPost loads a post only if it was written by username
func (r *SQLPostRepository) GetAuthorPost(ctx context.Context, username string, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Joins("Author").
		Preload("Group").
		Where(clause.Eq{Column: clause.Column{Table: "Author", Name: "username"}, Value: username}).
		Where("posts.id = ?", id).
		First(&post).Error
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// UpdatePost writes the editable columns; author and pub date never change
func (r *SQLPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).
		Model(&models.Post{ID: post.ID}).
		Select("text", "group_id", "image").
		Updates(map[string]interface{}{
			"text":     post.Text,
			"group_id": post.GroupID,
			"image":    post.Image,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePost removes a post and, through the foreign key, its comments
func (r *SQLPostRepository) DeletePost(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLPostRepository) CountPosts(ctx context.Context, filter PostFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, filter).Model(&models.Post{}).Count(&count).Error
	return count, translate(err)
}

// ListPosts counts the filtered posts, resolves rawPage against that count
// and loads the page's rows
func (r *SQLPostRepository) ListPosts(ctx context.Context, filter PostFilter, rawPage string, perPage int) (*PostPage, error) {
	count, err := r.CountPosts(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := pagination.New(count, perPage).GetPage(rawPage)

	posts := make([]models.Post, 0, page.Limit())
	if count > 0 {
		err = r.filtered(ctx, filter).
			Preload("Author").
			Preload("Group").
			Order("posts.pub_date DESC").
			Order("posts.id DESC").
			Offset(page.Offset()).
			Limit(page.Limit()).
			Find(&posts).Error
		if err != nil {
			return nil, translate(err)
		}
	}
	return &PostPage{Page: page, Posts: posts}, nil
}

func (r *SQLPostRepository) filtered(ctx context.Context, filter PostFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	if filter.AuthorID != 0 {
		q = q.Where("posts.author_id = ?", filter.AuthorID)
	}
	if filter.GroupID != 0 {
		q = q.Where("posts.group_id = ?", filter.GroupID)
	}
	if filter.FollowerID != 0 {
		following := r.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", filter.FollowerID)
		q = q.Where("posts.author_id IN (?)", following)
	}
	return q
}
