package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-blog/backend/internal/middleware"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"github.com/anonto42/nano-blog/backend/pkg/logger"
	"github.com/anonto42/nano-blog/backend/pkg/storage"
	"github.com/anonto42/nano-blog/backend/validators"
)

// PostHandler handles creating, reading, editing and deleting posts
type PostHandler struct {
	postRepository  repositories.PostRepository
	groupRepository repositories.GroupRepository
	detail          *postDetail
	store           storage.Storage
	validator       *validators.CustomValidator
	maxImageBytes   int64
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(
	postRepo repositories.PostRepository,
	groupRepo repositories.GroupRepository,
	commentRepo repositories.CommentRepository,
	followRepo repositories.FollowRepository,
	store storage.Storage,
	v *validators.CustomValidator,
	maxImageBytes int64,
) *PostHandler {
	return &PostHandler{
		postRepository:  postRepo,
		groupRepository: groupRepo,
		detail:          newPostDetail(postRepo, commentRepo, followRepo),
		store:           store,
		validator:       v,
		maxImageBytes:   maxImageBytes,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(e *echo.Echo, loginRequired, rateLimit echo.MiddlewareFunc) {
	e.GET("/new", h.NewPostForm, loginRequired)
	e.POST("/new", h.CreatePost, loginRequired, rateLimit)
	e.GET("/:username/:post_id", h.PostView)
	e.GET("/:username/:post_id/edit", h.EditPostForm)
	e.POST("/:username/:post_id/edit", h.UpdatePost, rateLimit)
	e.POST("/:username/:post_id/delete", h.DeletePost, loginRequired)
}

// postSubmission is a bound and checked create/edit form.
type postSubmission struct {
	Form    models.PostForm
	GroupID *uint
	Image   *validators.Image
	Errors  validators.Errors
}

func (s *postSubmission) valid() bool { return len(s.Errors) == 0 }

// NewPostForm renders an empty post form
func (h *PostHandler) NewPostForm(c echo.Context) error {
	return h.renderForm(c, nil, models.PostForm{}, nil)
}

// CreatePost publishes a post authored by the current user
func (h *PostHandler) CreatePost(c echo.Context) error {
	user := middleware.CurrentUser(c)
	ctx := c.Request().Context()

	sub, err := h.readSubmission(c)
	if err != nil {
		return err
	}
	if !sub.valid() {
		return h.renderForm(c, nil, sub.Form, sub.Errors)
	}

	post := &models.Post{
		Text:     sub.Form.Text,
		AuthorID: user.ID,
		GroupID:  sub.GroupID,
	}
	if sub.Image != nil {
		key, err := h.saveImage(ctx, sub.Image)
		if err != nil {
			return internalError(c, err, "Failed to store image")
		}
		post.Image = &key
	}

	if err := h.postRepository.CreatePost(ctx, post); err != nil {
		h.removeImage(ctx, post.ImageKey())
		return internalError(c, err, "Failed to create post")
	}

	logger.Ctx(ctx).Info().Uint("post_id", post.ID).Str(logger.FieldUsername, user.Username).Msg("post created")
	return c.Redirect(http.StatusFound, "/")
}

// PostView shows a single post with its comments
func (h *PostHandler) PostView(c echo.Context) error {
	post, err := h.loadPost(c)
	if err != nil {
		return err
	}
	return h.detail.render(c, post, "", nil)
}

// EditPostForm renders the edit form; only the author may see it
func (h *PostHandler) EditPostForm(c echo.Context) error {
	post, err := h.loadPost(c)
	if err != nil {
		return err
	}
	if !isAuthor(c, post) {
		return c.Redirect(http.StatusFound, postURL(post.Author.Username, post.ID))
	}

	form := models.PostForm{Text: post.Text}
	if post.GroupID != nil {
		form.Group = strconv.FormatUint(uint64(*post.GroupID), 10)
	}
	return h.renderForm(c, post, form, nil)
}

// UpdatePost saves an edit; non-authors are sent back to the post
func (h *PostHandler) UpdatePost(c echo.Context) error {
	ctx := c.Request().Context()
	post, err := h.loadPost(c)
	if err != nil {
		return err
	}
	if !isAuthor(c, post) {
		return c.Redirect(http.StatusFound, postURL(post.Author.Username, post.ID))
	}

	sub, err := h.readSubmission(c)
	if err != nil {
		return err
	}
	if !sub.valid() {
		return h.renderForm(c, post, sub.Form, sub.Errors)
	}

	oldImage := post.ImageKey()
	post.Text = sub.Form.Text
	post.GroupID = sub.GroupID
	switch {
	case sub.Image != nil:
		key, err := h.saveImage(ctx, sub.Image)
		if err != nil {
			return internalError(c, err, "Failed to store image")
		}
		post.Image = &key
	case sub.Form.ClearImage != "":
		post.Image = nil
	}

	if err := h.postRepository.UpdatePost(ctx, post); err != nil {
		if post.ImageKey() != oldImage {
			h.removeImage(ctx, post.ImageKey())
		}
		return notFoundOr(c, err, "Failed to update post")
	}
	if oldImage != "" && post.ImageKey() != oldImage {
		h.removeImage(ctx, oldImage)
	}

	logger.Ctx(ctx).Info().Uint("post_id", post.ID).Msg("post updated")
	return c.Redirect(http.StatusFound, postURL(post.Author.Username, post.ID))
}

// DeletePost removes a post with its comments and image
func (h *PostHandler) DeletePost(c echo.Context) error {
	ctx := c.Request().Context()
	post, err := h.loadPost(c)
	if err != nil {
		return err
	}
	if !isAuthor(c, post) {
		return c.Redirect(http.StatusFound, postURL(post.Author.Username, post.ID))
	}

	if err := h.postRepository.DeletePost(ctx, post.ID); err != nil {
		return notFoundOr(c, err, "Failed to delete post")
	}
	h.removeImage(ctx, post.ImageKey())

	logger.Ctx(ctx).Info().Uint("post_id", post.ID).Msg("post deleted")
	return c.Redirect(http.StatusFound, profileURL(post.Author.Username))
}

// loadPost resolves /:username/:post_id, answering 404 when the pair does not match
func (h *PostHandler) loadPost(c echo.Context) (*models.Post, error) {
	id, ok := parseID(c.Param("post_id"))
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	post, err := h.postRepository.GetAuthorPost(c.Request().Context(), c.Param("username"), id)
	if err != nil {
		return nil, notFoundOr(c, err, "Post not found")
	}
	return post, nil
}

// readSubmission binds the multipart form and collects every field error.
func (h *PostHandler) readSubmission(c echo.Context) (*postSubmission, error) {
	var form models.PostForm
	if err := c.Bind(&form); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission")
	}
	form.Text = strings.TrimSpace(form.Text)

	sub := &postSubmission{Form: form, Errors: validators.Errors{}}
	for field, msg := range h.validator.Check(&form) {
		sub.Errors.Add(field, msg)
	}

	if form.Group != "" && !sub.Errors.Has("group") {
		if id, ok := parseID(form.Group); ok {
			group, err := h.groupRepository.GetGroupByID(c.Request().Context(), id)
			switch {
			case err == nil:
				sub.GroupID = &group.ID
			case !errors.Is(err, repositories.ErrNotFound):
				return nil, internalError(c, err, "Failed to load group")
			}
		}
		if sub.GroupID == nil {
			sub.Errors.Add("group", validators.MsgInvalidChoice)
		}
	}

	// a missing file part, or a urlencoded body, just means no new image
	if fh, err := c.FormFile("image"); err == nil {
		img, err := validators.ValidateImage(fh, h.maxImageBytes)
		switch {
		case err == nil:
			sub.Image = img
		case errors.Is(err, validators.ErrImageTooLarge):
			sub.Errors.Add("image", validators.MsgImageTooLarge)
		case errors.Is(err, validators.ErrInvalidImage):
			sub.Errors.Add("image", validators.MsgInvalidImage)
		default:
			return nil, internalError(c, err, "Failed to read upload")
		}
	}
	return sub, nil
}

func (h *PostHandler) renderForm(c echo.Context, post *models.Post, form models.PostForm, errs validators.Errors) error {
	groups, err := h.groupRepository.ListGroups(c.Request().Context())
	if err != nil {
		return internalError(c, err, "Failed to load groups")
	}
	data := echo.Map{
		"Form":   form,
		"Groups": groups,
		"Errors": errs,
		"IsEdit": post != nil,
	}
	if post != nil {
		data["Post"] = post
		data["CurrentImage"] = post.ImageKey()
	}
	return renderPage(c, http.StatusOK, "posts/new.html", data)
}

func (h *PostHandler) saveImage(ctx context.Context, img *validators.Image) (string, error) {
	key := "posts/" + uuid.NewString() + img.Ext
	if err := h.store.Write(ctx, key, img.Reader(), img.Size(), img.ContentType); err != nil {
		return "", err
	}
	return key, nil
}

// removeImage deletes a stored image; failures only leave an orphan file.
func (h *PostHandler) removeImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := h.store.Delete(ctx, key); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to delete image")
	}
}

func isAuthor(c echo.Context, post *models.Post) bool {
	user := middleware.CurrentUser(c)
	return user != nil && user.ID == post.AuthorID
}

// postDetail renders the single post page; the comment handler reuses it to
// show form errors.
type postDetail struct {
	postRepository    repositories.PostRepository
	commentRepository repositories.CommentRepository
	followRepository  repositories.FollowRepository
}

func newPostDetail(postRepo repositories.PostRepository, commentRepo repositories.CommentRepository, followRepo repositories.FollowRepository) *postDetail {
	return &postDetail{
		postRepository:    postRepo,
		commentRepository: commentRepo,
		followRepository:  followRepo,
	}
}

func (d *postDetail) render(c echo.Context, post *models.Post, commentText string, errs validators.Errors) error {
	ctx := c.Request().Context()

	comments, err := d.commentRepository.GetCommentsByPostID(ctx, post.ID)
	if err != nil {
		return internalError(c, err, "Failed to load comments")
	}
	postsCount, err := d.postRepository.CountPosts(ctx, repositories.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		return internalError(c, err, "Failed to count posts")
	}
	followers, err := d.followRepository.GetFollowersCount(ctx, post.AuthorID)
	if err != nil {
		return internalError(c, err, "Failed to count followers")
	}
	following, err := d.followRepository.GetFollowingCount(ctx, post.AuthorID)
	if err != nil {
		return internalError(c, err, "Failed to count following")
	}

	return renderPage(c, http.StatusOK, "posts/post.html", echo.Map{
		"Post":           post,
		"Author":         &post.Author,
		"Comments":       comments,
		"PostsCount":     postsCount,
		"FollowersCount": followers,
		"FollowingCount": following,
		"CanEdit":        isAuthor(c, post),
		"CommentText":    commentText,
		"Errors":         errs,
	})
}
