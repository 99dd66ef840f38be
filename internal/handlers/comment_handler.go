package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-blog/backend/internal/middleware"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"github.com/anonto42/nano-blog/backend/pkg/logger"
	"github.com/anonto42/nano-blog/backend/validators"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository
	detail            *postDetail
	validator         *validators.CustomValidator
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(
	commentRepo repositories.CommentRepository,
	postRepo repositories.PostRepository,
	followRepo repositories.FollowRepository,
	v *validators.CustomValidator,
) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		postRepository:    postRepo,
		detail:            newPostDetail(postRepo, commentRepo, followRepo),
		validator:         v,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(e *echo.Echo, loginRequired, rateLimit echo.MiddlewareFunc) {
	e.POST("/:username/:post_id/comment", h.AddComment, loginRequired, rateLimit)
}

// AddComment attaches a comment by the current user and returns to the post
func (h *CommentHandler) AddComment(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	id, ok := parseID(c.Param("post_id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	post, err := h.postRepository.GetAuthorPost(ctx, c.Param("username"), id)
	if err != nil {
		return notFoundOr(c, err, "Post not found")
	}

	var form models.CommentForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission")
	}
	form.Text = strings.TrimSpace(form.Text)
	if errs := h.validator.Check(&form); errs != nil {
		return h.detail.render(c, post, form.Text, errs)
	}

	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: user.ID,
		Text:     form.Text,
	}
	if err := h.commentRepository.CreateComment(ctx, comment); err != nil {
		return internalError(c, err, "Failed to add comment")
	}

	logger.Ctx(ctx).Info().Uint("post_id", post.ID).Uint("comment_id", comment.ID).Msg("comment added")
	return c.Redirect(http.StatusFound, postURL(post.Author.Username, post.ID))
}
