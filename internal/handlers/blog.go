package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aufildessentiers/backend/internal/services"
	"github.com/aufildessentiers/backend/pkg/response"
)

// BlogHandler serves published articles and admin authoring.
type BlogHandler struct {
	blog *services.BlogService
}

// NewBlogHandler constructs a BlogHandler.
func NewBlogHandler(blog *services.BlogService) (*BlogHandler, error) {
	if blog == nil {
		return nil, errors.New("blog handler: blog service is required")
	}
	return &BlogHandler{blog: blog}, nil
}

// List serves published article summaries, newest first.
func (h *BlogHandler) List(c *gin.Context) {
	page := intQuery(c, "page", 1)
	pageSize := intQuery(c, "limit", 20)

	articles, total, err := h.blog.List(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, gin.H{"articles": articles}, paginationMeta(page, pageSize, total))
}

// Get serves a full article by numeric id or slug.
func (h *BlogHandler) Get(c *gin.Context) {
	article, err := h.blog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"article": article})
}

type createArticleRequest struct {
	Title    string   `json:"title" validate:"required"`
	Slug     string   `json:"slug"`
	Excerpt  string   `json:"excerpt"`
	Content  string   `json:"content" validate:"required"`
	ImageURL string   `json:"image_url"`
	Tags     []string `json:"tags"`
}

// Create publishes a new article authored by the authenticated admin.
func (h *BlogHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createArticleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	article, err := h.blog.Create(c.Request.Context(), userID, services.CreateArticleInput{
		Title:    req.Title,
		Slug:     req.Slug,
		Excerpt:  req.Excerpt,
		Content:  req.Content,
		ImageURL: req.ImageURL,
		Tags:     req.Tags,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"article": article})
}
