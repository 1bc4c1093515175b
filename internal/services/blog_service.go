package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/aufildessentiers/backend/internal/models"
	apperrors "github.com/aufildessentiers/backend/pkg/errors"
)

// ErrArticleNotFound indicates the requested article does not exist.
var ErrArticleNotFound = apperrors.New("ARTICLE_NOT_FOUND", "Article not found", http.StatusNotFound)

// CreateArticleInput describes the fields accepted when publishing an article.
type CreateArticleInput struct {
	Title    string
	Slug     string
	Excerpt  string
	Content  string
	ImageURL string
	Tags     []string
}

// ArticleSummary is the listing projection: everything but the body.
type ArticleSummary struct {
	ID          uint           `json:"id"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	Excerpt     string         `json:"excerpt"`
	ImageURL    string         `json:"image_url"`
	Tags        datatypes.JSON `json:"tags"`
	PublishedAt *string        `json:"published_at"`
}

// BlogService serves published articles and admin authoring.
type BlogService struct {
	db *gorm.DB
}

// NewBlogService constructs a BlogService instance.
func NewBlogService(db *gorm.DB) (*BlogService, error) {
	if db == nil {
		return nil, errors.New("blog service: db is required")
	}
	return &BlogService{db: db}, nil
}

// List returns published article summaries, newest first.
func (s *BlogService) List(ctx context.Context, page, pageSize int) ([]ArticleSummary, int64, error) {
	ctx = ensureContext(ctx)
	page, pageSize = normalisePage(page, pageSize)

	base := s.db.WithContext(ctx).
		Model(&models.BlogArticle{}).
		Where("published_at IS NOT NULL")

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("blog service: count articles: %w", err)
	}

	var articles []models.BlogArticle
	err := base.
		Select("id", "title", "slug", "excerpt", "image_url", "tags", "published_at").
		Order("published_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&articles).Error
	if err != nil {
		return nil, 0, fmt.Errorf("blog service: list articles: %w", err)
	}

	summaries := make([]ArticleSummary, len(articles))
	for i, a := range articles {
		summaries[i] = ArticleSummary{
			ID:       a.ID,
			Title:    a.Title,
			Slug:     a.Slug,
			Excerpt:  a.Excerpt,
			ImageURL: a.ImageURL,
			Tags:     a.Tags,
		}
		if a.PublishedAt != nil {
			formatted := a.PublishedAt.Format("2006-01-02T15:04:05Z07:00")
			summaries[i].PublishedAt = &formatted
		}
	}

	return summaries, total, nil
}

// Get resolves an article by numeric id or slug.
func (s *BlogService) Get(ctx context.Context, idOrSlug string) (*models.BlogArticle, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).
		Preload("Author").
		Where("published_at IS NOT NULL")

	if id, err := strconv.ParseUint(idOrSlug, 10, 64); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("slug = ?", idOrSlug)
	}

	var article models.BlogArticle
	err := query.Take(&article).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrArticleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("blog service: load article: %w", err)
	}
	return &article, nil
}

// Create publishes a new article authored by the given user.
func (s *BlogService) Create(ctx context.Context, authorID uint, input CreateArticleInput) (*models.BlogArticle, error) {
	ctx = ensureContext(ctx)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, apperrors.NewBadRequest("content is required")
	}

	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = slugify(title)
	}

	tags, err := json.Marshal(input.Tags)
	if err != nil {
		return nil, fmt.Errorf("blog service: encode tags: %w", err)
	}

	now := s.db.NowFunc()
	article := &models.BlogArticle{
		Title:       title,
		Slug:        slug,
		Excerpt:     strings.TrimSpace(input.Excerpt),
		Content:     input.Content,
		ImageURL:    strings.TrimSpace(input.ImageURL),
		Tags:        datatypes.JSON(tags),
		AuthorID:    authorID,
		PublishedAt: &now,
	}

	if err := s.db.WithContext(ctx).Create(article).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewBadRequest("an article with this slug already exists")
		}
		return nil, fmt.Errorf("blog service: create article: %w", err)
	}
	return article, nil
}

// slugify lowercases a title and squeezes everything non-alphanumeric into
// single hyphens. Accented characters common in French titles are mapped to
// their plain form.
func slugify(title string) string {
	replacer := strings.NewReplacer(
		"à", "a", "â", "a", "ä", "a",
		"é", "e", "è", "e", "ê", "e", "ë", "e",
		"î", "i", "ï", "i",
		"ô", "o", "ö", "o",
		"ù", "u", "û", "u", "ü", "u",
		"ç", "c",
	)
	title = replacer.Replace(strings.ToLower(title))

	var b strings.Builder
	lastHyphen := true
	for _, r := range title {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}
