// Package service implements the application's business logic on top of the
// repository layer.
package service

import (
	"context"
	"strings"

	"forum/internal/models"
	"forum/internal/observability"
	"forum/internal/repository"
)

const (
	maxTitleLen   = 300
	maxContentLen = 50000 // 50K characters
)

// PostService implements post CRUD, listing, and search.
type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	logger   *observability.StructuredLogger
}

type CreatePostInput struct {
	UserID  string
	Title   string
	Content string
	Images  []string
}

// UpdatePostInput carries a partial update. Nil fields are left unchanged;
// a nil Images keeps the stored image list.
type UpdatePostInput struct {
	UserID  string
	PostID  string
	Title   *string
	Content *string
	Images  *[]string
}

type DeletePostInput struct {
	UserID string
	PostID string
}

// NewPostService returns a new PostService.
func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository) *PostService {
	return &PostService{
		postRepo: postRepo,
		userRepo: userRepo,
		logger:   observability.NewStructuredLogger(),
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)

	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 300 characters)")
	}
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 50000 characters)")
	}

	images := in.Images
	if images == nil {
		images = []string{}
	}

	stored := &models.StoredPost{
		Author: in.UserID,
		Title:  title,
		Body:   models.PostBody{Content: content, Images: images},
	}
	created, err := s.postRepo.Create(ctx, stored)
	if err != nil {
		return nil, err
	}

	s.logger.LogServiceCall(ctx, "PostService", "CreatePost", map[string]interface{}{
		"post_id": created.ID.Hex(),
	})
	post := created.Serializable(in.UserID)
	s.attachAuthor(ctx, post)
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, postID, currentUserID string) (*models.Post, error) {
	stored, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	post := stored.Serializable(currentUserID)
	s.attachAuthor(ctx, post)
	return post, nil
}

func (s *PostService) ListPosts(ctx context.Context, currentUserID string) ([]*models.Post, error) {
	stored, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.attachAuthors(ctx, stored, currentUserID)
}

func (s *PostService) GetUserPosts(ctx context.Context, authorID, currentUserID string) ([]*models.Post, error) {
	stored, err := s.postRepo.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	return s.attachAuthors(ctx, stored, currentUserID)
}

func (s *PostService) SearchPosts(ctx context.Context, query, currentUserID string) ([]*models.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	stored, err := s.postRepo.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.attachAuthors(ctx, stored, currentUserID)
}

// UpdatePost merges the provided fields into the post. Only the author may
// update; a non-owner gets Forbidden and the document is untouched.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	existing, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if existing.Author != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}

	update := repository.PostUpdate{Images: in.Images}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, models.NewValidationError("Title is required")
		}
		if len(title) > maxTitleLen {
			return nil, models.NewValidationError("Title too long (max 300 characters)")
		}
		update.Title = &title
	}
	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if content == "" {
			return nil, models.NewValidationError("Content is required")
		}
		if len(content) > maxContentLen {
			return nil, models.NewValidationError("Content too long (max 50000 characters)")
		}
		update.Content = &content
	}

	updated, err := s.postRepo.Update(ctx, in.PostID, update)
	if err != nil {
		return nil, err
	}
	post := updated.Serializable(in.UserID)
	s.attachAuthor(ctx, post)
	return post, nil
}

// DeletePost removes the post. Only the author may delete it.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	existing, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return err
	}
	if existing.Author != in.UserID {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	return s.postRepo.Delete(ctx, in.PostID)
}

// attachAuthors converts stored posts to their serializable views and joins
// in author profiles with a single batch lookup. A post whose author no
// longer resolves stays listed with an absent profile, the same tolerance the
// single read path applies; clients render those as an unknown user.
func (s *PostService) attachAuthors(ctx context.Context, stored []models.StoredPost, currentUserID string) ([]*models.Post, error) {
	ids := make([]string, 0, len(stored))
	seen := make(map[string]struct{}, len(stored))
	for i := range stored {
		if _, ok := seen[stored[i].Author]; !ok {
			seen[stored[i].Author] = struct{}{}
			ids = append(ids, stored[i].Author)
		}
	}

	authors, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	posts := make([]*models.Post, 0, len(stored))
	for i := range stored {
		post := stored[i].Serializable(currentUserID)
		if author, ok := authors[stored[i].Author]; ok {
			post.AuthorUser = author.Serializable()
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// attachAuthor resolves a single post's author. A single post stays visible
// even when the author is gone; the profile is just absent.
func (s *PostService) attachAuthor(ctx context.Context, post *models.Post) {
	author, err := s.userRepo.GetByID(ctx, post.Author)
	if err != nil {
		return
	}
	post.AuthorUser = author.Serializable()
}
