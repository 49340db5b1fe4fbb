package service

import (
	"context"
	"strings"
	"time"

	"forum/internal/models"
	"forum/internal/observability"
	"forum/internal/repository"
)

const maxCommentLen = 10000

// InteractionService implements likes, forwards, and comments on posts.
type InteractionService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	logger   *observability.StructuredLogger
}

// ToggleResult reports the post state after a like or forward toggle.
type ToggleResult struct {
	Post   *models.Post `json:"post"`
	Count  int          `json:"count"`
	Active bool         `json:"active"`
}

type AddCommentInput struct {
	UserID  string
	PostID  string
	Content string
}

// NewInteractionService returns a new InteractionService.
func NewInteractionService(postRepo repository.PostRepository, userRepo repository.UserRepository) *InteractionService {
	return &InteractionService{
		postRepo: postRepo,
		userRepo: userRepo,
		logger:   observability.NewStructuredLogger(),
	}
}

// ToggleLike flips the user's like on the post and reports the new state.
func (s *InteractionService) ToggleLike(ctx context.Context, postID, userID string) (*ToggleResult, error) {
	return s.toggle(ctx, postID, userID, repository.InteractionLike)
}

// ToggleForward flips the user's forward on the post and reports the new state.
func (s *InteractionService) ToggleForward(ctx context.Context, postID, userID string) (*ToggleResult, error) {
	return s.toggle(ctx, postID, userID, repository.InteractionForward)
}

func (s *InteractionService) toggle(ctx context.Context, postID, userID string, kind repository.InteractionKind) (*ToggleResult, error) {
	stored, err := s.postRepo.ToggleInteraction(ctx, postID, kind, userID)
	if err != nil {
		return nil, err
	}

	post := stored.Serializable(userID)
	result := &ToggleResult{Post: post}
	switch kind {
	case repository.InteractionLike:
		result.Count = post.LikesCount
		result.Active = post.Liked
	case repository.InteractionForward:
		result.Count = post.ForwardsCount
		result.Active = post.Forwarded
	}
	observability.RecordToggle(string(kind), result.Active)
	s.logger.LogServiceCall(ctx, "InteractionService", "Toggle", map[string]interface{}{
		"post_id": postID,
		"kind":    string(kind),
		"active":  result.Active,
	})
	return result, nil
}

// AddComment appends a comment to the post. The author must be an existing
// user; comments never embed the author profile, only the id reference.
func (s *InteractionService) AddComment(ctx context.Context, in AddCommentInput) (*models.Post, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Comment content is required")
	}
	if len(content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	if _, err := s.userRepo.GetByID(ctx, in.UserID); err != nil {
		return nil, models.NewValidationError("Comment author does not exist")
	}

	comment := models.Comment{
		Author:    in.UserID,
		Body:      models.CommentBody{Content: content},
		CreatedAt: time.Now().UTC(),
	}
	stored, err := s.postRepo.AddComment(ctx, in.PostID, comment)
	if err != nil {
		return nil, err
	}
	return stored.Serializable(in.UserID), nil
}

// ResolveAuthors maps the given user ids to profiles for client-side display
// of likes, forwards, and comment authors. Ids that no longer resolve map to
// nothing; the client renders those as an unknown user.
func (s *InteractionService) ResolveAuthors(ctx context.Context, ids []string) (map[string]*models.User, error) {
	stored, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	resolved := make(map[string]*models.User, len(stored))
	for id, u := range stored {
		resolved[id] = u.Serializable()
	}
	return resolved, nil
}
