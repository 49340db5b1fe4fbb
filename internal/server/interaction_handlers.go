package server

import (
	"forum/internal/middleware"
	"forum/internal/models"
	"forum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// LikePost handles POST /api/posts/:id/like
// The operation is a toggle: liking an already-liked post removes the like.
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := s.parseObjectID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.interactionService.ToggleLike(c.UserContext(), id, middleware.CurrentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return respondData(c, fiber.StatusOK, result)
}

// ForwardPost handles POST /api/posts/:id/forward
func (s *Server) ForwardPost(c *fiber.Ctx) error {
	id, err := s.parseObjectID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.interactionService.ToggleForward(c.UserContext(), id, middleware.CurrentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return respondData(c, fiber.StatusOK, result)
}

// GetComments handles GET /api/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	id, err := s.parseObjectID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), id, middleware.CurrentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return respondData(c, fiber.StatusOK, post.Interactions.Comments)
}

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	id, err := s.parseObjectID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("Invalid request body"))
	}

	post, err := s.interactionService.AddComment(c.UserContext(), service.AddCommentInput{
		UserID:  middleware.CurrentUserID(c),
		PostID:  id,
		Content: req.Content,
	})
	if err != nil {
		return fail(c, err)
	}
	return respondData(c, fiber.StatusCreated, post)
}
