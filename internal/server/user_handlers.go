package server

import (
	"forum/internal/middleware"
	"forum/internal/models"
	"forum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UpdateMyUsername handles PUT /api/users/me/username
// A fresh session token is returned because the old one carries the
// previous name.
func (s *Server) UpdateMyUsername(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("Invalid request body"))
	}

	session, err := s.userService.UpdateUsername(c.UserContext(), service.UpdateUsernameInput{
		UserID: middleware.CurrentUserID(c),
		Name:   req.Name,
	})
	if err != nil {
		return fail(c, err)
	}
	return respondData(c, fiber.StatusOK, session)
}

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseObjectID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetUser(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return respondData(c, fiber.StatusOK, user)
}

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	id, err := s.parseObjectID(c, "id")
	if err != nil {
		return nil
	}

	posts, err := s.postService.GetUserPosts(c.UserContext(), id, middleware.CurrentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return respondData(c, fiber.StatusOK, posts)
}

// ResolveAuthors handles POST /api/users/resolve
// Maps user ids to profiles for rendering likes, forwards, and comments.
func (s *Server) ResolveAuthors(c *fiber.Ctx) error {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("Invalid request body"))
	}

	resolved, err := s.interactionService.ResolveAuthors(c.UserContext(), req.IDs)
	if err != nil {
		return fail(c, err)
	}
	return respondData(c, fiber.StatusOK, resolved)
}
