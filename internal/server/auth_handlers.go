package server

import (
	"forum/internal/middleware"
	"forum/internal/models"
	"forum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Signup handles POST /api/auth/signup
// No account is created yet; a verification email is sent and the signup
// completes when the token is redeemed.
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("Invalid request body"))
	}

	if err := s.userService.Signup(c.UserContext(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}); err != nil {
		return fail(c, err)
	}

	return respondData(c, fiber.StatusAccepted, fiber.Map{
		"message": "Verification email sent",
	})
}

// Verify handles POST /api/auth/verify
func (s *Server) Verify(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("Invalid request body"))
	}
	if req.Token == "" {
		// The link in the email carries the token as a query parameter.
		req.Token = c.Query("token")
	}
	if req.Token == "" {
		return fail(c, models.NewValidationError("Verification token is required"))
	}

	session, err := s.userService.Verify(c.UserContext(), req.Token)
	if err != nil {
		return fail(c, err)
	}
	return respondData(c, fiber.StatusCreated, session)
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("Invalid request body"))
	}
	if req.Name == "" || req.Password == "" {
		return fail(c, models.NewValidationError("Username and password are required"))
	}

	session, err := s.userService.Authenticate(c.UserContext(), req.Name, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return respondData(c, fiber.StatusOK, session)
}

// GetMe handles GET /api/auth/me
func (s *Server) GetMe(c *fiber.Ctx) error {
	user, err := s.userService.GetUser(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return respondData(c, fiber.StatusOK, user)
}
