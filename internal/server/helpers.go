package server

import (
	"errors"

	"forum/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// successResponse is the uniform success envelope returned by every endpoint.
type successResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// respondData writes the uniform success envelope.
func respondData(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(successResponse{Success: true, Data: data})
}

// fail maps the error to its status and writes the uniform failure envelope.
func fail(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusForError(err), err)
}

// parseObjectID extracts a route parameter that must be a document id.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseObjectID(c *fiber.Ctx, param string) (string, error) {
	id := c.Params(param)
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+param))
		return "", errResponseWritten
	}
	return id, nil
}
