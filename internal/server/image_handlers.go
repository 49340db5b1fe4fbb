package server

import (
	"io"

	"forum/internal/models"

	"github.com/gofiber/fiber/v2"
)

// UploadImage handles POST /api/images
// Accepts a multipart form with an "image" file field and returns the URL
// path the stored file is served from.
func (s *Server) UploadImage(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return fail(c, models.NewValidationError("An image file is required"))
	}
	if fileHeader.Size > s.imageService.MaxBytes() {
		return fail(c, models.NewValidationError("Image exceeds the maximum upload size"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fail(c, models.NewInternalError(err))
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.imageService.MaxBytes()+1))
	if err != nil {
		return fail(c, models.NewInternalError(err))
	}

	url, err := s.imageService.Save(c.UserContext(), data)
	if err != nil {
		return fail(c, err)
	}
	return respondData(c, fiber.StatusCreated, fiber.Map{"url": url})
}
