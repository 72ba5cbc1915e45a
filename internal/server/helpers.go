package server

import (
	"errors"
	"strings"
	"unicode"

	"vidnest/internal/media"
	"vidnest/internal/middleware"
	"vidnest/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed page/limit query parameters. Clamping happens in the
// service layer so every entry point shares one policy.
type Pagination struct {
	Page  int
	Limit int
}

func parsePagination(c *fiber.Ctx) Pagination {
	return Pagination{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", 0),
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
// The error message is derived from the parameter name (e.g. "id" -> "Invalid ID",
// "channelId" -> "Invalid channel ID", "subscriberId" -> "Invalid subscriber ID").
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// fail writes err with the status derived from its code.
func fail(c *fiber.Ctx, err error) error {
	return models.RespondWithAppError(c, err)
}

func badRequest(c *fiber.Ctx, message string) error {
	return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(message))
}

// formFile returns the named multipart file. A missing file yields a zero File
// so services can decide whether it was optional.
func formFile(c *fiber.Ctx, field string) media.File {
	fh, err := c.FormFile(field)
	if err != nil || fh == nil {
		return media.File{}
	}
	return media.FromMultipart(fh)
}

// formFiles returns every file posted under field.
func formFiles(c *fiber.Ctx, field string) []media.File {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	headers := form.File[field]
	out := make([]media.File, 0, len(headers))
	for _, fh := range headers {
		out = append(out, media.FromMultipart(fh))
	}
	return out
}

// formValue reads a trimmed multipart or urlencoded field.
func formValue(c *fiber.Ctx, field string) string {
	return strings.TrimSpace(c.FormValue(field))
}

func viewerID(c *fiber.Ctx) uint {
	return middleware.ViewerID(c)
}
