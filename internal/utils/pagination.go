package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const maxLimit = 100

// Pagination holds pagination parameters.
type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePagination reads page and limit query params with sane defaults.
func ParsePagination(c *fiber.Ctx) Pagination {
	page := parseInt(c.Query("page", "1"), 1)
	limit := parseInt(c.Query("limit", "20"), 20)
	if limit <= 0 {
		limit = 20
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if page <= 0 {
		page = 1
	}

	return Pagination{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// Meta renders the pagination block of a list response.
func (p Pagination) Meta(total int64) fiber.Map {
	pages := int64(0)
	if p.Limit > 0 {
		pages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return fiber.Map{
		"current_page":   p.Page,
		"items_per_page": p.Limit,
		"total_items":    total,
		"total_pages":    pages,
	}
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return fallback
}
