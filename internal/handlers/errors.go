package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/services"
)

// ErrorHandler renders every error as {"success": false, "message": ...}.
// Unexpected errors are logged and hidden behind a generic 500.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if !errors.As(err, &fe) {
			fe = fromServiceError(err)
		}
		if fe == nil {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			fe = fiber.NewError(fiber.StatusInternalServerError, "internal server error")
		}

		return c.Status(fe.Code).JSON(fiber.Map{
			"success": false,
			"message": fe.Message,
		})
	}
}

func fromServiceError(err error) *fiber.Error {
	switch {
	case errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrCouponNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.NewError(fiber.StatusNotFound, rootMessage(err))
	case errors.Is(err, services.ErrDuplicateReview),
		errors.Is(err, gorm.ErrDuplicatedKey):
		return fiber.NewError(fiber.StatusConflict, rootMessage(err))
	case errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrProductUnavailable),
		errors.Is(err, services.ErrInsufficientStock),
		errors.Is(err, services.ErrCouponMinimum),
		errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrAddressRequired),
		errors.Is(err, services.ErrOrderNotCancellable),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidRating):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

func rootMessage(err error) string {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "record not found"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "record already exists"
	}
	return err.Error()
}

func parseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+param)
	}
	return id, nil
}

func success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}
