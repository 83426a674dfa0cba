package server

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/utils"

	"lifsheet/internal/lif"
	"lifsheet/internal/source"
	"lifsheet/internal/timesheet"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	var (
		fe   *fiber.Error
		perr *lif.ParseError
		lerr *timesheet.LayoutError
	)
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, source.ErrNotFound):
		return fiber.StatusNotFound
	case errors.As(err, &perr), errors.As(err, &lerr):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := errorStatus(err)
	if code >= 500 {
		log.Errorf("%s %s: %v", c.Method(), c.Path(), err)
	} else {
		log.Debugf("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(errorBody{Error: statusText(code), Message: err.Error()})
}

func statusText(code int) string {
	if s := utils.StatusMessage(code); s != "" {
		return s
	}
	return strconv.Itoa(code)
}
