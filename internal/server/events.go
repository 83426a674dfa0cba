package server

import (
	"fmt"
	"image/png"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"lifsheet/internal/discrepancy"
	"lifsheet/internal/model"
	"lifsheet/internal/report"
	"lifsheet/internal/results"
	"lifsheet/internal/source"
)

type EventsAPI struct {
	Router  fiber.Router
	Dir     *source.Dir
	Builder *report.Builder
}

type eventResponse struct {
	File        string                   `json:"file"`
	Event       model.EventInfo          `json:"event"`
	Columns     []string                 `json:"columns"`
	Rows        [][]string               `json:"rows"`
	Competitors []model.CompetitorRecord `json:"competitors"`
	Flags       []discrepancy.Flag       `json:"flags"`
	Pages       int                      `json:"pages"`
	ReportID    string                   `json:"report_id"`
}

func (api *EventsAPI) Register() {
	api.Router.Get("/files", func(c *fiber.Ctx) error {
		files, err := api.Dir.Matching(c.UserContext(), c.Query("filter"))
		if err != nil {
			return err
		}
		if files == nil {
			files = []source.File{}
		}
		return c.JSON(files)
	})

	// Sorted results table for one file: ?sort=<column index or title>&order=asc|desc
	api.Router.Get("/events/:name", func(c *fiber.Ctx) error {
		r, err := api.build(c)
		if err != nil {
			return err
		}
		column := 0
		if s := c.Query("sort"); s != "" {
			if column = results.ParseColumn(s); column < 0 {
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown sort column %q", s))
			}
		}
		ascending := true
		switch c.Query("order", "asc") {
		case "asc":
		case "desc":
			ascending = false
		default:
			return fiber.NewError(fiber.StatusBadRequest, "order must be asc or desc")
		}

		sorted := results.Sorted(r.Race.Competitors, column, ascending)
		flags := r.Flags()
		if flags == nil {
			flags = []discrepancy.Flag{}
		}
		return c.JSON(eventResponse{
			File:        r.Source,
			Event:       r.Race.Event,
			Columns:     results.Columns,
			Rows:        results.FormatRows(sorted),
			Competitors: sorted,
			Flags:       flags,
			Pages:       r.PageCount(),
			ReportID:    r.ID.String(),
		})
	})

	api.Router.Get("/events/:name/report.pdf", func(c *fiber.Ctx) error {
		r, err := api.build(c)
		if err != nil {
			return err
		}
		c.Type("pdf")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", r.FileName()))
		return c.Send(r.PDF)
	})

	api.Router.Get("/events/:name/pages/:page.png", func(c *fiber.Ctx) error {
		page, err := strconv.Atoi(c.Params("page"))
		if err != nil || page < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "page must be a positive number")
		}
		r, err := api.build(c)
		if err != nil {
			return err
		}
		if page > r.PageCount() {
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("report has %d page(s)", r.PageCount()))
		}
		raster, err := r.RenderPage(page - 1)
		if err != nil {
			return err
		}
		c.Type("png")
		return png.Encode(c.Response().BodyWriter(), raster.Image(0))
	})
}

func (api *EventsAPI) build(c *fiber.Ctx) (*report.Report, error) {
	f, err := api.Dir.Find(c.Params("name"))
	if err != nil {
		return nil, err
	}
	raw, err := api.Dir.Read(c.UserContext(), f)
	if err != nil {
		return nil, err
	}
	return api.Builder.FromBytes(raw, f.Name)
}
