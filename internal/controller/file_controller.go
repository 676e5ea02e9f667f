package controller

import (
	"multimodal-rag-be/internal/entity"
	"multimodal-rag-be/internal/pkg/serverutils"
	"multimodal-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IFileController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	ListFiles(ctx *fiber.Ctx) error
}

type fileController struct {
	service service.IFileService
}

func NewFileController(service service.IFileService) IFileController {
	return &fileController{service: service}
}

func (c *fileController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/file/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.ListFiles)
	h.Post("/upload", c.Upload)
}

func (c *fileController) Upload(ctx *fiber.Ctx) error {
	req, err := uploadRequest(ctx)
	if err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Upload(ctx.Context(), serverutils.CallerFrom(ctx), entity.UploaderRoleUser, req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse(res.Message, res))
}

func (c *fileController) ListFiles(ctx *fiber.Ctx) error {
	caller := serverutils.CallerFrom(ctx)
	// Admin visibility is only granted on the admin route.
	caller.IsAdmin = false

	res, err := c.service.ListFiles(ctx.Context(), caller)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get files", res))
}
