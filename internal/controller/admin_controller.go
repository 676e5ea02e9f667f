package controller

import (
	"strconv"

	"multimodal-rag-be/internal/entity"
	"multimodal-rag-be/internal/pkg/serverutils"
	"multimodal-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	ListFiles(ctx *fiber.Ctx) error
	GetLogs(ctx *fiber.Ctx) error
	GetLogDetail(ctx *fiber.Ctx) error
}

type adminController struct {
	service     service.IAdminService
	fileService service.IFileService
}

func NewAdminController(service service.IAdminService, fileService service.IFileService) IAdminController {
	return &adminController{
		service:     service,
		fileService: fileService,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1")
	h.Use(serverutils.JwtMiddleware, serverutils.AdminOnly)

	// Knowledge base
	h.Post("/upload", c.Upload)
	h.Get("/files", c.ListFiles)

	// Logs
	h.Get("/logs", c.GetLogs)
	h.Get("/logs/:id", c.GetLogDetail)
}

// Upload ingests into the global collection.
func (c *adminController) Upload(ctx *fiber.Ctx) error {
	req, err := uploadRequest(ctx)
	if err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.fileService.Upload(ctx.Context(), serverutils.CallerFrom(ctx), entity.UploaderRoleAdmin, req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse(res.Message, res))
}

func (c *adminController) ListFiles(ctx *fiber.Ctx) error {
	res, err := c.fileService.ListFiles(ctx.Context(), serverutils.CallerFrom(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get files", res))
}

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	limit, _ := strconv.Atoi(ctx.Query("limit", "10"))
	level := utils.CopyString(ctx.Query("level", ""))

	logs, err := c.service.GetSystemLogs(ctx.Context(), page, limit, level)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("System logs", logs))
}

func (c *adminController) GetLogDetail(ctx *fiber.Ctx) error {
	logId := utils.CopyString(ctx.Params("id")) // MD5 of the log line, not a UUID

	res, err := c.service.GetLogDetail(ctx.Context(), logId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Log detail", res))
}
