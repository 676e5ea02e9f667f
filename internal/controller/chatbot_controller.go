package controller

import (
	"multimodal-rag-be/internal/dto"
	"multimodal-rag-be/internal/pkg/serverutils"
	"multimodal-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

type IChatbotController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	ListSessions(ctx *fiber.Ctx) error
	SendChat(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
}

type chatbotController struct {
	service service.IChatbotService
}

func NewChatbotController(service service.IChatbotService) IChatbotController {
	return &chatbotController{service: service}
}

func (c *chatbotController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chatbot/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/sessions", c.CreateSession)
	h.Get("/sessions", c.ListSessions)
	h.Delete("/sessions/:id", c.DeleteSession)
	h.Post("/chat", c.SendChat)
}

func (c *chatbotController) CreateSession(ctx *fiber.Ctx) error {
	res, err := c.service.CreateSession(ctx.Context(), serverutils.CallerFrom(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session created", res))
}

func (c *chatbotController) ListSessions(ctx *fiber.Ctx) error {
	res, err := c.service.ListSessions(ctx.Context(), serverutils.CallerFrom(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get sessions", res))
}

// SendChat accepts a multipart form so an image can ride along. Form
// values are copied out of the request buffer because they end up in
// cached session state.
func (c *chatbotController) SendChat(ctx *fiber.Ctx) error {
	req := dto.SendChatRequest{
		SessionID: dto.NormalizeSessionRef(utils.CopyString(ctx.FormValue("session_id"))),
		Message:   utils.CopyString(ctx.FormValue("message")),
		RAGMode:   utils.CopyString(ctx.FormValue("rag_mode", dto.RAGModeNone)),
	}

	if fh, err := ctx.FormFile("image"); err == nil {
		img, err := readFormFile(fh)
		if err != nil {
			return err
		}
		req.Image = img
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendChat(ctx.Context(), serverutils.CallerFrom(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send chat", res))
}

func (c *chatbotController) DeleteSession(ctx *fiber.Ctx) error {
	if err := c.service.DeleteSession(ctx.Context(), serverutils.CallerFrom(ctx), utils.CopyString(ctx.Params("id"))); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Session deleted", nil))
}
