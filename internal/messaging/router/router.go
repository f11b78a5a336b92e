package router

import (
	"context"
	"strconv"

	"farmconnect/internal/messaging/app"
	"farmconnect/pkg/logger"
	"farmconnect/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes 注册 messaging 相关的路由
// @title FarmConnect Messaging API
// @version 1.0
// @description Real-time messaging between buyers and farmers
// @host localhost:8086
// @BasePath /
func RegisterRoutes(
	r *fiber.App,
	httpHandler *app.MessagingHTTPHandler,
	wsHandler *app.MessagingWebsocketHandler,
) {
	r.Get("/swagger/*", swagger.HandlerDefault)
	r.Get("/", connectCheck)
	r.Post("/debug", debugLogFlag)

	r.Use(middlewares.JWTMiddleware())

	r.Post("/conversations", httpHandler.CreateConversation)
	r.Get("/conversations", httpHandler.ListConversations)
	r.Get("/conversations/:id/messages", httpHandler.ListMessages)
	r.Post("/conversations/:id/messages", httpHandler.SendMessage)
	r.Post("/conversations/:id/read", httpHandler.MarkRead)
	r.Post("/attachments", httpHandler.UploadAttachment)
	r.Get("/users/find", httpHandler.FindUser)

	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHandler.HandleConnection(context.Background(), c)
	}))
}

// connectCheck check messaging service start
// @Summary Check messaging service status
// @Tags Shared
// @Success 200 {string} string "messaging service start!"
// @Router / [get]
func connectCheck(c *fiber.Ctx) error {
	return c.SendString("messaging service start!")
}

// debugLogFlag toggle debug log flag
// @Summary Toggle Debug Log Flag
// @Tags Shared
// @Param status query bool true "Debug status"
// @Success 200 {string} string "debug mode updated"
// @Failure 400 {string} string "Invalid status value"
// @Router /debug [post]
func debugLogFlag(c *fiber.Ctx) error {
	status, err := strconv.ParseBool(c.Query("status"))
	if err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	logger.Log.SetDebugMode(status)
	return c.SendString("debug mode is : " + strconv.FormatBool(status))
}
