package app

import (
	"net/http"

	"farmconnect/internal/messaging/domain"
	"farmconnect/internal/messaging/repository"
	userdomain "farmconnect/internal/user/domain"
	userrepo "farmconnect/internal/user/repository"
	"farmconnect/pkg/errs"
	"farmconnect/pkg/logger"
	"farmconnect/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// MessagingHTTPHandler messaging REST handler
type MessagingHTTPHandler struct {
	messagingUC *MessagingUseCase
	users       userrepo.UserRepository
	attachments repository.AttachmentRepository
}

// NewMessagingHTTPHandler create MessagingHTTPHandler; attachments 可為 nil (未配置物件儲存)
func NewMessagingHTTPHandler(messagingUC *MessagingUseCase, users userrepo.UserRepository, attachments repository.AttachmentRepository) *MessagingHTTPHandler {
	return &MessagingHTTPHandler{
		messagingUC: messagingUC,
		users:       users,
		attachments: attachments,
	}
}

type createConversationReq struct {
	RecipientID string `json:"recipient_id"`
	ListingID   string `json:"listing_id"`
}

type sendMessageReq struct {
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
	ListingID   string `json:"listing_id"`
	ImageURL    string `json:"image_url"`
}

func requesterID(c *fiber.Ctx) string {
	userID, _ := c.Locals(middlewares.TokenUserID).(string)
	return userID
}

func errJSON(c *fiber.Ctx, err error) error {
	return c.Status(errs.HTTPStatus(err)).JSON(fiber.Map{"error": err.Error()})
}

// CreateConversation godoc
// @Summary Get or create a conversation with another user
// @Description Returns the existing conversation between the two users or creates a new one
// @Tags Messaging
// @Accept json
// @Produce json
// @Param request body createConversationReq true "recipient and optional listing"
// @Success 200 {object} domain.Conversation
// @Failure 400 {object} string "Bad Request"
// @Failure 500 {object} string "Internal Server Error"
// @Router /conversations [post]
func (h *MessagingHTTPHandler) CreateConversation(c *fiber.Ctx) error {
	var req createConversationReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	conv, err := h.messagingUC.GetOrCreateConversation(c.UserContext(), requesterID(c), req.RecipientID, req.ListingID)
	if err != nil {
		return errJSON(c, err)
	}
	return c.JSON(conv)
}

// ListConversations godoc
// @Summary List the requester's conversations
// @Description Conversations ordered by most recent activity, with per-user unread counts
// @Tags Messaging
// @Produce json
// @Success 200 {array} domain.Conversation
// @Failure 500 {object} string "Internal Server Error"
// @Router /conversations [get]
func (h *MessagingHTTPHandler) ListConversations(c *fiber.Ctx) error {
	convs, err := h.messagingUC.ListConversations(c.UserContext(), requesterID(c))
	if err != nil {
		return errJSON(c, err)
	}
	return c.JSON(convs)
}

// ListMessages godoc
// @Summary List messages of a conversation
// @Description Messages in chronological order; fetching marks them read for the requester
// @Tags Messaging
// @Produce json
// @Param id path string true "Conversation ID"
// @Param limit query int false "Max messages to return"
// @Success 200 {array} domain.Message
// @Failure 403 {object} string "Forbidden"
// @Failure 404 {object} string "Not Found"
// @Router /conversations/{id}/messages [get]
func (h *MessagingHTTPHandler) ListMessages(c *fiber.Ctx) error {
	limit := int64(c.QueryInt("limit"))
	msgs, err := h.messagingUC.ListMessages(c.UserContext(), requesterID(c), c.Params("id"), limit)
	if err != nil {
		return errJSON(c, err)
	}
	return c.JSON(msgs)
}

// SendMessage godoc
// @Summary Send a message into a conversation
// @Tags Messaging
// @Accept json
// @Produce json
// @Param id path string true "Conversation ID"
// @Param request body sendMessageReq true "message content"
// @Success 200 {object} domain.Message
// @Failure 400 {object} string "Bad Request"
// @Failure 403 {object} string "Forbidden"
// @Failure 404 {object} string "Not Found"
// @Router /conversations/{id}/messages [post]
func (h *MessagingHTTPHandler) SendMessage(c *fiber.Ctx) error {
	var req sendMessageReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	msg, err := h.messagingUC.SendMessage(c.UserContext(), requesterID(c), c.Params("id"),
		req.Content, domain.MessageType(req.MessageType), req.ListingID, req.ImageURL)
	if err != nil {
		return errJSON(c, err)
	}
	return c.JSON(msg)
}

// MarkRead godoc
// @Summary Mark all messages of a conversation as read
// @Tags Messaging
// @Produce json
// @Param id path string true "Conversation ID"
// @Success 200 {object} map[string]bool
// @Failure 403 {object} string "Forbidden"
// @Failure 404 {object} string "Not Found"
// @Router /conversations/{id}/read [post]
func (h *MessagingHTTPHandler) MarkRead(c *fiber.Ctx) error {
	if err := h.messagingUC.MarkRead(c.UserContext(), requesterID(c), c.Params("id")); err != nil {
		return errJSON(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// FindUser godoc
// @Summary Find a user to start a conversation with
// @Tags Messaging
// @Produce json
// @Param user_id query string false "User ID"
// @Param email query string false "Email"
// @Success 200 {object} userdomain.User
// @Failure 404 {object} string "Not Found"
// @Router /users/find [get]
func (h *MessagingHTTPHandler) FindUser(c *fiber.Ctx) error {
	query := &userdomain.UserQuery{}
	if userID := c.Query("user_id"); userID != "" {
		query.UserID = &userID
	}
	if email := c.Query("email"); email != "" {
		query.Email = &email
	}
	if query.UserID == nil && query.Email == nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "user_id or email is required"})
	}

	user, err := h.users.FindByUser(c.UserContext(), query)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}
	return c.JSON(user)
}

// UploadAttachment godoc
// @Summary Upload an image attachment
// @Description Stores the image and returns the URL to embed in an image message
// @Tags Messaging
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image File"
// @Success 200 {object} map[string]string
// @Failure 400 {object} string "Bad Request"
// @Failure 500 {object} string "Internal Server Error"
// @Router /attachments [post]
func (h *MessagingHTTPHandler) UploadAttachment(c *fiber.Ctx) error {
	if h.attachments == nil {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"error": "attachment storage not configured"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Missing file"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Log.Errorf("Open file failed", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to open file"})
	}
	defer file.Close()

	url, err := h.attachments.UploadImage(c.UserContext(), fileHeader.Filename, file,
		fileHeader.Size, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		logger.Log.Errorf("attachment upload failed", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store attachment"})
	}
	return c.JSON(fiber.Map{"image_url": url})
}
