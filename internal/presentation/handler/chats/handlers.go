package chats

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/walklabs/chat-service/internal/domain"
	"github.com/walklabs/chat-service/internal/infrastructure/events"
	"github.com/walklabs/chat-service/internal/infrastructure/json"
	"github.com/walklabs/chat-service/internal/infrastructure/ws"
	"github.com/walklabs/chat-service/internal/presentation/utils"
)

type Handler struct {
	chatRepository    domain.ChatRepository
	messageRepository domain.MessageRepository
	registry          *ws.Registry
	engine            *ws.Engine
	chatPublisher     *events.ChatPublisher
	upgrader          websocket.Upgrader
}

func NewHandler(
	chatRepository domain.ChatRepository,
	messageRepository domain.MessageRepository,
	registry *ws.Registry,
	engine *ws.Engine,
	chatPublisher *events.ChatPublisher,
) *Handler {
	return &Handler{
		chatRepository:    chatRepository,
		messageRepository: messageRepository,
		registry:          registry,
		engine:            engine,
		chatPublisher:     chatPublisher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // origin is enforced by the gateway
		},
	}
}

// GetMyChatsHandler godoc
// @Summary      List my chats
// @Description  Returns a page of the caller's chats, newest first.
// @Tags         chats
// @Produce      json
// @Param        offset query int false "Page offset"
// @Param        limit query int false "Page size"
// @Success      200 {array} chatResponse
// @Failure      401 {object} map[string]interface{} "Missing identity"
// @Failure      500 {object} map[string]interface{} "Internal server error"
// @Router       /chats/my [get]
func (h *Handler) GetMyChatsHandler(w http.ResponseWriter, r *http.Request) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		json.WriteError(w, http.StatusUnauthorized, errors.New("unauthorized"), "Missing or invalid identity")
		return
	}

	chats, err := h.chatRepository.GetForUser(r.Context(), userID, utils.GetPageFilter(r))
	if err != nil {
		log.Printf("Failed to list chats for user %s: %v", userID, err)
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, toChatResponses(chats))
}

// CreateChatHandler godoc
// @Summary      Create a chat
// @Description  Creates a chat between two users. The unordered pair is unique; a second call with the users swapped conflicts.
// @Tags         chats
// @Accept       json
// @Produce      json
// @Param        request body createChatRequest true "Participant pair"
// @Success      201 {object} chatResponse
// @Failure      400 {object} map[string]interface{} "Validation error"
// @Failure      409 {object} map[string]interface{} "Chat already exists for this pair"
// @Failure      500 {object} map[string]interface{} "Internal server error"
// @Router       /chats [post]
func (h *Handler) CreateChatHandler(w http.ResponseWriter, r *http.Request) {
	var req createChatRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	chat, err := domain.NewChat(req.User1ID, req.User2ID)
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	ctx := r.Context()
	if err := h.chatRepository.Create(ctx, chat); err != nil {
		switch {
		case errors.Is(err, domain.ErrChatAlreadyExists):
			json.WriteError(w, http.StatusConflict, err, "Chat already exists for this pair")
		default:
			log.Printf("Repository error creating chat %s: %v", chat.ID, err)
			json.WriteInternalError(w, err)
		}
		return
	}

	if h.chatPublisher != nil {
		if err := h.chatPublisher.PublishChatCreated(ctx, chat); err != nil {
			log.Printf("Error publishing chat created: %v", err)
		}
	}

	// Both participants see the new chat on their live "my chats" channels.
	_ = h.engine.NotifyNewChat(ctx, chat)

	json.Write(w, http.StatusCreated, toChatResponse(chat))
}

// GetChatMessagesHandler godoc
// @Summary      Read chat history
// @Description  Returns a page of messages for the chat, newest first. Only participants may read.
// @Tags         chats
// @Produce      json
// @Param        chatId path string true "Chat ID"
// @Param        offset query int false "Page offset"
// @Param        limit query int false "Page size"
// @Success      200 {array} messageResponse
// @Failure      401 {object} map[string]interface{} "Missing identity"
// @Failure      403 {object} map[string]interface{} "Not a participant"
// @Failure      404 {object} map[string]interface{} "Chat not found"
// @Failure      500 {object} map[string]interface{} "Internal server error"
// @Router       /chats/{chatId}/messages [get]
func (h *Handler) GetChatMessagesHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatId")
	if chatID == "" {
		json.WriteValidationError(w, errors.New("chat ID is missing"))
		return
	}

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		json.WriteError(w, http.StatusUnauthorized, errors.New("unauthorized"), "Missing or invalid identity")
		return
	}

	chat, err := h.getAuthorizedChat(w, r, chatID, userID)
	if err != nil {
		return
	}

	messages, err := h.messageRepository.GetByChatID(r.Context(), chat.ID, utils.GetPageFilter(r))
	if err != nil {
		log.Printf("Failed to read history for chat %s: %v", chatID, err)
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, toMessageResponses(messages))
}

// ChatSocketHandler godoc
// @Summary      Connect to a chat
// @Description  Upgrades to a websocket, replays recent history and then streams live messages. Text frames sent by the client become chat messages.
// @Tags         chats
// @Param        chatId path string true "Chat ID"
// @Success      101 "Switching protocols"
// @Failure      401 {object} map[string]interface{} "Missing identity"
// @Failure      403 {object} map[string]interface{} "Not a participant"
// @Failure      404 {object} map[string]interface{} "Chat not found"
// @Router       /chats/{chatId}/ws [get]
func (h *Handler) ChatSocketHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatId")
	if chatID == "" {
		json.WriteValidationError(w, errors.New("chat ID is missing"))
		return
	}

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		json.WriteError(w, http.StatusUnauthorized, errors.New("unauthorized"), "Missing or invalid identity")
		return
	}

	chat, err := h.getAuthorizedChat(w, r, chatID, userID)
	if err != nil {
		return
	}

	filter := utils.GetPageFilter(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed for chat %s: %v", chatID, err)
		return
	}

	client := ws.NewClient(conn, uuid.NewString(), userID, ws.ChatKey(chat.ID))

	// Registered before the history read so nothing sent during the replay
	// is lost; the client buffers and de-duplicates at the boundary.
	h.registry.Register(client.Key, client)
	go client.WriteLoop()

	if err := h.engine.ReplayHistory(r.Context(), chat.ID, client, filter); err != nil {
		_ = client.Send(ws.NewErrorFrame(chat.ID, "HISTORY_UNAVAILABLE", "history could not be loaded"))
	}

	client.ReadLoop(h.registry, h.engine)
}

// MyChatsSocketHandler godoc
// @Summary      Subscribe to my chats
// @Description  Upgrades to a websocket, sends the caller's current chats and then a frame for every chat created for them. The client sends no application frames.
// @Tags         chats
// @Success      101 "Switching protocols"
// @Failure      401 {object} map[string]interface{} "Missing identity"
// @Router       /chats/ws/my [get]
func (h *Handler) MyChatsSocketHandler(w http.ResponseWriter, r *http.Request) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		json.WriteError(w, http.StatusUnauthorized, errors.New("unauthorized"), "Missing or invalid identity")
		return
	}

	filter := utils.GetPageFilter(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed for user %s: %v", userID, err)
		return
	}

	client := ws.NewClient(conn, uuid.NewString(), userID, ws.UserKey(userID))

	h.registry.Register(client.Key, client)
	go client.WriteLoop()

	chats, err := h.chatRepository.GetForUser(r.Context(), userID, filter)
	if err != nil {
		log.Printf("Failed to list chats for user %s: %v", userID, err)
		_ = client.Send(ws.NewErrorFrame("", "CHATS_UNAVAILABLE", "chats could not be loaded"))
	}
	for i := range chats {
		_ = client.Send(ws.NewChatFrame(&chats[i]))
	}

	client.ReadLoop(h.registry, h.engine)
}

// getAuthorizedChat loads the chat and enforces the participant check,
// writing the error response itself when either fails.
func (h *Handler) getAuthorizedChat(w http.ResponseWriter, r *http.Request, chatID, userID string) (*domain.Chat, error) {
	chat, err := h.chatRepository.GetByID(r.Context(), chatID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrChatNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Chat not found")
		default:
			log.Printf("Failed to find chat %s: %v", chatID, err)
			json.WriteInternalError(w, err)
		}
		return nil, err
	}

	if !chat.HasParticipant(userID) {
		json.WriteError(w, http.StatusForbidden, domain.ErrChatAccessForbidden, "You are not a participant of this chat")
		return nil, domain.ErrChatAccessForbidden
	}

	return chat, nil
}
