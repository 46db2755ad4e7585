package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/websocket"

	"medaware/internal/dto"
	"medaware/internal/logger"
	"medaware/internal/model"
	"medaware/internal/service"
	ws "medaware/internal/service/websocket"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  64 << 10,
	WriteBufferSize: 64 << 10,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamHandler serves GET /ws. Each connection carries JSON envelopes:
// raw_frame events are processed on their own goroutine so the read loop never
// blocks, and missed / not_verified signals are recorded inline.
func StreamHandler(manager *service.Manager, hub *ws.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		client := ws.NewClient(connection, logger)
		hub.Register(client)
		defer hub.Unregister(client)
		go client.WritePump()

		send(client, logger, dto.EventSuccess, dto.Notice{Message: "connected successfully"})

		for {
			_, data, err := connection.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Client %s disconnected normally", client.ID)
				} else if !isClosed(client) {
					logger.Warning("Client %s disconnected with error: %v", client.ID, err)
				}
				return
			}

			var message dto.Message
			if err := json.Unmarshal(data, &message); err != nil {
				sendError(client, logger, "invalid message")
				continue
			}

			switch message.Type {
			case dto.EventRawFrame:
				var event dto.FrameEvent
				if err := json.Unmarshal(message.Data, &event); err != nil {
					sendError(client, logger, "invalid raw_frame payload")
					continue
				}
				go processFrame(manager, client, logger, event)

			case dto.EventMissed:
				handleSignal(manager, client, logger, model.StatusMissed, message.Data)

			case dto.EventNotVerified, dto.EventNotVerifiedAlt:
				handleSignal(manager, client, logger, model.StatusNotVerified, message.Data)

			default:
				sendError(client, logger, "unknown event type: "+message.Type)
			}
		}
	}
}

// processFrame runs one frame and writes its outputs. A client that went away
// in the meantime silently discards them.
func processFrame(manager *service.Manager, client *ws.Client, logger *logger.Logger, event dto.FrameEvent) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic while processing frame of user %d: %v\n%s", event.UserID, r, debug.Stack())
			sendError(client, logger, "internal error")
		}
	}()

	result, err := manager.ProcessFrame(context.Background(), event)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFrameDropped):
		case errors.Is(err, service.ErrUnknownUser):
			closeWithError(client, logger, "User not logged in")
		default:
			sendError(client, logger, err.Error())
		}
		return
	}

	if result.Skipped {
		return
	}

	if result.Verified != nil {
		message, err := dto.NewMessage(dto.EventVerified, result.Verified)
		if err != nil {
			logger.Error("Failed to marshal verified message: %v", err)
		} else if !client.SendReliable(message) {
			logger.Warning("Verified event for user %d reminder %d not delivered, client %s is gone",
				result.Verified.UserID, result.Verified.ReminderID, client.ID)
		}
	}
	for _, frameErr := range result.Errors {
		sendError(client, logger, frameErr.Error())
	}
	if result.Annotated != nil {
		send(client, logger, dto.EventAnnotatedFrame, dto.AnnotatedFrame{
			Frame:      result.Annotated,
			StableName: result.StableName,
		})
	}
}

func handleSignal(manager *service.Manager, client *ws.Client, logger *logger.Logger, status model.Status, data json.RawMessage) {
	var event dto.ReminderEvent
	if err := json.Unmarshal(data, &event); err != nil {
		sendError(client, logger, "invalid reminder payload")
		return
	}

	if err := manager.HandleSignal(status, event); err != nil {
		if errors.Is(err, service.ErrUnknownUser) {
			closeWithError(client, logger, "User not logged in")
			return
		}
		sendError(client, logger, err.Error())
	}
}

func send(client *ws.Client, logger *logger.Logger, eventType string, payload interface{}) {
	message, err := dto.NewMessage(eventType, payload)
	if err != nil {
		logger.Error("Failed to marshal %s message: %v", eventType, err)
		return
	}
	client.Send(message)
}

func sendError(client *ws.Client, logger *logger.Logger, text string) {
	send(client, logger, dto.EventError, dto.Notice{Message: text})
}

func closeWithError(client *ws.Client, logger *logger.Logger, text string) {
	message, err := dto.NewMessage(dto.EventError, dto.Notice{Message: text})
	if err != nil {
		logger.Error("Failed to marshal error message: %v", err)
		client.Close()
		return
	}
	client.SendAndClose(message)
}

func isClosed(client *ws.Client) bool {
	select {
	case <-client.Done():
		return true
	default:
		return false
	}
}
