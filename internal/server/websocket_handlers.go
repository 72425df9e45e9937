package server

import (
	"errors"

	"socialapp/internal/middleware"
	"socialapp/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler upgrades GET /api/ws and streams the caller's notifications.
func (s *Server) WebsocketHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(uint)
		if !ok || userID == 0 {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			reason := "unavailable"
			switch {
			case errors.Is(err, notifications.ErrUserLimit):
				reason = "too many connections"
			case errors.Is(err, notifications.ErrServerFull):
				reason = "server full"
			}
			middleware.Logger.Warn("websocket registration rejected", "user_id", userID, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+reason+`"}`))
			_ = conn.Close()
			return
		}

		middleware.Logger.Debug("websocket connected", "user_id", userID)
		go client.WritePump()
		client.ReadPump()
		middleware.Logger.Debug("websocket disconnected", "user_id", userID)
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return upgrade(c)
	}
}
