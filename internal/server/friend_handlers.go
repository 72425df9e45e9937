package server

import (
	"github.com/gofiber/fiber/v2"
)

// SendFriendRequest handles POST /api/friends/requests/:userId
func (s *Server) SendFriendRequest(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return nil
	}
	targetUserID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	friendship, err := s.friends.SendFriendRequest(c.UserContext(), userID, targetUserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(friendship)
}

// GetPendingRequests handles GET /api/friends/requests
func (s *Server) GetPendingRequests(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return nil
	}

	requests, err := s.friends.GetPendingRequests(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(requests)
}

// GetSentRequests handles GET /api/friends/requests/sent
func (s *Server) GetSentRequests(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return nil
	}

	requests, err := s.friends.GetSentRequests(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(requests)
}

// AcceptFriendRequest handles POST /api/friends/requests/:requestId/accept
func (s *Server) AcceptFriendRequest(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return nil
	}
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	friendship, err := s.friends.AcceptFriendRequest(c.UserContext(), userID, requestID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(friendship)
}

// RejectFriendRequest handles POST /api/friends/requests/:requestId/reject
func (s *Server) RejectFriendRequest(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return nil
	}
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	friendship, err := s.friends.RejectFriendRequest(c.UserContext(), userID, requestID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(friendship)
}

// GetFriends handles GET /api/friends
func (s *Server) GetFriends(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return nil
	}

	friends, err := s.friends.GetFriends(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(friends)
}

// GetFriendshipStatus handles GET /api/friends/status/:userId
func (s *Server) GetFriendshipStatus(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return nil
	}
	targetUserID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	status, requestID, friendship, err := s.friends.GetFriendshipStatus(c.UserContext(), userID, targetUserID)
	if err != nil {
		return respondError(c, err)
	}

	resp := fiber.Map{"status": status}
	if requestID != 0 {
		resp["request_id"] = requestID
	}
	if friendship != nil {
		resp["friendship"] = friendship
	}
	return c.JSON(resp)
}

// RemoveFriend handles DELETE /api/friends/:userId
func (s *Server) RemoveFriend(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return nil
	}
	targetUserID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if _, err := s.friends.RemoveFriend(c.UserContext(), userID, targetUserID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
