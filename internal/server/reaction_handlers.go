package server

import (
	"socialapp/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ReactionRequest is the body of a reaction toggle.
type ReactionRequest struct {
	ReactionType string `json:"reaction_type"`
}

func parseReactionRequest(c *fiber.Ctx) (string, error) {
	var req ReactionRequest
	if err := c.BodyParser(&req); err != nil {
		return "", writeBadRequest(c, models.NewValidationError("Invalid request body"))
	}
	return req.ReactionType, nil
}

// ReactToPost godoc
// @Summary Toggle a reaction on a post
// @Description Adds the reaction, switches to it, or removes it when it is already set.
// @Tags reactions
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body ReactionRequest true "Reaction"
// @Success 200 {object} service.ReactionResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/reactions [post]
// @Security BearerAuth
func (s *Server) ReactToPost(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return nil
	}
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	rawType, err := parseReactionRequest(c)
	if err != nil {
		return nil
	}

	result, err := s.postReactions.AddOrUpdateReaction(c.UserContext(), postID, userID, rawType)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// RemovePostReaction godoc
// @Summary Remove the caller's reaction from a post
// @Tags reactions
// @Param id path int true "Post ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/reactions [delete]
// @Security BearerAuth
func (s *Server) RemovePostReaction(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return nil
	}
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postReactions.RemoveReaction(c.UserContext(), postID, userID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetPostReactionCounts godoc
// @Summary Reaction counts for a post
// @Tags reactions
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} service.ReactionCounts
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/reactions/counts [get]
func (s *Server) GetPostReactionCounts(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	counts, err := s.postReactions.GetReactionCounts(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(counts)
}

// GetMyPostReaction handles GET /api/posts/:id/reactions/me
func (s *Server) GetMyPostReaction(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return nil
	}
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	current, err := s.postReactions.GetUserReaction(c.UserContext(), postID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(myReaction(current))
}

// ReactToComment godoc
// @Summary Toggle a LIKE or DISLIKE on a comment
// @Tags reactions
// @Accept json
// @Produce json
// @Param id path int true "Comment ID"
// @Param request body ReactionRequest true "Reaction"
// @Success 200 {object} service.ReactionResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id}/reactions [post]
// @Security BearerAuth
func (s *Server) ReactToComment(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	rawType, err := parseReactionRequest(c)
	if err != nil {
		return nil
	}

	result, err := s.commentReactions.AddOrUpdateReaction(c.UserContext(), commentID, userID, rawType)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// RemoveCommentReaction handles DELETE /api/comments/:id/reactions
func (s *Server) RemoveCommentReaction(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.commentReactions.RemoveReaction(c.UserContext(), commentID, userID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetCommentReactionCounts handles GET /api/comments/:id/reactions/counts
func (s *Server) GetCommentReactionCounts(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	counts, err := s.commentReactions.GetReactionCounts(c.UserContext(), commentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(counts)
}

// GetMyCommentReaction handles GET /api/comments/:id/reactions/me
func (s *Server) GetMyCommentReaction(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	current, err := s.commentReactions.GetUserReaction(c.UserContext(), commentID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(myReaction(current))
}

// myReaction renders "no reaction" as a JSON null.
func myReaction(current string) fiber.Map {
	if current == "" {
		return fiber.Map{"reaction_type": nil}
	}
	return fiber.Map{"reaction_type": current}
}
