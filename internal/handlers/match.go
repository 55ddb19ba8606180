package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dare4net/earnest-gaming-backend/internal/models"
	"github.com/dare4net/earnest-gaming-backend/internal/services"
)

type MatchHandler struct {
	matchService *services.MatchService
}

func NewMatchHandler(matchService *services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

func (h *MatchHandler) ListMatches(c *gin.Context) {
	matches, err := h.matchService.All(c.Request.Context(), 100)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, matches)
}

func (h *MatchHandler) GetMatch(c *gin.Context) {
	match, err := h.matchService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"match":     match,
		"lifecycle": match.LifecycleLabel(),
	})
}

func (h *MatchHandler) GetUserMatches(c *gin.Context) {
	matches, err := h.matchService.UserMatches(c.Request.Context(), c.Param("userId"), 100)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, matches)
}

func (h *MatchHandler) GetUserActiveMatches(c *gin.Context) {
	matches, err := h.matchService.ActiveUserMatches(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, matches)
}

func (h *MatchHandler) CreateMatch(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	match, err := h.matchService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"action": "created",
		"match":  match,
	})
}

func (h *MatchHandler) SearchOpponents(c *gin.Context) {
	userID := c.GetString("user_id")

	opponents, err := h.matchService.SearchOpponents(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"match_id":            c.Param("id"),
		"potential_opponents": opponents,
	})
}

func (h *MatchHandler) Invite(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	match, err := h.matchService.Invite(c.Request.Context(), userID, c.Param("id"), req.PlayerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"action": "invited",
		"match":  match,
	})
}

func (h *MatchHandler) Join(c *gin.Context) {
	userID := c.GetString("user_id")

	match, err := h.matchService.Join(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"action": "joined",
		"match":  match,
	})
}

func (h *MatchHandler) MatchWithPlayer(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.MatchWithPlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	match, err := h.matchService.MatchWithPlayer(c.Request.Context(), userID, c.Param("id"), req.PlayerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"action": "matched_with_player",
		"match":  match,
	})
}

func (h *MatchHandler) Decline(c *gin.Context) {
	userID := c.GetString("user_id")

	match, err := h.matchService.Decline(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"action": "declined",
		"match":  match,
	})
}

func (h *MatchHandler) DeleteMatch(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := h.matchService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Match deleted successfully"})
}

func (h *MatchHandler) Cancel(c *gin.Context) {
	userID := c.GetString("user_id")

	match, err := h.matchService.Cancel(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"action": "cancelled",
		"match":  match,
	})
}

func (h *MatchHandler) Start(c *gin.Context) {
	userID := c.GetString("user_id")

	match, err := h.matchService.Start(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"action": "started",
		"match":  match,
	})
}

func (h *MatchHandler) End(c *gin.Context) {
	userID := c.GetString("user_id")

	match, err := h.matchService.End(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"action": "ended",
		"match":  match,
	})
}

func (h *MatchHandler) SubmitScreenshot(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.ScreenshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	match, err := h.matchService.SubmitScreenshot(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, match)
}

func (h *MatchHandler) Adjudicate(c *gin.Context) {
	userID := c.GetString("user_id")
	role := c.GetString("role")

	var req models.AdjudicateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	match, err := h.matchService.Adjudicate(c.Request.Context(), userID, role, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"action": "adjudicated",
		"match":  match,
	})
}

func (h *MatchHandler) RaiseDispute(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.DisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	match, err := h.matchService.RaiseDispute(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"action": "dispute_raised",
		"match":  match,
	})
}

func (h *MatchHandler) ResolveDispute(c *gin.Context) {
	userID := c.GetString("user_id")
	role := c.GetString("role")

	var req models.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	match, err := h.matchService.ResolveDispute(c.Request.Context(), userID, role, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"action": "dispute_resolved",
		"match":  match,
	})
}

func (h *MatchHandler) PostChat(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	match, err := h.matchService.Chat(c.Request.Context(), userID, c.Param("id"), req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat": match.Chat})
}
