package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dare4net/earnest-gaming-backend/internal/services"
)

type CatalogHandler struct {
	catalogService *services.CatalogService
}

func NewCatalogHandler(catalogService *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) ListGames(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalogService.Games())
}

func (h *CatalogHandler) GetGame(c *gin.Context) {
	game, err := h.catalogService.GameBySlug(c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

func (h *CatalogHandler) ListLeagues(c *gin.Context) {
	leagues, err := h.catalogService.Leagues(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, leagues)
}

func (h *CatalogHandler) GetLeague(c *gin.Context) {
	league, err := h.catalogService.League(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, league)
}
