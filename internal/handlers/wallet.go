package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dare4net/earnest-gaming-backend/internal/models"
	"github.com/dare4net/earnest-gaming-backend/internal/services"
)

type WalletHandler struct {
	walletService *services.WalletService
}

func NewWalletHandler(walletService *services.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// authorize restricts wallet access to its owner or an administrator.
func authorize(c *gin.Context, ownerID string) bool {
	if c.GetString("user_id") == ownerID || c.GetString("role") == services.RoleAdmin {
		return true
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "Cannot access another user's wallet"})
	return false
}

func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID := c.Param("userId")
	if !authorize(c, userID) {
		return
	}

	wallet, err := h.walletService.GetOrCreate(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, wallet)
}

func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID := c.Param("userId")
	if !authorize(c, userID) {
		return
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)

	transactions, err := h.walletService.Transactions(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, transactions)
}

// CreateTransaction handles explicit deposit and withdrawal commands.
// All other ledger movement happens as a side effect of match
// transitions, never through this endpoint.
func (h *WalletHandler) CreateTransaction(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var tx *models.Transaction
	var err error
	switch models.TransactionType(req.Type) {
	case models.TransactionTypeDeposit:
		tx, err = h.walletService.Deposit(c.Request.Context(), userID, req.Amount, req.Description)
	case models.TransactionTypeWithdrawal:
		tx, err = h.walletService.Withdraw(c.Request.Context(), userID, req.Amount, req.Description)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only deposit and withdrawal commands are accepted"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tx)
}
