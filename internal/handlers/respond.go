package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dare4net/earnest-gaming-backend/internal/services"
)

// statusFor maps the service error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrMatchNotOpen),
		errors.Is(err, services.ErrMatchFull),
		errors.Is(err, services.ErrSelfJoin),
		errors.Is(err, services.ErrSelfInvite),
		errors.Is(err, services.ErrInsufficientFunds),
		errors.Is(err, services.ErrInvalidGame),
		errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrWindowExpired),
		errors.Is(err, services.ErrWalletFrozen),
		errors.Is(err, services.ErrWithdrawalLimit):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
