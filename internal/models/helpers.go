package models

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

func GenerateMatchID() string {
	return uuid.New().String()
}

func GenerateTransactionID() string {
	return uuid.New().String()
}

// GenerateTransactionReference returns a globally unique reference used
// as the idempotency key for financial reconciliation.
func GenerateTransactionReference() string {
	return fmt.Sprintf("TX-%d-%d", time.Now().UnixMilli(), uuid.New().ID())
}

// ComputeEscrow derives the stake figures at match creation. It is never
// recomputed later; settlement reads these numbers as the contract.
func ComputeEscrow(entryFee int64, feeRate float64) Escrow {
	platformFee := int64(math.Round(float64(entryFee) * feeRate))
	return Escrow{
		TotalAmount:  entryFee * 2,
		PlatformFee:  platformFee,
		WinnerPayout: entryFee*2 - platformFee,
	}
}

func FormatCurrency(kobo int64) string {
	return fmt.Sprintf("₦%.2f", float64(kobo)/100)
}
