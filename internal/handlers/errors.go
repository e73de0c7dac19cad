package handlers

import (
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dvms-arcade-backend/internal/engine"
)

// CodeInvalidRequest reports a request body or query that could not be bound.
const CodeInvalidRequest engine.Code = "INVALID_REQUEST"

var statusByCode = map[engine.Code]int{
	CodeInvalidRequest:              http.StatusBadRequest,
	engine.CodeInvalidConfiguration: http.StatusBadRequest,
	engine.CodeIndexOutOfRange:      http.StatusBadRequest,
	engine.CodeInvalidStake:         http.StatusBadRequest,
	engine.CodeInvalidRiskLevel:     http.StatusBadRequest,
	engine.CodeInsufficientBalance:  http.StatusPaymentRequired,
	engine.CodeInsufficientQuantity: http.StatusConflict,
	engine.CodeInvalidRoundState:    http.StatusConflict,
	engine.CodeNoActiveRound:        http.StatusConflict,
	engine.CodeNothingToCashOut:     http.StatusConflict,
	engine.CodeCellAlreadyRevealed:  http.StatusConflict,
	engine.CodeRateLimited:          http.StatusTooManyRequests,
	engine.CodeEmptyCatalog:         http.StatusServiceUnavailable,
	engine.CodeNoCardsInTier:        http.StatusServiceUnavailable,
	engine.CodeRandomSourceFailure:  http.StatusInternalServerError,
	engine.CodeStorageFailure:       http.StatusServiceUnavailable,
}

// StatusFor maps an error code to its HTTP status; unknown codes are 500.
func StatusFor(code engine.Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var gameErr *engine.Error
	if !errors.As(err, &gameErr) {
		logger.Error("unhandled error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
			"code":  "INTERNAL",
		})
		return
	}

	status := StatusFor(gameErr.Code)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("code", string(gameErr.Code)),
			zap.Error(err))
	}

	body := gin.H{
		"error": gameErr.Message,
		"code":  gameErr.Code,
	}
	if gameErr.Code == engine.CodeRateLimited {
		body["retry_after"] = math.Ceil(gameErr.RetryAfter.Seconds())
	}
	c.JSON(status, body)
}

func respondInvalid(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request",
		"code":    CodeInvalidRequest,
		"details": err.Error(),
	})
}
