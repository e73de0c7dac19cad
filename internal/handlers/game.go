package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dvms-arcade-backend/internal/middleware"
	"dvms-arcade-backend/internal/models"
	"dvms-arcade-backend/internal/services"
)

type GameHandler struct {
	games  *services.GameService
	logger *zap.Logger
}

func NewGameHandler(games *services.GameService, logger *zap.Logger) *GameHandler {
	return &GameHandler{
		games:  games,
		logger: logger,
	}
}

func (h *GameHandler) StartMines(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	var req models.StartMinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	round, err := h.games.StartMines(c.Request.Context(), userID, req.BetAmount, req.Mines)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"round":   round,
	})
}

func (h *GameHandler) RevealMine(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	var req models.MinesRevealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	result, err := h.games.RevealMine(c.Request.Context(), userID, *req.Position)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

func (h *GameHandler) CashoutMines(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	round, err := h.games.CashOutMines(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"round":   round,
	})
}

func (h *GameHandler) ResetMines(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	round, err := h.games.ResetMines(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"round":   round,
	})
}

func (h *GameHandler) GetMinesState(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	round, err := h.games.MinesState(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"round":   round,
	})
}

func (h *GameHandler) GetPayouts(c *gin.Context) {
	mines, err := strconv.Atoi(c.Query("mines"))
	if err != nil {
		respondInvalid(c, err)
		return
	}

	curve, err := h.games.PayoutCurve(mines)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, curve)
}

func (h *GameHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.games.Config())
}

func (h *GameHandler) GetBalance(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	balance, err := h.games.Balance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"balance": balance,
	})
}

func (h *GameHandler) GetGameHistory(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	limit, err := queryLimit(c)
	if err != nil {
		respondInvalid(c, err)
		return
	}

	rounds, err := h.games.History(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"games":   rounds,
		"count":   len(rounds),
	})
}

func (h *GameHandler) GetTransactions(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	limit, err := queryLimit(c)
	if err != nil {
		respondInvalid(c, err)
		return
	}

	txs, err := h.games.Transactions(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"transactions": txs,
		"count":        len(txs),
	})
}

func (h *GameHandler) GetVerificationData(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	data, err := h.games.VerificationData(userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func (h *GameHandler) VerifyGame(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	result, err := h.games.Verify(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"verification": result,
	})
}

func (h *GameHandler) RotateSeed(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	// an empty body keeps a generated client seed
	var req models.RotateSeedRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, err)
			return
		}
	}

	result, err := h.games.RotateSeed(userID, req.ClientSeed)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"seed":    result,
	})
}

func queryLimit(c *gin.Context) (int64, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}
