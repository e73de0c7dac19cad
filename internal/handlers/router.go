package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dvms-arcade-backend/internal/config"
	"dvms-arcade-backend/internal/middleware"
	"dvms-arcade-backend/internal/services"
)

type RouterDeps struct {
	Config    *config.Config
	Games     *services.GameService
	JWT       *services.JWTService
	Limiter   services.RequestLimiter
	WebSocket *WebSocketHandler
	Logger    *zap.Logger
}

func NewRouter(d RouterDeps) *gin.Engine {
	authHandler := NewAuthHandler(d.JWT, d.Logger)
	userHandler := NewUserHandler(d.Games, d.Logger)
	cardHandler := NewCardHandler(d.Games, d.Logger)
	gameHandler := NewGameHandler(d.Games, d.Logger)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(d.Logger), middleware.CORS())

	router.POST("/auth/guest", authHandler.Guest)

	protected := router.Group("/")
	protected.Use(
		middleware.AuthMiddleware(d.JWT, d.Config.DefaultUserID),
		middleware.RateLimitMiddleware(d.Limiter, d.Logger),
	)
	{
		protected.POST("/roll", cardHandler.Roll)

		api := protected.Group("/api")
		api.GET("/user-data", userHandler.GetUserData)
		api.POST("/save-user-data", userHandler.SaveUserData)
		api.GET("/cards-images", cardHandler.GetCardImages)
		api.GET("/balance", gameHandler.GetBalance)
		api.GET("/transactions", gameHandler.GetTransactions)
		api.GET("/ws", d.WebSocket.HandleWebSocket)

		cards := api.Group("/cards")
		{
			cards.GET("", cardHandler.GetCards)
			cards.GET("/roll-status", cardHandler.GetRollStatus)
			cards.POST("/sell", cardHandler.Sell)
			cards.POST("/sell-all", cardHandler.SellAll)
		}

		games := api.Group("/games")
		{
			games.GET("/config", gameHandler.GetConfig)
			games.GET("/history", gameHandler.GetGameHistory)
			games.GET("/verification", gameHandler.GetVerificationData)
			games.POST("/verify", gameHandler.VerifyGame)
			games.POST("/rotate-seed", gameHandler.RotateSeed)

			mines := games.Group("/mines")
			{
				mines.POST("/start", gameHandler.StartMines)
				mines.POST("/reveal", gameHandler.RevealMine)
				mines.POST("/cashout", gameHandler.CashoutMines)
				mines.POST("/reset", gameHandler.ResetMines)
				mines.GET("/state", gameHandler.GetMinesState)
				mines.GET("/payouts", gameHandler.GetPayouts)
			}
		}
	}

	router.NoRoute(StaticHandler(d.Config.PublicDir))

	return router
}
