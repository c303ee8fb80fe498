package routes

import (
	"github.com/gin-gonic/gin"

	"chat-gateway/internal/interfaces/httpserver/handlers"
)

// Register wires the chat gateway endpoints onto the engine. All chat
// routes sit behind the optional-auth middleware: requests without a
// token proceed as anonymous, requests with an invalid token are
// rejected.
func Register(engine *gin.Engine, authMiddleware gin.HandlerFunc, chatHandler *handlers.ChatHandler, healthHandler *handlers.HealthHandler) {
	engine.GET("/healthz", healthHandler.Healthz)
	engine.GET("/readyz", healthHandler.Readyz)
	engine.GET("/health/auth", healthHandler.AuthStatus)

	api := engine.Group("/", authMiddleware)
	{
		api.POST("/chat", chatHandler.Submit)
		api.POST("/chat/fork", chatHandler.Fork)
		api.POST("/chat/delete", chatHandler.Delete)
		api.POST("/chat/ownership", chatHandler.RecordOwnership)
		api.GET("/chats", chatHandler.List)
		api.GET("/chats/:chatId", chatHandler.Get)
		api.PATCH("/chats/:chatId/visibility", chatHandler.UpdateVisibility)
	}
}
