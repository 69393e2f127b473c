package http

import (
	stdhttp "net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/marketwire/internal/auth"
	"github.com/vovakirdan/marketwire/internal/config"
	"github.com/vovakirdan/marketwire/internal/relay"
	"github.com/vovakirdan/marketwire/internal/service/listings"
	"github.com/vovakirdan/marketwire/internal/session"
	"github.com/vovakirdan/marketwire/internal/supportchat"
)

// Deps are the services exposed over HTTP.
type Deps struct {
	Hub          *relay.Hub
	Auth         *auth.Service
	Listings     *listings.Service
	Sessions     *session.Manager
	Support      *supportchat.Bridge
	SupportQueue *supportchat.Queue
}

// NewServer builds the HTTP server with the REST API and the relay endpoint.
func NewServer(deps Deps, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/health", healthHandler)

	sessionHandlers := NewSessionHandlers(deps.Auth, deps.Sessions, logger)
	listingHandlers := NewListingHandlers(deps.Listings, logger)
	conversationHandlers := NewConversationHandlers(deps.Sessions, logger)
	supportHandlers := NewSupportHandlers(deps.Support, deps.SupportQueue, logger)

	api := router.Group("/api")
	api.POST("/session", sessionHandlers.Start)

	protected := api.Group("")
	protected.Use(AuthMiddleware(deps.Auth, logger))
	{
		protected.DELETE("/session", sessionHandlers.End)

		protected.GET("/listings", listingHandlers.Browse)
		protected.GET("/listings/filters", listingHandlers.Filters)
		protected.POST("/listings", listingHandlers.Create)
		protected.GET("/listings/:id", listingHandlers.Get)
		protected.POST("/listings/:id/transition", listingHandlers.Transition)

		protected.POST("/conversations/select", conversationHandlers.Select)
		protected.GET("/conversations", conversationHandlers.List)
		protected.POST("/conversations/:id/connect", conversationHandlers.Connect)
		protected.POST("/conversations/:id/disconnect", conversationHandlers.Disconnect)
		protected.GET("/conversations/:id/messages", conversationHandlers.Messages)
		protected.POST("/conversations/:id/messages", conversationHandlers.Send)
		protected.GET("/conversations/:id/events", conversationHandlers.Events)

		protected.POST("/support/open", supportHandlers.Open)
		protected.POST("/support/widget", supportHandlers.Attach)
		protected.DELETE("/support/widget", supportHandlers.Detach)
		protected.GET("/support/commands", supportHandlers.Commands)
	}

	// The relay upgrades outside gin: gin's writer refuses to hijack once
	// the 101 header has been flushed.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(deps.Hub, deps.Auth, cfg, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}
