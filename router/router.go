package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"ubilite/controllers"
	"ubilite/middleware"
	"ubilite/offline"
)

// Initialize wires all routes and middlewares. Channel webhooks are
// public; the gateways authenticate at the network edge, not here.
func Initialize(r *gin.Engine, svc *offline.Service) {
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(controllers.SetServiceToContext(svc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// Channel gateways
	api.POST("/ussd", Logger(), controllers.HandleUSSD)
	api.POST("/sms", Logger(), controllers.HandleSMS)
	api.POST("/voice", Logger(), controllers.HandleVoiceCall)
	api.POST("/voice/dtmf", Logger(), controllers.HandleVoiceDTMF)
	api.POST("/voice/speech", Logger(), controllers.HandleVoiceSpeech)

	// Lite client sync
	api.POST("/sync", Logger(), controllers.HandleSync)
	api.GET("/sync/state/:userId", Logger(), controllers.HandleSyncState)
	api.GET("/sync/tiles", Logger(), controllers.HandleTiles)

	log.Info().Msg("routes initialized")
}
