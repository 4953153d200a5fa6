package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ubilite/audit"
	"ubilite/clients"
	"ubilite/config"
	"ubilite/db"
	"ubilite/i18n"
	"ubilite/models"
	"ubilite/offline"
	"ubilite/router"
	"ubilite/store"
	"ubilite/workers"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogging(cfg)

	translator, err := i18n.New()
	if err != nil {
		log.Fatal().Err(err).Msg("locale tables failed to load")
	}

	kv := openStore(cfg)

	database, err := db.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer database.Close()

	auditBuffer := audit.NewBuffer(0)
	stopAudit := workers.StartAuditWriter(database, auditBuffer)
	defer close(stopAudit)

	svc := offline.New(offline.Deps{
		Store:      kv,
		Translator: translator,
		Geocoder:   clients.NewGeocoder(cfg.GeocodingURL),
		Trips:      clients.NewTripService(cfg.TripServiceURL),
		Wallet:     clients.NewWalletService(cfg.WalletURL),
		Users:      clients.NewUserService(cfg.UserServiceURL),
		Places:     db.NewSavedPlaceStore(database),
		Messenger:  clients.NewMessenger(cfg.SMSProviderURL, cfg.SMSSenderID),
		Changes:    clients.NewChangeSource(cfg.SyncFeedURL),
		Templates:  db.NewSMSTemplateStore(database),
		Agents:     defaultAgents(),
		Audit:      auditBuffer,
		Shortcode:  cfg.SMSShortcode,

		DefaultLanguage: cfg.DefaultLanguage,
		USSDSessionTTL:  cfg.USSDSessionTTL,
		IVRSessionTTL:   cfg.IVRSessionTTL,
		ConfirmationTTL: cfg.ConfirmationTTL,
	})

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	router.Initialize(r, svc)

	log.Info().Str("port", cfg.Port).Msg("ubilite listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func setupLogging(cfg config.Configuration) {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func openStore(cfg config.Configuration) store.Store {
	if cfg.SessionStore == "redis" && cfg.RedisURL != "" {
		kv, err := store.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		log.Info().Msg("using redis session store")
		return kv
	}
	log.Info().Msg("using in-memory session store")
	return store.NewMemory()
}

// defaultAgents is the development roster; production loads the real one
// from the ops system at deploy time.
func defaultAgents() []models.CallAgent {
	return []models.CallAgent{
		{ID: "agent-1", Name: "Grace", Languages: []string{"en", "sw"}, Extension: "1001", MaxCalls: 1},
		{ID: "agent-2", Name: "Brian", Languages: []string{"en"}, Extension: "1002", MaxCalls: 1},
		{ID: "agent-3", Name: "Amina", Languages: []string{"sw"}, Extension: "1003", MaxCalls: 1},
		{ID: "agent-4", Name: "Claudine", Languages: []string{"fr", "en"}, Extension: "1004", MaxCalls: 1},
	}
}
