package db

import (
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/rs/zerolog/log"

	"ubilite/config"
	"ubilite/models"
)

// Connect opens the service's own database (audit trail, saved places,
// SMS templates). Platform entities live behind the client interfaces and
// never touch this schema.
func Connect(cfg config.Configuration) (*gorm.DB, error) {
	var (
		database *gorm.DB
		err      error
	)

	if cfg.Database == "postgres" || cfg.Database == "postgresql" {
		log.Info().Str("host", cfg.DbHost).Str("name", cfg.DbName).Msg("connecting to postgres")
		path := "host=" + cfg.DbHost + " port=" + cfg.DbPort
		path += " user=" + cfg.DbUser + " dbname=" + cfg.DbName
		path += " password=" + cfg.DbPass + " sslmode=disable"
		database, err = gorm.Open("postgres", path)
	} else {
		log.Info().Msg("connecting to sqlite3")
		database, err = gorm.Open("sqlite3", "db/database.db")
	}
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		return nil, err
	}

	database.LogMode(cfg.Env == "development")

	database.AutoMigrate(
		&models.AuditEvent{},
		&models.SavedPlace{},
		&models.SMSTemplate{},
	)
	return database, nil
}
