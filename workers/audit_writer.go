package workers

import (
	"time"

	"github.com/jinzhu/gorm"
	"github.com/rs/zerolog/log"

	"ubilite/audit"
	"ubilite/models"
)

const flushInterval = 5 * time.Second
const flushBatch = 200

// StartAuditWriter drains the audit buffer into the database. Events are
// batched on a ticker; a full batch flushes early. Best-effort: a failed
// insert is logged and the batch dropped rather than retried.
func StartAuditWriter(database *gorm.DB, buffer *audit.Buffer) chan<- struct{} {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(flushInterval)
		defer ticker.Stop()

		batch := make([]models.AuditEvent, 0, flushBatch)
		for {
			select {
			case ev := <-buffer.Events():
				batch = append(batch, ev)
				if len(batch) >= flushBatch {
					flush(database, batch)
					batch = batch[:0]
				}
			case <-ticker.C:
				if len(batch) > 0 {
					flush(database, batch)
					batch = batch[:0]
				}
			case <-stop:
				if len(batch) > 0 {
					flush(database, batch)
				}
				return
			}
		}
	}()
	return stop
}

func flush(database *gorm.DB, batch []models.AuditEvent) {
	for i := range batch {
		if err := database.Create(&batch[i]).Error; err != nil {
			log.Error().Err(err).Str("event_id", batch[i].EventID).Msg("audit write failed")
		}
	}
}
