// Package audit collects one event per protocol dispatch. Emission is an
// explicit collaborator handed to each channel, not a global listener; the
// workers package drains the buffer into the database.
package audit

import (
	"github.com/rs/zerolog/log"

	"ubilite/models"
)

// Recorder accepts dispatch events. Record must never block a turn.
type Recorder interface {
	Record(ev models.AuditEvent)
}

// Buffer is the channel-backed Recorder the service wires in. When the
// buffer is full the event is dropped and counted in the log; audit is
// best-effort by contract.
type Buffer struct {
	ch chan models.AuditEvent
}

func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = 1024
	}
	return &Buffer{ch: make(chan models.AuditEvent, size)}
}

func (b *Buffer) Record(ev models.AuditEvent) {
	select {
	case b.ch <- ev:
	default:
		log.Warn().Str("channel", ev.Channel).Str("phone", ev.Phone).Msg("audit buffer full, event dropped")
	}
}

// Events is consumed by the audit writer worker.
func (b *Buffer) Events() <-chan models.AuditEvent {
	return b.ch
}

// Nop discards events. Used in tests.
type Nop struct{}

func (Nop) Record(models.AuditEvent) {}
