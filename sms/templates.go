package sms

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"ubilite/models"
	"ubilite/tools"
)

// TemplateSource serves operator-managed reply templates by message key.
// A nil source or a miss falls back to the built-in locale tables.
type TemplateSource interface {
	Get(ctx context.Context, id string) (*models.SMSTemplate, error)
}

// text renders one reply: an operator template when a valid one exists for
// the key, otherwise the locale table entry.
func (h *Handler) text(ctx context.Context, key, lang string, params map[string]string) string {
	if h.templates != nil {
		if body, ok := h.fromTemplate(ctx, key, lang, params); ok {
			return body
		}
	}
	return h.tr.T(key, lang, params)
}

func (h *Handler) fromTemplate(ctx context.Context, key, lang string, params map[string]string) (string, bool) {
	t, err := h.templates.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("template", key).Msg("sms template lookup failed")
		return "", false
	}
	if t == nil {
		return "", false
	}
	if err := t.Validate(); err != nil {
		log.Warn().Err(err).Str("template", key).Msg("sms template rejected")
		return "", false
	}

	body, ok := t.Content[lang]
	if !ok {
		body, ok = t.Content[h.defLang]
	}
	if !ok {
		return "", false
	}
	for k, v := range params {
		body = strings.ReplaceAll(body, "{"+k+"}", v)
	}
	if t.MaxLength > 0 {
		body = tools.Truncate(body, t.MaxLength)
	}
	return body, true
}
