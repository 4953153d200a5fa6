package sms

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"ubilite/models"
)

type fakeTemplates struct {
	templates map[string]*models.SMSTemplate
}

func (f *fakeTemplates) Get(ctx context.Context, id string) (*models.SMSTemplate, error) {
	return f.templates[id], nil
}

func TestTemplateOverridesLocaleTable(t *testing.T) {
	env := newTestEnv(t)
	env.h.templates = &fakeTemplates{templates: map[string]*models.SMSTemplate{
		"sms.balance": {
			ID:        "sms.balance",
			Content:   map[string]string{"en": "UBI wallet: {balance}. Karibu!"},
			Variables: []string{"balance"},
			MaxLength: 160,
		},
	}}

	out := env.send("BALANCE")
	assert.Equal(t, "UBI wallet: KES 1,500. Karibu!", out.Message)
}

func TestInvalidTemplateFallsBackToLocaleTable(t *testing.T) {
	env := newTestEnv(t)
	// {customer_name} is not declared, so the template is rejected and the
	// locale table answers instead.
	env.h.templates = &fakeTemplates{templates: map[string]*models.SMSTemplate{
		"sms.balance": {
			ID:        "sms.balance",
			Content:   map[string]string{"en": "Balance {balance} for {customer_name}"},
			Variables: []string{"balance"},
		},
	}}

	out := env.send("BALANCE")
	want := env.tr.T("sms.balance", "en", map[string]string{"balance": "KES 1,500"})
	assert.Equal(t, want, out.Message)
}

func TestTemplateMissingLanguageUsesDefaultContent(t *testing.T) {
	env := newTestEnv(t)
	env.h.templates = &fakeTemplates{templates: map[string]*models.SMSTemplate{
		"sms.help": {
			ID:      "sms.help",
			Content: map[string]string{"en": "Text BOOK TO <place> to ride with UBI."},
		},
	}}
	env.users.Users[testPhone].Language = "sw"

	out := env.send("HELP")
	assert.Equal(t, "Text BOOK TO <place> to ride with UBI.", out.Message)
}

func TestTemplateMaxLengthTruncates(t *testing.T) {
	env := newTestEnv(t)
	env.h.templates = &fakeTemplates{templates: map[string]*models.SMSTemplate{
		"sms.help": {
			ID:        "sms.help",
			Content:   map[string]string{"en": strings.Repeat("ride with UBI ", 20)},
			MaxLength: 50,
		},
	}}

	out := env.send("HELP")
	assert.LessOrEqual(t, len([]rune(out.Message)), 50)
}

func TestTemplateValidate(t *testing.T) {
	ok := models.SMSTemplate{
		ID:        "greeting",
		Content:   map[string]string{"en": "Hello {name}", "sw": "Habari {name}"},
		Variables: []string{"name"},
	}
	assert.NoError(t, ok.Validate())

	bad := models.SMSTemplate{
		ID:      "greeting",
		Content: map[string]string{"en": "Hello {name}"},
	}
	assert.Error(t, bad.Validate())
}
