// Package offline is the composition root for the channel stack: it owns
// the shared collaborators, hands each machine its dependencies, and picks
// the best channel for a user when the caller has a choice.
package offline

import (
	"time"

	"ubilite/audit"
	"ubilite/clients"
	"ubilite/i18n"
	"ubilite/lite"
	"ubilite/models"
	"ubilite/sms"
	"ubilite/store"
	"ubilite/ussd"
	"ubilite/voice"
)

/************************************************
/**** MARK: DEVICE CLASSES ****/
/************************************************/
const DEVICE_FEATURE_PHONE = "feature_phone"
const DEVICE_SMARTPHONE = "smartphone"
const DEVICE_NONE = "none"

// ChannelContext is what we know about the user's device and situation
// when choosing how to reach them.
type ChannelContext struct {
	DeviceClass string
	NetworkType string
	// CanRead is false for callers who asked for voice prompts.
	CanRead bool
	// InCall is true while the user already has a live voice leg.
	InCall bool
}

// Service wires every channel over one shared store, translator and
// collaborator set.
type Service struct {
	USSD  *ussd.Machine
	SMS   *sms.Handler
	Voice *voice.Machine
	Sync  *lite.Engine
	Cache *lite.ResponseCache
	Audit audit.Recorder
}

type Deps struct {
	Store      store.Store
	Translator *i18n.Translator
	Geocoder   clients.Geocoder
	Trips      clients.TripService
	Wallet     clients.WalletService
	Users      clients.UserService
	Places     clients.SavedPlaces
	Messenger  clients.Messenger
	Changes    lite.ChangeSource
	Templates  sms.TemplateSource
	Agents     []models.CallAgent
	Audit      audit.Recorder
	Shortcode  string

	DefaultLanguage string
	USSDSessionTTL  time.Duration
	IVRSessionTTL   time.Duration
	ConfirmationTTL time.Duration
}

func New(d Deps) *Service {
	if d.Audit == nil {
		d.Audit = audit.Nop{}
	}
	return &Service{
		USSD: ussd.New(ussd.Deps{
			Store: d.Store, Translator: d.Translator, Geocoder: d.Geocoder,
			Trips: d.Trips, Wallet: d.Wallet, Users: d.Users, Places: d.Places,
			SMS: d.Messenger, Audit: d.Audit,
			TTL: d.USSDSessionTTL, DefaultLanguage: d.DefaultLanguage,
		}),
		SMS: sms.New(sms.Deps{
			Store: d.Store, Translator: d.Translator, Geocoder: d.Geocoder,
			Trips: d.Trips, Wallet: d.Wallet, Users: d.Users, Places: d.Places,
			Templates: d.Templates, Audit: d.Audit, Shortcode: d.Shortcode,
			ConfirmTTL: d.ConfirmationTTL, DefaultLanguage: d.DefaultLanguage,
		}),
		Voice: voice.New(voice.Deps{
			Store: d.Store, Translator: d.Translator, Geocoder: d.Geocoder,
			Trips: d.Trips, Wallet: d.Wallet, Users: d.Users, Places: d.Places,
			Pool: voice.NewPool(d.Agents), Audit: d.Audit,
			TTL: d.IVRSessionTTL, DefaultLanguage: d.DefaultLanguage,
		}),
		Sync:  lite.NewEngine(d.Store, d.Changes),
		Cache: lite.NewResponseCache(d.Store),
		Audit: d.Audit,
	}
}

// BestChannel picks the outreach channel for a user. Smartphones on a
// usable network take the lite sync path; interactive sessions prefer
// USSD; voice is the floor for anyone who cannot read the screen.
func (s *Service) BestChannel(user *models.UserProfile, cc ChannelContext) string {
	if cc.InCall {
		return models.CHANNEL_VOICE
	}
	if !cc.CanRead {
		return models.CHANNEL_VOICE
	}
	switch cc.DeviceClass {
	case DEVICE_SMARTPHONE:
		// A smartphone on 2G still reads SMS more reliably than it loads
		// a data session.
		if lite.SlowNetwork(cc.NetworkType) {
			return models.CHANNEL_SMS
		}
		return models.CHANNEL_USSD
	case DEVICE_FEATURE_PHONE:
		return models.CHANNEL_USSD
	default:
		return models.CHANNEL_SMS
	}
}
