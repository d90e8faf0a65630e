package shopify

import (
	"go.uber.org/zap"

	"sku-generator/config"
)

// Session is a Client and an Uploader bound to one store credential.
type Session struct {
	*Client
	*Uploader
}

// NewSession builds a session for the store profile with the given label.
// An empty label selects the first configured profile.
func NewSession(cfg *config.Config, label string, log *zap.Logger) (*Session, error) {
	store, err := cfg.Shopify.Profile(label)
	if err != nil {
		return nil, err
	}
	client, err := NewClient(store, OptionsFromConfig(cfg), log)
	if err != nil {
		return nil, err
	}
	return &Session{
		Client:   client,
		Uploader: NewUploader(client, SettingsFromConfig(cfg.Upload), log),
	}, nil
}
