package signal

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/mkymd/voiceroom/internal/app/session"
	"github.com/mkymd/voiceroom/internal/infra/config"
	"github.com/mkymd/voiceroom/internal/infra/roomapi"
)

// Settings configures the websocket gateway.
type Settings struct {
	URL             string `mapstructure:"url" validate:"required"`
	PingIntervalSec int    `mapstructure:"ping_interval_sec" default:"20" validate:"gte=1,lte=300"`
	DialTimeoutMs   int    `mapstructure:"dial_timeout_ms" default:"5000" validate:"gte=100,lte=60000"`
}

// NewGatewayFromConfig creates the room connection gateway described by
// the configuration. A ticket, when present, overrides the static
// settings with fetched credentials.
func NewGatewayFromConfig(cfg *config.Config, ticket *roomapi.Ticket, handler session.GatewayHandler) (session.Gateway, error) {
	switch cfg.Gateway.Type {
	case "websocket":
		var s Settings
		if err := mapstructure.Decode(cfg.Gateway.Settings, &s); err != nil {
			return nil, errors.Wrap(err, "failed to decode websocket gateway settings")
		}
		if err := defaults.Set(&s); err != nil {
			return nil, errors.Wrap(err, "failed to set defaults")
		}

		token := ""
		room := cfg.Room.Name
		if ticket != nil {
			s.URL = ticket.SignalURL
			token = ticket.Token
			if ticket.Room != "" {
				room = ticket.Room
			}
			if ticket.PingIntervalSec > 0 {
				s.PingIntervalSec = ticket.PingIntervalSec
			}
		}

		if err := validator.New().Struct(&s); err != nil {
			return nil, errors.Wrap(err, "invalid websocket gateway settings")
		}

		zlog.Info().Msgf("gateway: websocket %s room=%s", s.URL, room)
		return NewClient(Config{
			URL:          s.URL,
			Token:        token,
			Room:         room,
			PingInterval: time.Duration(s.PingIntervalSec) * time.Second,
			DialTimeout:  time.Duration(s.DialTimeoutMs) * time.Millisecond,
		}, handler), nil

	default:
		return nil, errors.Newf("unsupported gateway type: %s", cfg.Gateway.Type)
	}
}
