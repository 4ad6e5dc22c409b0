package bootstrap

import (
	"os"

	"scheduler_server/adapter/out/provider"
	"scheduler_server/config"
	"scheduler_server/core/port/out"
	"scheduler_server/core/service/scheduling"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

type Dependencies struct {
	Config *config.Config

	// Providers
	CalendarReader out.CalendarReaderPort
	TokenResolver  out.TokenResolver

	// Services
	SchedulingService *scheduling.Service
}

func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		With().Timestamp().Logger()

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			calendar.CalendarReadonlyScope,
		},
	}

	tokens := provider.NewStaticTokenResolver(cfg.GoogleAccessToken, cfg.GoogleRefreshToken)
	reader := provider.NewGoogleCalendarReader(oauthConfig, tokens, cfg.ProviderTimeout, zlog)

	schedulingService := scheduling.NewService(reader, zlog, scheduling.Options{
		DefaultBufferMinutes: cfg.DefaultBufferMinutes,
		SlotStepMinutes:      cfg.SlotStepMinutes,
		DefaultSlotLimit:     cfg.DefaultSlotLimit,
		MaxSlotLimit:         cfg.MaxSlotLimit,
		MaxConcurrentFetches: cfg.MaxConcurrentFetches,
	})

	deps := &Dependencies{
		Config:            cfg,
		CalendarReader:    reader,
		TokenResolver:     tokens,
		SchedulingService: schedulingService,
	}

	cleanup := func() {}

	return deps, cleanup, nil
}
