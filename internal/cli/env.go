package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/timmy/querydesk/internal/apiclient"
	"github.com/timmy/querydesk/internal/config"
	"github.com/timmy/querydesk/internal/domain"
	"github.com/timmy/querydesk/internal/eventbus"
	"github.com/timmy/querydesk/internal/logger"
	"github.com/timmy/querydesk/internal/preference"
	"github.com/timmy/querydesk/internal/repository"
	"github.com/timmy/querydesk/internal/session"
)

// env is the per-invocation state shared by every command.
type env struct {
	opts *RootOptions

	cfg     *config.Config
	log     *logger.Logger
	client  *apiclient.Client
	session *session.Session
	db      *gorm.DB
	prefs   *preference.Store
	styles  Styles
}

func (e *env) load(cmd *cobra.Command) error {
	cfg, err := config.Load(e.opts.ConfigPath)
	if err != nil {
		return err
	}
	e.cfg = cfg

	logCfg := cfg.LoggerConfig()
	if e.opts.Verbose {
		logCfg.Level = "debug"
	}
	e.log = logger.New(logCfg)
	logger.SetDefaultLogger(e.log)

	// Without a store the theme falls back to light.
	db, err := repository.InitDB(&cfg.Store, e.log)
	if err != nil {
		e.log.WithError(err).Warn("Preference store unavailable, using the light theme")
	} else {
		e.db = db
		e.prefs = preference.NewStore(repository.NewPreferenceRepository(db))
	}
	e.styles = NewStyles(e.theme(cmd.Context()))

	e.client = apiclient.New(apiclient.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, e.log)
	e.session = session.New(cfg, e.client, session.Options{
		Preferences: e.prefs,
		Logger:      e.log,
	})
	e.printNotices(cmd.ErrOrStderr())

	if _, offline := cmd.Annotations[offlineAnnotation]; !offline {
		if err := e.session.Load(cmd.Context()); err != nil {
			e.log.WithError(err).Debug("Initial schema load failed")
		}
	}
	return nil
}

func (e *env) theme(ctx context.Context) string {
	if e.prefs == nil {
		return domain.ThemeLight
	}
	theme, err := e.prefs.Theme(ctx)
	if err != nil {
		e.log.WithError(err).Debug("Theme lookup failed")
	}
	return theme
}

// printNotices echoes every notification as it is raised.
func (e *env) printNotices(w io.Writer) {
	eventbus.On(e.session.Bus, domain.EventNotify, func(n domain.Notice) {
		fmt.Fprintln(w, e.styles.Notice(n))
	})
}

func (e *env) close() {
	if e.session != nil {
		e.session.Close()
		e.session = nil
	}
	if e.db != nil {
		if err := repository.Close(e.db); err != nil {
			e.log.WithError(err).Warn("Failed to close preference store")
		}
		e.db = nil
	}
	_ = logger.Sync()
}
