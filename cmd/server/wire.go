package main

import (
	"fmt"
	"time"

	"github.com/cesargomez89/openkaraoke/internal/app"
	"github.com/cesargomez89/openkaraoke/internal/config"
	"github.com/cesargomez89/openkaraoke/internal/constants"
	"github.com/cesargomez89/openkaraoke/internal/httpclient"
	"github.com/cesargomez89/openkaraoke/internal/itunes"
	"github.com/cesargomez89/openkaraoke/internal/library"
	"github.com/cesargomez89/openkaraoke/internal/logger"
	"github.com/cesargomez89/openkaraoke/internal/lyrics"
	"github.com/cesargomez89/openkaraoke/internal/musicbrainz"
	"github.com/cesargomez89/openkaraoke/internal/store"
	"github.com/cesargomez89/openkaraoke/internal/youtube"
)

// application holds the services shared by every command.
type application struct {
	cfg         *config.Config
	log         *logger.Logger
	db          *store.DB
	library     *library.Library
	settings    *store.SettingsRepo
	jobs        *app.JobService
	songs       *app.SongService
	enhancer    *app.Enhancer
	youtube     *app.YouTubeService
	ytClient    youtube.ClientInterface
	performance *app.PerformanceService
}

func newApplication(cfg *config.Config) (*application, error) {
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	lib, err := library.New(cfg.LibraryDir)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open library: %w", err)
	}

	mbClient := musicbrainz.NewClient(cfg.MusicBrainzURL).
		WithHTTPClient(httpclient.NewClient(nil, constants.MusicBrainzRateLimit).WithUserAgent(cfg.UserAgent))
	mb := musicbrainz.NewCachedClient(mbClient, db, constants.MusicBrainzCacheTTL)
	enhancer := app.NewEnhancer(
		itunes.NewClient(cfg.ITunesURL),
		mb,
		lyrics.NewClient(cfg.LRCLibURL).
			WithHTTPClient(httpclient.NewClient(nil, 100*time.Millisecond).WithUserAgent(cfg.UserAgent)),
		app.NewImageFetcher(nil),
		db,
		lib,
		log,
	)

	jobs := app.NewJobService(db, log)
	settings := store.NewSettingsRepo(db)
	ytClient := youtube.NewClient(youtube.NewYTDLP(cfg.YtDlpBin))

	return &application{
		cfg:         cfg,
		log:         log,
		db:          db,
		library:     lib,
		settings:    settings,
		jobs:        jobs,
		songs:       app.NewSongService(db, lib, jobs, log),
		enhancer:    enhancer,
		youtube:     app.NewYouTubeService(ytClient, db, jobs, enhancer, log),
		ytClient:    ytClient,
		performance: app.NewPerformanceService(settings, log),
	}, nil
}

func (a *application) Close() error {
	return a.db.Close()
}
