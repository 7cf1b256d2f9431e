// Package httpapp serves the JSON API, the WebSocket endpoint and the
// Prometheus metrics of the karaoke server.
package httpapp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/websocket"

	"github.com/cesargomez89/openkaraoke/internal/app"
	"github.com/cesargomez89/openkaraoke/internal/domain"
	"github.com/cesargomez89/openkaraoke/internal/logger"
	"github.com/cesargomez89/openkaraoke/internal/metrics"
	"github.com/cesargomez89/openkaraoke/internal/realtime"
	"github.com/cesargomez89/openkaraoke/internal/store"
)

type Handler struct {
	DB             *store.DB
	Songs          *app.SongService
	Jobs           *app.JobService
	Enhancer       *app.Enhancer
	YouTube        *app.YouTubeService
	Hub            *realtime.Hub
	Upgrader       websocket.Upgrader
	Logger         *logger.Logger
	CORSOrigin     string
	MaxUploadBytes int64
	MetricsEnabled bool

	decoder *form.Decoder
}

func NewHandler(db *store.DB, songs *app.SongService, jobs *app.JobService, enhancer *app.Enhancer, yt *app.YouTubeService, hub *realtime.Hub, log *logger.Logger) *Handler {
	return &Handler{
		DB:       db,
		Songs:    songs,
		Jobs:     jobs,
		Enhancer: enhancer,
		YouTube:  yt,
		Hub:      hub,
		Upgrader: realtime.NewUpgrader("*"),
		Logger:   log.WithComponent("http"),
		decoder:  form.NewDecoder(),
	}
}

// Router builds the chi router with every route mounted.
func (h *Handler) Router() http.Handler {
	if h.decoder == nil {
		h.decoder = form.NewDecoder()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors(h.CORSOrigin))

	r.Get("/health", h.Health)
	if h.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}
	r.Get("/ws", h.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Route("/songs", func(r chi.Router) {
			r.Get("/", h.ListSongs)
			r.Post("/", h.CreateSong)
			r.Get("/search", h.SearchSongs)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetSong)
				r.Patch("/", h.UpdateSong)
				r.Delete("/", h.DeleteSong)
				r.Post("/favorite", h.AddFavorite)
				r.Delete("/favorite", h.RemoveFavorite)
				r.Get("/download/{track}", h.DownloadTrack)
				r.Get("/thumbnail", h.Thumbnail)
				r.Get("/cover", h.Cover)
				r.Get("/lyrics", h.GetSongLyrics)
				r.Put("/lyrics", h.PutSongLyrics)
				r.Post("/enhance", h.EnhanceSong)
			})
		})

		r.Post("/process", h.Process)

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", h.ListJobs)
			r.Get("/stats", h.JobStats)
			r.Post("/clear", h.ClearJobs)
			r.Get("/{id}", h.GetJob)
			r.Post("/{id}/cancel", h.CancelJob)
			r.Post("/{id}/dismiss", h.DismissJob)
		})

		r.Get("/lyrics/search", h.SearchLyrics)
		r.Get("/lyrics/get", h.GetLyrics)
		r.Get("/metadata/search", h.SearchMetadata)
		r.Get("/musicbrainz/search", h.SearchMusicBrainz)

		r.Get("/youtube/search", h.SearchYouTube)
		r.Get("/youtube/info", h.YouTubeInfo)
		r.Post("/youtube/download", h.DownloadYouTube)
		r.Get("/youtube-music/search", h.SearchYouTubeMusic)
	})

	return r
}

type healthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Clients   int       `json:"clients"`
	Pending   int       `json:"pending_jobs"`
	Running   int       `json:"running_jobs"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: "ok", Timestamp: time.Now().UTC()}
	status := http.StatusOK
	if h.DB != nil {
		if err := h.DB.PingContext(r.Context()); err != nil {
			h.Logger.Error("Health check failed", "error", err)
			resp.Status = "degraded"
			resp.Database = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			resp.Pending, _ = h.DB.CountJobsByStatus(domain.JobStatusPending)
			resp.Running, _ = h.DB.CountJobsByStatus(domain.JobStatusProcessing)
		}
	}
	if h.Hub != nil {
		resp.Clients = h.Hub.ClientCount()
	}
	writeJSON(w, status, resp)
}

func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.Hub == nil {
		writeError(w, http.StatusServiceUnavailable, kindUnavailable, "realtime hub unavailable", nil)
		return
	}
	h.Hub.ServeWS(&h.Upgrader, w, r)
}
