package app

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/cesargomez89/openkaraoke/internal/constants"
	"github.com/cesargomez89/openkaraoke/internal/domain"
	"github.com/cesargomez89/openkaraoke/internal/logger"
	"github.com/cesargomez89/openkaraoke/internal/store"
	"github.com/cesargomez89/openkaraoke/internal/youtube"
)

type YouTubeService struct {
	Client   youtube.ClientInterface
	Repo     *store.DB
	Jobs     *JobService
	Enhancer *Enhancer
	Logger   *logger.Logger
}

func NewYouTubeService(client youtube.ClientInterface, repo *store.DB, jobs *JobService, enhancer *Enhancer, log *logger.Logger) *YouTubeService {
	return &YouTubeService{Client: client, Repo: repo, Jobs: jobs, Enhancer: enhancer, Logger: log.WithComponent("youtube")}
}

// DownloadRequest asks for a video to be added to the library. Title, artist
// and album override what the video metadata says.
type DownloadRequest struct {
	URL            string `json:"url"`
	Title          string `json:"title"`
	Artist         string `json:"artist"`
	Album          string `json:"album"`
	SearchMetadata bool   `json:"search_metadata"`
}

// VideoDetails is a video's raw info next to the song metadata derived from it.
type VideoDetails struct {
	Info     *youtube.VideoInfo `json:"info"`
	Metadata youtube.Metadata   `json:"metadata"`
}

func (s *YouTubeService) Search(ctx context.Context, query string, limit int) ([]youtube.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.NewValidationError("query is required", map[string]string{"q": "required"})
	}
	res, err := s.Client.Search(ctx, query, limit)
	if err != nil {
		return nil, domain.NewServiceError("youtube search", err)
	}
	return res, nil
}

func (s *YouTubeService) SearchMusic(ctx context.Context, query string, limit int) ([]youtube.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.NewValidationError("query is required", map[string]string{"q": "required"})
	}
	res, err := s.Client.SearchMusic(ctx, query, limit)
	if err != nil {
		return nil, domain.NewServiceError("youtube music search", err)
	}
	return res, nil
}

func (s *YouTubeService) Info(ctx context.Context, videoURL string) (*VideoDetails, error) {
	if !youtube.ValidateURL(videoURL) {
		return nil, domain.NewValidationError("invalid YouTube URL", map[string]string{"url": "must be a YouTube video URL"})
	}
	info, err := s.Client.Info(ctx, videoURL)
	if err != nil {
		return nil, domain.NewServiceError("youtube info", err)
	}
	return &VideoDetails{Info: info, Metadata: youtube.ExtractMetadata(info)}, nil
}

// DownloadVideo creates the song for a video and queues its download. The
// download job queues separation once the audio is on disk.
func (s *YouTubeService) DownloadVideo(ctx context.Context, req DownloadRequest) (*domain.Song, *domain.Job, error) {
	details, err := s.Info(ctx, req.URL)
	if err != nil {
		return nil, nil, err
	}
	md := details.Metadata

	song := &domain.Song{
		ID:          uuid.New().String(),
		Title:       firstNonBlank(req.Title, md.Title),
		Artist:      firstNonBlank(req.Artist, md.Artist),
		Album:       firstNonBlank(req.Album, md.Album),
		DurationMs:  md.DurationMs,
		Year:        md.Year,
		Status:      domain.SongStatusProcessing,
		Source:      constants.SourceYouTube,
		SourceURL:   md.SourceURL,
		VideoID:     md.VideoID,
		Channel:     md.Channel,
		ChannelID:   md.ChannelID,
		Uploader:    md.Uploader,
		YouTubeTags: domain.StringSlice(md.Tags),
	}
	if raw, err := json.Marshal(details.Info); err == nil {
		song.YouTubeRaw = domain.RawJSON(raw)
	}

	log := s.Logger.WithSong(song.ID, song.Title)
	if req.SearchMetadata && s.Enhancer != nil {
		s.Enhancer.ApplyITunes(ctx, song, log.Logger)
	}

	if err := s.Repo.CreateSong(song); err != nil {
		return nil, nil, domain.NewServiceError("create song", err)
	}

	job, err := s.Jobs.Enqueue(domain.JobTypeDownload, song, song.Title)
	if err != nil {
		return song, nil, domain.NewServiceError("enqueue download", err)
	}
	log.Info("YouTube download queued", "video_id", song.VideoID, "job_id", job.ID)
	return song, job, nil
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
