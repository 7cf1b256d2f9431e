// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort           = "8080"
	DefaultDBPath         = "openkaraoke.db"
	DefaultLibraryDir     = "karaoke_library"
	DefaultConcurrency    = 1
	DefaultPollInterval   = 2 * time.Second
	DefaultHTTPTimeout    = 15 * time.Second
	ImageHTTPTimeout      = 30 * time.Second
	DefaultRetryCount     = 3
	DefaultRetryBase      = 1 * time.Second
	DefaultRetryMax       = 10 * time.Second
	DefaultCacheTTL       = 12 * time.Hour
	MusicBrainzCacheTTL   = 7 * 24 * time.Hour
	MusicBrainzRateLimit  = 1050 * time.Millisecond
	DefaultMaxUploadMB    = 200
	DefaultShutdownWait   = 10 * time.Second
	DefaultDemucsBin      = "demucs"
	DefaultDemucsModel    = "htdemucs"
	DefaultYtDlpBin       = "yt-dlp"
	DefaultITunesURL      = "https://itunes.apple.com"
	DefaultMusicBrainzURL = "https://musicbrainz.org/ws/2"
	DefaultLRCLibURL      = "https://lrclib.net"
	DefaultUserAgent      = "openkaraoke/1.0 (https://github.com/cesargomez89/openkaraoke)"
)

// Demucs devices
const (
	DeviceAuto = "auto"
	DeviceCUDA = "cuda"
	DeviceCPU  = "cpu"
)

// Song sources
const (
	SourceUpload  = "upload"
	SourceYouTube = "youtube"
)

// Files inside a song directory
const (
	OriginalBase     = "original"
	VocalsFile       = "vocals.mp3"
	InstrumentalFile = "instrumental.mp3"
	ThumbnailBase    = "thumbnail"
	CoverBase        = "cover"
	SyncedLyricsFile = "lyrics.lrc"
	PlainLyricsFile  = "lyrics.txt"
)

// MIME Types
const (
	MimeTypeFLAC = "audio/flac"
	MimeTypeMP3  = "audio/mpeg"
	MimeTypeWAV  = "audio/wav"
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeWebP = "image/webp"
)

// File Extensions
const (
	ExtFLAC = ".flac"
	ExtMP3  = ".mp3"
	ExtWAV  = ".wav"
	ExtM4A  = ".m4a"
	ExtOGG  = ".ogg"
	ExtJPG  = ".jpg"
	ExtPNG  = ".png"
	ExtWebP = ".webp"
)

// File Permissions
const (
	DirPermissions  = 0755
	FilePermissions = 0644
)

// API limits
const (
	DefaultPageSize    = 50
	MaxPageSize        = 500
	DefaultSearchLimit = 20
	MaxSearchResults   = 50
	MaxJobsListed      = 200
	ProgressUpdateFreq = 1 * time.Second
)

// Messages stored on jobs
const (
	MsgCancelledByUser  = "Job cancelled by user"
	MsgInterrupted      = "Job interrupted by server restart"
	MsgSeparationQueued = "Waiting for separation"
)

// Characters to sanitize from filesystem paths
const InvalidPathChars = "<>:\"/\\|?*"
