package store

const Schema = `
CREATE TABLE IF NOT EXISTS songs (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	artist TEXT NOT NULL,
	album TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	favorite BOOLEAN NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'processing',
	date_added DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,

	-- Files, relative to the library root
	vocals_path TEXT NOT NULL DEFAULT '',
	instrumental_path TEXT NOT NULL DEFAULT '',
	original_path TEXT NOT NULL DEFAULT '',
	thumbnail_path TEXT NOT NULL DEFAULT '',
	cover_art_path TEXT NOT NULL DEFAULT '',

	-- Provenance
	source TEXT NOT NULL DEFAULT '',
	source_url TEXT NOT NULL DEFAULT '',
	video_id TEXT NOT NULL DEFAULT '',
	genre TEXT NOT NULL DEFAULT '',
	language TEXT NOT NULL DEFAULT '',
	release_date TEXT NOT NULL DEFAULT '',
	year INTEGER NOT NULL DEFAULT 0,
	explicit BOOLEAN NOT NULL DEFAULT 0,

	-- iTunes / MusicBrainz
	itunes_track_id INTEGER NOT NULL DEFAULT 0,
	itunes_artist_id INTEGER NOT NULL DEFAULT 0,
	itunes_collection_id INTEGER NOT NULL DEFAULT 0,
	itunes_preview_url TEXT NOT NULL DEFAULT '',
	itunes_artwork_url TEXT NOT NULL DEFAULT '',
	musicbrainz_id TEXT NOT NULL DEFAULT '',

	-- YouTube
	channel TEXT NOT NULL DEFAULT '',
	channel_id TEXT NOT NULL DEFAULT '',
	uploader TEXT NOT NULL DEFAULT '',
	youtube_tags TEXT NOT NULL DEFAULT '[]',
	youtube_raw TEXT,

	-- Lyrics
	lyrics TEXT NOT NULL DEFAULT '',
	synced_lyrics TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_songs_date_added ON songs(date_added);
CREATE INDEX IF NOT EXISTS idx_songs_artist ON songs(artist);
CREATE INDEX IF NOT EXISTS idx_songs_video_id ON songs(video_id);

CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	status TEXT NOT NULL,
	filename TEXT NOT NULL DEFAULT '',
	song_id TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	artist TEXT NOT NULL DEFAULT '',
	progress REAL NOT NULL DEFAULT 0,
	status_message TEXT NOT NULL DEFAULT '',
	task_id TEXT NOT NULL DEFAULT '',
	dismissed BOOLEAN NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	started_at DATETIME,
	completed_at DATETIME,
	error TEXT
);

-- Prevent duplicate active jobs for the same song
CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_active_song ON jobs(song_id, type)
WHERE status IN ('pending', 'processing');

CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);

CREATE TABLE IF NOT EXISTS cache (
	key TEXT PRIMARY KEY,
	data BLOB,
	expires_at DATETIME
);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`
