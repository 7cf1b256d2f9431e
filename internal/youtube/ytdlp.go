package youtube

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

const progressInterval = 500 * time.Millisecond

// YTDLP executes the yt-dlp binary through go-ytdlp.
type YTDLP struct {
	bin string
}

// NewYTDLP uses bin as the executable; empty means "yt-dlp" from PATH.
func NewYTDLP(bin string) *YTDLP {
	return &YTDLP{bin: bin}
}

func (y *YTDLP) command() *ytdlp.Command {
	cmd := ytdlp.New().NoWarnings().IgnoreConfig()
	if y.bin != "" {
		cmd = cmd.SetExecutable(y.bin)
	}
	return cmd
}

func (y *YTDLP) DumpJSON(ctx context.Context, target string, flat bool, limit int) ([]byte, error) {
	cmd := y.command().DumpSingleJSON().SkipDownload()
	if flat {
		cmd = cmd.FlatPlaylist()
		if limit > 0 {
			cmd = cmd.PlaylistEnd(limit)
		}
	} else {
		cmd = cmd.NoPlaylist()
	}

	res, err := cmd.Run(ctx, target)
	if err != nil {
		return nil, wrapRunError(res, err)
	}
	return []byte(res.Stdout), nil
}

func (y *YTDLP) DownloadAudio(ctx context.Context, target, outputTemplate string, progress ProgressFunc) error {
	cmd := y.command().
		NoPlaylist().
		ExtractAudio().
		AudioFormat("mp3").
		AudioQuality("0").
		WriteThumbnail().
		Output(outputTemplate)

	if progress != nil {
		cmd = cmd.ProgressFunc(progressInterval, func(p ytdlp.ProgressUpdate) {
			progress(p.Percent())
		})
	}

	res, err := cmd.Run(ctx, target)
	if err != nil {
		return wrapRunError(res, err)
	}
	return nil
}

func wrapRunError(res *ytdlp.Result, err error) error {
	if res == nil {
		return err
	}
	stderr := strings.TrimSpace(res.Stderr)
	if stderr == "" {
		return fmt.Errorf("exit code %d: %w", res.ExitCode, err)
	}
	if i := strings.LastIndex(stderr, "ERROR:"); i >= 0 {
		stderr = strings.TrimSpace(stderr[i+len("ERROR:"):])
	}
	return fmt.Errorf("%s: %w", stderr, err)
}
