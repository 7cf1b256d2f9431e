// Package separation splits songs into vocal and instrumental stems with Demucs.
package separation

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/cesargomez89/openkaraoke/internal/constants"
	"github.com/cesargomez89/openkaraoke/internal/domain"
	"github.com/cesargomez89/openkaraoke/internal/library"
	"github.com/cesargomez89/openkaraoke/internal/tagging"
)

var tqdmRe = regexp.MustCompile(`(\d{1,3})%\|`)

// StopFlag is a cooperative cancellation signal checked on every progress tick.
type StopFlag struct {
	stopped atomic.Bool
}

func (f *StopFlag) Stop() { f.stopped.Store(true) }

func (f *StopFlag) Stopped() bool { return f != nil && f.stopped.Load() }

// ProgressFunc receives separation progress (0..100) with a status message.
type ProgressFunc func(percent float64, message string)

type Config struct {
	Bin    string
	Model  string
	Device string
}

type Result struct {
	VocalsPath       string
	InstrumentalPath string
	Device           string
	DurationMs       int64
}

type Separator struct {
	runner Runner
	logger *slog.Logger
	cfg    Config
}

func New(cfg Config, runner Runner, logger *slog.Logger) *Separator {
	if cfg.Bin == "" {
		cfg.Bin = constants.DefaultDemucsBin
	}
	if cfg.Model == "" {
		cfg.Model = constants.DefaultDemucsModel
	}
	if cfg.Device == "" {
		cfg.Device = constants.DeviceAuto
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Separator{cfg: cfg, runner: runner, logger: logger}
}

// ResolveDevice maps "auto" to cuda when nvidia-smi lists a GPU.
func (s *Separator) ResolveDevice(ctx context.Context) string {
	switch s.cfg.Device {
	case constants.DeviceCUDA, constants.DeviceCPU:
		return s.cfg.Device
	}
	if err := s.runner.Run(ctx, "nvidia-smi", []string{"-L"}, nil); err != nil {
		return constants.DeviceCPU
	}
	return constants.DeviceCUDA
}

// Separate runs Demucs on input and moves the stems into outDir as
// vocals.mp3 and instrumental.mp3.
func (s *Separator) Separate(ctx context.Context, input, outDir string, progress ProgressFunc, stop *StopFlag) (*Result, error) {
	if _, err := os.Stat(input); err != nil {
		return nil, fmt.Errorf("input audio not found: %w", err)
	}
	if err := library.EnsureDir(outDir); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = func(float64, string) {}
	}

	work, err := os.MkdirTemp(outDir, ".demucs-")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(work)

	device := s.ResolveDevice(ctx)
	progress(0, "Separating vocals on "+device)

	err = s.run(ctx, input, work, device, progress, stop)
	if err != nil && device == constants.DeviceCUDA && !errors.Is(err, domain.ErrStopProcessing) {
		s.logger.Warn("CUDA separation failed, retrying on CPU", "error", err)
		device = constants.DeviceCPU
		progress(0, "Retrying separation on cpu")
		err = s.run(ctx, input, work, device, progress, stop)
	}
	if err != nil {
		return nil, err
	}

	vocals, noVocals, err := findStems(work)
	if err != nil {
		return nil, err
	}

	res := &Result{
		VocalsPath:       filepath.Join(outDir, constants.VocalsFile),
		InstrumentalPath: filepath.Join(outDir, constants.InstrumentalFile),
		Device:           device,
	}
	if err := library.MoveFile(vocals, res.VocalsPath); err != nil {
		return nil, fmt.Errorf("move vocals: %w", err)
	}
	if err := library.MoveFile(noVocals, res.InstrumentalPath); err != nil {
		return nil, fmt.Errorf("move instrumental: %w", err)
	}

	if d, err := tagging.MP3Duration(res.InstrumentalPath); err == nil {
		res.DurationMs = d.Milliseconds()
	} else {
		s.logger.Warn("could not measure stem duration", "error", err)
	}

	progress(100, "Separation complete")
	return res, nil
}

func (s *Separator) run(ctx context.Context, input, work, device string, progress ProgressFunc, stop *StopFlag) error {
	if stop.Stopped() {
		return domain.ErrStopProcessing
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	args := []string{
		"--two-stems=vocals",
		"--mp3",
		"-n", s.cfg.Model,
		"-d", device,
		"-o", work,
		input,
	}
	s.logger.Debug("running demucs", "bin", s.cfg.Bin, "args", strings.Join(args, " "))

	last := -1
	err := s.runner.Run(runCtx, s.cfg.Bin, args, func(line string) {
		if stop.Stopped() {
			cancel()
			return
		}
		pct, ok := ParseProgress(line)
		if !ok || pct == last {
			return
		}
		last = pct
		progress(float64(pct), fmt.Sprintf("Separating vocals: %d%%", pct))
	})

	if stop.Stopped() || ctx.Err() != nil {
		return domain.ErrStopProcessing
	}
	if err != nil {
		return fmt.Errorf("demucs failed: %w", err)
	}
	return nil
}

// ParseProgress extracts the last tqdm percentage from a stderr line.
func ParseProgress(line string) (int, bool) {
	m := tqdmRe.FindAllStringSubmatch(line, -1)
	if len(m) == 0 {
		return 0, false
	}
	pct, err := strconv.Atoi(m[len(m)-1][1])
	if err != nil || pct > 100 {
		return 0, false
	}
	return pct, true
}

// findStems locates <work>/<model>/<track>/{vocals,no_vocals}.mp3.
func findStems(work string) (vocals, noVocals string, err error) {
	err = filepath.WalkDir(work, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return walkErr
		}
		switch strings.ToLower(d.Name()) {
		case "vocals.mp3":
			vocals = p
		case "no_vocals.mp3":
			noVocals = p
		}
		return nil
	})
	if err != nil {
		return "", "", fmt.Errorf("walk demucs output: %w", err)
	}
	if vocals == "" || noVocals == "" {
		return "", "", fmt.Errorf("demucs output incomplete in %s", work)
	}
	return vocals, noVocals, nil
}
