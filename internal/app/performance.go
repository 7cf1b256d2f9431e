package app

import (
	"encoding/json"
	"sync"

	"github.com/cesargomez89/openkaraoke/internal/domain"
	"github.com/cesargomez89/openkaraoke/internal/logger"
	"github.com/cesargomez89/openkaraoke/internal/store"
)

// PerformanceService holds the shared performance controls. Updates are
// last-writer-wins and persisted to the settings table.
type PerformanceService struct {
	settings *store.SettingsRepo
	logger   *logger.Logger
	controls domain.PerformanceControls
	mu       sync.Mutex
}

// NewPerformanceService loads persisted controls, falling back to defaults.
func NewPerformanceService(settings *store.SettingsRepo, log *logger.Logger) *PerformanceService {
	s := &PerformanceService{
		settings: settings,
		logger:   log.WithComponent("performance"),
		controls: domain.DefaultPerformanceControls(),
	}
	if settings == nil {
		return s
	}
	raw, err := settings.Get(store.SettingPerformanceControls)
	if err != nil {
		s.logger.Warn("Failed to load performance controls", "error", err)
		return s
	}
	if raw != "" {
		c := domain.DefaultPerformanceControls()
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			s.logger.Warn("Ignoring corrupt performance controls", "error", err)
		} else {
			s.controls = c
		}
	}
	return s
}

func (s *PerformanceService) State() domain.PerformanceControls {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controls
}

// Update validates and applies one control, returning the normalized value
// and the resulting state.
func (s *PerformanceService) Update(control string, value json.RawMessage) (interface{}, domain.PerformanceControls, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.controls
	v, err := next.Apply(control, value)
	if err != nil {
		return nil, s.controls, domain.NewValidationError(err.Error(), map[string]string{"control": control})
	}
	s.controls = next

	if s.settings != nil {
		if raw, err := json.Marshal(next); err == nil {
			if err := s.settings.Set(store.SettingPerformanceControls, string(raw)); err != nil {
				s.logger.Warn("Failed to persist performance controls", "error", err)
			}
		}
	}
	return v, next, nil
}
