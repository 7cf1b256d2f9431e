package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

const (
	ControlVocalVolume        = "vocal_volume"
	ControlInstrumentalVolume = "instrumental_volume"
	ControlLyricsSize         = "lyrics_size"
)

// PerformanceControls are shared playback settings synced across devices.
type PerformanceControls struct {
	VocalVolume        int    `json:"vocal_volume"`
	InstrumentalVolume int    `json:"instrumental_volume"`
	LyricsSize         string `json:"lyrics_size"`
}

func DefaultPerformanceControls() PerformanceControls {
	return PerformanceControls{
		VocalVolume:        0,
		InstrumentalVolume: 100,
		LyricsSize:         "medium",
	}
}

var lyricsSizes = map[string]bool{"small": true, "medium": true, "large": true}

// Apply validates value for control and stores it, returning the normalized value.
func (c *PerformanceControls) Apply(control string, value json.RawMessage) (interface{}, error) {
	switch control {
	case ControlVocalVolume, ControlInstrumentalVolume:
		var f float64
		if err := json.Unmarshal(value, &f); err != nil {
			return nil, fmt.Errorf("%s must be a number", control)
		}
		if f < 0 || f > 100 || math.IsNaN(f) {
			return nil, fmt.Errorf("%s must be between 0 and 100", control)
		}
		v := int(math.Round(f))
		if control == ControlVocalVolume {
			c.VocalVolume = v
		} else {
			c.InstrumentalVolume = v
		}
		return v, nil
	case ControlLyricsSize:
		var s string
		if err := json.Unmarshal(value, &s); err != nil || !lyricsSizes[s] {
			return nil, fmt.Errorf("%s must be one of: small, medium, large", control)
		}
		c.LyricsSize = s
		return s, nil
	}
	return nil, fmt.Errorf("unknown control: %s", control)
}
