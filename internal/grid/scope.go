package grid

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Mode selects which area a run covers.
type Mode string

const (
	ModeRegion   Mode = "region"
	ModePriority Mode = "priority"
	ModeFull     Mode = "full"
)

// Scope fully determines a point sequence. It is persisted with a run so a
// resumed run regenerates the same points.
type Scope struct {
	Mode      Mode     `json:"mode"`
	Region    string   `json:"region,omitempty"`
	Priority  []string `json:"priority,omitempty"`
	SpacingKM float64  `json:"spacing_km"`
	MaxPoints int      `json:"max_points,omitempty"`
}

// Points generates the scope's point sequence, truncated to MaxPoints when set.
func (s Scope) Points() ([]Point, error) {
	var (
		points []Point
		err    error
	)
	switch s.Mode {
	case ModeRegion:
		if strings.TrimSpace(s.Region) == "" {
			return nil, eris.New("grid: region scope requires a region name")
		}
		points, err = ForRegion(s.SpacingKM, s.Region)
	case ModePriority:
		priority := s.Priority
		if len(priority) == 0 {
			priority = DefaultPriority
		}
		points, err = Prioritized(s.SpacingKM, priority)
	case ModeFull:
		points, err = Full(s.SpacingKM)
	default:
		return nil, eris.Errorf("grid: unknown scope mode %q", s.Mode)
	}
	if err != nil {
		return nil, err
	}
	if s.MaxPoints > 0 && len(points) > s.MaxPoints {
		points = points[:s.MaxPoints]
	}
	return points, nil
}

// String renders the scope for log lines.
func (s Scope) String() string {
	switch s.Mode {
	case ModeRegion:
		return "region " + strings.ToUpper(s.Region)
	case ModePriority:
		return "priority"
	default:
		return string(s.Mode)
	}
}
