package collector

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/places-collector/internal/grid"
	"github.com/sells-group/places-collector/internal/model"
)

// Files written into an output directory.
const (
	ProgressFile = "progress.json"
	EntitiesFile = "entities.json"
	LogFile      = "collection.log"
)

// ErrNoCheckpoint is returned when an output directory holds no progress file.
var ErrNoCheckpoint = eris.New("collector: no checkpoint found")

// Progress is the persisted resume cursor of a run.
type Progress struct {
	RunID           string     `json:"run_id"`
	StartedAt       time.Time  `json:"started_at"`
	LastUpdated     time.Time  `json:"last_updated"`
	TotalPoints     int        `json:"total_points"`
	CompletedPoints int        `json:"completed_points"`
	CurrentIndex    int        `json:"current_index"`
	EntitiesFound   int        `json:"entities_found"`
	Errors          int        `json:"errors"`
	Scope           grid.Scope `json:"scope"`
}

// Done reports whether every point has been processed.
func (p Progress) Done() bool {
	return p.CurrentIndex >= p.TotalPoints
}

// Percent returns completion as a percentage of total points.
func (p Progress) Percent() float64 {
	if p.TotalPoints == 0 {
		return 0
	}
	return float64(p.CompletedPoints) / float64(p.TotalPoints) * 100
}

// Snapshot is the persisted entity catalog.
type Snapshot struct {
	CollectionDate time.Time      `json:"collection_date"`
	TotalEntities  int            `json:"total_entities"`
	Entities       []model.Entity `json:"entities"`
}

// Checkpoint reads and writes the state files of one output directory.
type Checkpoint struct {
	dir string
}

// NewCheckpoint returns a Checkpoint rooted at dir.
func NewCheckpoint(dir string) *Checkpoint {
	return &Checkpoint{dir: dir}
}

// Dir returns the output directory.
func (c *Checkpoint) Dir() string { return c.dir }

// ProgressPath returns the path of the progress file.
func (c *Checkpoint) ProgressPath() string { return filepath.Join(c.dir, ProgressFile) }

// EntitiesPath returns the path of the entities file.
func (c *Checkpoint) EntitiesPath() string { return filepath.Join(c.dir, EntitiesFile) }

// LogPath returns the path of the run log.
func (c *Checkpoint) LogPath() string { return filepath.Join(c.dir, LogFile) }

// Save writes the entity snapshot and then the progress file. A reader never
// sees progress that points past the entities on disk.
func (c *Checkpoint) Save(p Progress, entities []model.Entity, now time.Time) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return eris.Wrap(err, "collector: create output dir")
	}
	if entities == nil {
		entities = []model.Entity{}
	}
	snap := Snapshot{CollectionDate: now, TotalEntities: len(entities), Entities: entities}
	if err := writeJSON(c.EntitiesPath(), snap); err != nil {
		return eris.Wrap(err, "collector: write entities")
	}
	if err := writeJSON(c.ProgressPath(), p); err != nil {
		return eris.Wrap(err, "collector: write progress")
	}
	return nil
}

// LoadProgress reads the progress file, returning ErrNoCheckpoint when absent.
func (c *Checkpoint) LoadProgress() (Progress, error) {
	var p Progress
	if err := readJSON(c.ProgressPath(), &p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Progress{}, eris.Wrapf(ErrNoCheckpoint, "in %s", c.dir)
		}
		return Progress{}, eris.Wrap(err, "collector: read progress")
	}
	return p, nil
}

// LoadSnapshot reads the entities file. A missing file yields an empty snapshot.
func (c *Checkpoint) LoadSnapshot() (Snapshot, error) {
	var s Snapshot
	if err := readJSON(c.EntitiesPath(), &s); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{Entities: []model.Entity{}}, nil
		}
		return Snapshot{}, eris.Wrap(err, "collector: read entities")
	}
	if s.Entities == nil {
		s.Entities = []model.Entity{}
	}
	return s, nil
}

// writeJSON replaces path atomically through a temp file in the same directory.
func writeJSON(path string, v any) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
