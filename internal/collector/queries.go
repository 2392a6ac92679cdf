package collector

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

type queriesFile struct {
	Queries []string `yaml:"queries"`
}

// LoadQueries reads a YAML file of the form `queries: [...]`. Blank and
// repeated terms are dropped; an empty list is an error.
func LoadQueries(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, eris.Wrapf(err, "collector: read queries file %s", path)
	}
	var f queriesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "collector: parse queries file %s", path)
	}

	seen := make(map[string]bool, len(f.Queries))
	var out []string
	for _, q := range f.Queries {
		q = strings.TrimSpace(q)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	if len(out) == 0 {
		return nil, eris.Errorf("collector: queries file %s has no queries", path)
	}
	return out, nil
}
