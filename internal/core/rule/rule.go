package rule

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule defines one statistic to maintain over one metric. Rules are loaded at
// startup from YAML files and fingerprinted for staleness detection.
type Rule struct {
	Name        string  `yaml:"name"`
	Metric      string  `yaml:"metric"`
	Statistic   string  `yaml:"statistic"`
	WindowSize  int     `yaml:"window_size"` // in samples; 0 means cumulative (whole stream)
	Exponent    float64 `yaml:"exponent"`    // power_sum only; defaults to 1
	Fingerprint string  // SHA-256 of the raw YAML file; computed at load time
}

// rawRule is the on-disk YAML shape.
type rawRule struct {
	Name       string   `yaml:"name"`
	Metric     string   `yaml:"metric"`
	Statistic  string   `yaml:"statistic"`
	WindowSize int      `yaml:"window_size"`
	Exponent   *float64 `yaml:"exponent"`
}

// Repository defines the interface for loading statistic rules.
type Repository interface {
	// Get returns the rule with the given name, or an error if not found.
	Get(ctx context.Context, name string) (*Rule, error)

	// List returns all loaded rules, optionally filtered by metric.
	List(ctx context.Context, metric string) ([]Rule, error)

	// GetRules returns all rules as a slice.
	GetRules() []Rule
}

// FileSystemRepository loads statistic rules from *.yaml files in a
// directory. Each file contains exactly one rule at the top level. Rules are
// loaded once at startup and cached in memory — no hot reload.
type FileSystemRepository struct {
	dir   string
	rules map[string]Rule // keyed by Name
}

// NewFileSystemRepository creates a new repository and eagerly loads all
// rules from dir. Returns an error if any rule file is malformed or invalid.
func NewFileSystemRepository(dir string) (*FileSystemRepository, error) {
	repo := &FileSystemRepository{
		dir:   dir,
		rules: make(map[string]Rule),
	}
	if err := repo.load(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *FileSystemRepository) load() error {
	info, err := os.Stat(r.dir)
	if os.IsNotExist(err) {
		return nil // no rules directory — valid (zero rules configured)
	}
	if err != nil {
		return fmt.Errorf("statistic rule dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("statistic rule path %q is not a directory", r.dir)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading statistic rule dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(r.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading rule file %s: %w", path, err)
		}

		var raw rawRule
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parsing rule file %s: %w", path, err)
		}
		if raw.Name == "" {
			continue // skip empty / comment-only files
		}

		rl, err := fromRaw(raw)
		if err != nil {
			return fmt.Errorf("rule %q: %w", raw.Name, err)
		}
		rl.Fingerprint = fmt.Sprintf("%x", sha256.Sum256(data))

		if _, exists := r.rules[rl.Name]; exists {
			return fmt.Errorf("rule %q: duplicate rule name (check multiple YAML files)", rl.Name)
		}
		r.rules[rl.Name] = rl
	}
	return nil
}

func fromRaw(raw rawRule) (Rule, error) {
	if raw.Metric == "" {
		return Rule{}, fmt.Errorf("metric must not be empty")
	}
	if !ValidStatistic(raw.Statistic) {
		return Rule{}, fmt.Errorf("unsupported statistic %q", raw.Statistic)
	}
	if raw.WindowSize < 0 {
		return Rule{}, fmt.Errorf("window_size must be >= 0 (0 means cumulative), got %d", raw.WindowSize)
	}

	exponent := 1.0
	if raw.Exponent != nil {
		if raw.Statistic != StatPowerSum {
			return Rule{}, fmt.Errorf("exponent is only valid for %s", StatPowerSum)
		}
		if math.IsNaN(*raw.Exponent) || math.IsInf(*raw.Exponent, 0) {
			return Rule{}, fmt.Errorf("exponent must be finite")
		}
		exponent = *raw.Exponent
	}

	return Rule{
		Name:       raw.Name,
		Metric:     raw.Metric,
		Statistic:  raw.Statistic,
		WindowSize: raw.WindowSize,
		Exponent:   exponent,
	}, nil
}

// Get returns the rule with the given name, or an error if not found.
func (r *FileSystemRepository) Get(_ context.Context, name string) (*Rule, error) {
	rl, ok := r.rules[name]
	if !ok {
		return nil, fmt.Errorf("statistic rule %q not found", name)
	}
	return &rl, nil
}

// List returns all loaded rules, optionally filtered by metric.
func (r *FileSystemRepository) List(_ context.Context, metric string) ([]Rule, error) {
	var out []Rule
	for _, rl := range r.rules {
		if metric != "" && rl.Metric != metric {
			continue
		}
		out = append(out, rl)
	}
	return out, nil
}

// GetRules returns all rules as a slice.
func (r *FileSystemRepository) GetRules() []Rule {
	rules := make([]Rule, 0, len(r.rules))
	for _, rl := range r.rules {
		rules = append(rules, rl)
	}
	return rules
}
