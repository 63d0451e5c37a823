package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"advisor/pkg/model"
)

// Config represents the application configuration
type Config struct {
	Weights    WeightsConfig       `yaml:"weights"`
	Tiers      TiersConfig         `yaml:"tiers"`
	Targets    TargetsConfig       `yaml:"targets"`
	Confidence ConfidenceConfig    `yaml:"confidence"`
	Retention  RetentionConfig     `yaml:"retention"`
	Runner     RunnerConfig        `yaml:"runner"`
	Universes  map[string][]string `yaml:"universes"`
	DataDir    string              `yaml:"data_dir"`
	StateDir   string              `yaml:"state_dir"`
}

// WeightsConfig holds the category weights. They must sum to 1.0.
type WeightsConfig struct {
	Trend      float64 `yaml:"trend"`
	Momentum   float64 `yaml:"momentum"`
	Volatility float64 `yaml:"volatility"`
	Volume     float64 `yaml:"volume"`
}

// ForCategory returns the configured weight for a category
func (w WeightsConfig) ForCategory(c model.Category) float64 {
	switch c {
	case model.CategoryTrend:
		return w.Trend
	case model.CategoryMomentum:
		return w.Momentum
	case model.CategoryVolatility:
		return w.Volatility
	case model.CategoryVolume:
		return w.Volume
	}
	return 0
}

// TiersConfig holds the score thresholds for each tier.
// Thresholds must be strictly descending: strong_buy > buy > sell > strong_sell.
type TiersConfig struct {
	StrongBuy  float64 `yaml:"strong_buy"`  // score >= StrongBuy
	Buy        float64 `yaml:"buy"`         // score >= Buy
	Sell       float64 `yaml:"sell"`        // score <= Sell
	StrongSell float64 `yaml:"strong_sell"` // score <= StrongSell
}

// TierOffsets holds the per-tier target multiplier and adverse stop offset
type TierOffsets struct {
	Target float64 `yaml:"target"` // multiplier applied to current price
	Stop   float64 `yaml:"stop"`   // adverse fraction, e.g. 0.10 = 10%
}

// TargetsConfig maps each tier to its price offsets
type TargetsConfig struct {
	StrongBuy  TierOffsets `yaml:"strong_buy"`
	Buy        TierOffsets `yaml:"buy"`
	Hold       TierOffsets `yaml:"hold"`
	Sell       TierOffsets `yaml:"sell"`
	StrongSell TierOffsets `yaml:"strong_sell"`
}

// ForTier returns the offsets for a tier
func (t TargetsConfig) ForTier(tier model.Tier) TierOffsets {
	switch tier {
	case model.TierStrongBuy:
		return t.StrongBuy
	case model.TierBuy:
		return t.Buy
	case model.TierSell:
		return t.Sell
	case model.TierStrongSell:
		return t.StrongSell
	default:
		return t.Hold
	}
}

// ConfidenceConfig holds the thresholds for confidence levels. High requires
// both |score| and the indicator consistency ratio above the high thresholds,
// Medium both above the medium ones.
type ConfidenceConfig struct {
	HighScore         float64 `yaml:"high_score"`
	HighConsistency   float64 `yaml:"high_consistency"`
	MediumScore       float64 `yaml:"medium_score"`
	MediumConsistency float64 `yaml:"medium_consistency"`
}

// RetentionConfig controls reconciliation horizon and purge
type RetentionConfig struct {
	HorizonDays int `yaml:"horizon_days"` // trading-day reconciliation horizon
	MaxAgeDays  int `yaml:"max_age_days"` // calendar-day purge threshold
}

// RunnerConfig controls per-run fan-out
type RunnerConfig struct {
	Workers  int           `yaml:"workers"`
	Timeout  time.Duration `yaml:"timeout"`  // per-symbol timeout
	Lookback int           `yaml:"lookback"` // bars fetched per symbol
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Weights: WeightsConfig{
			Trend:      0.4,
			Momentum:   0.3,
			Volatility: 0.2,
			Volume:     0.1,
		},
		Tiers: TiersConfig{
			StrongBuy:  0.5,
			Buy:        0.2,
			Sell:       -0.2,
			StrongSell: -0.5,
		},
		Targets: TargetsConfig{
			StrongBuy:  TierOffsets{Target: 1.20, Stop: 0.10},
			Buy:        TierOffsets{Target: 1.10, Stop: 0.08},
			Hold:       TierOffsets{Target: 1.00, Stop: 0.05},
			Sell:       TierOffsets{Target: 0.95, Stop: 0.05},
			StrongSell: TierOffsets{Target: 0.80, Stop: 0.10},
		},
		Confidence: ConfidenceConfig{
			HighScore:         0.7,
			HighConsistency:   0.75,
			MediumScore:       0.4,
			MediumConsistency: 0.55,
		},
		Retention: RetentionConfig{
			HorizonDays: 1000,
			MaxAgeDays:  1000,
		},
		Runner: RunnerConfig{
			Workers:  10,
			Timeout:  30 * time.Second,
			Lookback: 260,
		},
		Universes: map[string][]string{
			"watchlist": {"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "TSLA", "JPM", "V", "JNJ"},
		},
		DataDir:  "data",
		StateDir: "state",
	}
}

// Load loads configuration from a YAML file, falling back to defaults when
// the file does not exist
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if dir := os.Getenv("ADVISOR_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}
	if dir := os.Getenv("ADVISOR_STATE_DIR"); dir != "" {
		cfg.StateDir = dir
	}

	return cfg, nil
}

const weightTolerance = 1e-9

// Validate checks the configuration. Any error here is systemic
// misconfiguration and aborts the run before per-symbol work begins.
func (c *Config) Validate() error {
	sum := c.Weights.Trend + c.Weights.Momentum + c.Weights.Volatility + c.Weights.Volume
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("category weights must sum to 1.0, got %.6f", sum)
	}
	for _, cat := range model.Categories {
		if c.Weights.ForCategory(cat) < 0 {
			return fmt.Errorf("weight for %s must be non-negative", cat)
		}
	}

	t := c.Tiers
	if !(t.StrongBuy > t.Buy && t.Buy > t.Sell && t.Sell > t.StrongSell) {
		return fmt.Errorf("tier thresholds must be strictly descending: strong_buy=%.2f buy=%.2f sell=%.2f strong_sell=%.2f",
			t.StrongBuy, t.Buy, t.Sell, t.StrongSell)
	}

	for _, tier := range []model.Tier{model.TierStrongBuy, model.TierBuy, model.TierHold, model.TierSell, model.TierStrongSell} {
		off := c.Targets.ForTier(tier)
		if off.Stop <= 0 || off.Stop >= 1 {
			return fmt.Errorf("stop offset for %s must be in (0, 1), got %.3f", tier, off.Stop)
		}
		if off.Target <= 0 {
			return fmt.Errorf("target multiplier for %s must be positive, got %.3f", tier, off.Target)
		}
		if tier.LongBiased() && off.Target < 1 {
			return fmt.Errorf("target multiplier for %s must be >= 1, got %.3f", tier, off.Target)
		}
		if !tier.LongBiased() && off.Target >= 1 {
			return fmt.Errorf("target multiplier for %s must be < 1, got %.3f", tier, off.Target)
		}
	}

	cc := c.Confidence
	if cc.HighScore < cc.MediumScore || cc.HighConsistency < cc.MediumConsistency {
		return fmt.Errorf("high confidence thresholds must not be below medium thresholds")
	}

	if c.Retention.HorizonDays < 1 {
		return fmt.Errorf("retention horizon must be at least 1 day")
	}
	if c.Runner.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.Runner.Lookback < 1 {
		return fmt.Errorf("lookback must be at least 1 bar")
	}
	return nil
}

// Universe resolves a named symbol universe from the configuration
func (c *Config) Universe(name string) ([]string, error) {
	symbols, ok := c.Universes[name]
	if !ok {
		names := make([]string, 0, len(c.Universes))
		for n := range c.Universes {
			names = append(names, n)
		}
		return nil, fmt.Errorf("unknown universe %q (available: %s)", name, strings.Join(names, ", "))
	}
	cleaned := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return cleaned, nil
}
