package types

import "errors"

// Config holds the project settings loaded from config.yaml. Paths are
// relative to the project directory unless absolute.
type Config struct {
	AssetsDir   string         `json:"assets_dir" yaml:"assets_dir" mapstructure:"assets_dir"`
	OutputDir   string         `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`
	RarityTable string         `json:"rarity_table" yaml:"rarity_table" mapstructure:"rarity_table"`
	AssetExt    string         `json:"asset_ext" yaml:"asset_ext" mapstructure:"asset_ext"`
	GroupSize   int            `json:"group_size" yaml:"group_size" mapstructure:"group_size"`
	MaxRetries  int            `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
	Seed        int64          `json:"seed" yaml:"seed" mapstructure:"seed"`
	Rules       []RuleSpec     `json:"rules" yaml:"rules" mapstructure:"rules"`
	Metadata    MetadataConfig `json:"metadata" yaml:"metadata" mapstructure:"metadata"`
}

// MetadataConfig is the base descriptor every item's metadata starts from.
type MetadataConfig struct {
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Description string `json:"description" yaml:"description" mapstructure:"description"`
	ImageBase   string `json:"image_base" yaml:"image_base" mapstructure:"image_base"`
}

// RuleSpec is a declarative cross-layer validation rule. A tuple is
// rejected when every When clause matches and the Unless clauses, if any,
// do not all match. Keys are layer names; values are trait names.
type RuleSpec struct {
	Name   string              `json:"name" yaml:"name" mapstructure:"name"`
	When   map[string][]string `json:"when" yaml:"when" mapstructure:"when"`
	Unless map[string][]string `json:"unless,omitempty" yaml:"unless,omitempty" mapstructure:"unless"`
}

// Defaults applied when config.yaml leaves a key unset.
const (
	DefaultAssetsDir   = "assets"
	DefaultOutputDir   = "output"
	DefaultRarityTable = "rarity table.csv"
	DefaultAssetExt    = "png"
	DefaultGroupSize   = 100
	DefaultMaxRetries  = 1_000_000
)

// Config validation errors.
var (
	ErrAssetsDirEmpty     = errors.New("assets_dir must not be empty")
	ErrOutputDirEmpty     = errors.New("output_dir must not be empty")
	ErrRarityTableEmpty   = errors.New("rarity_table must not be empty")
	ErrAssetExtEmpty      = errors.New("asset_ext must not be empty")
	ErrGroupSizeInvalid   = errors.New("group_size must be positive")
	ErrMaxRetriesNegative = errors.New("max_retries must not be negative")
	ErrRuleInvalid        = errors.New("rule must be named and have at least one when clause")
)

// DefaultConfig returns the settings applied when config.yaml leaves keys
// unset. It carries no validation rules; rules name layers, so they only
// make sense for a specific rarity table.
func DefaultConfig() Config {
	return Config{
		AssetsDir:   DefaultAssetsDir,
		OutputDir:   DefaultOutputDir,
		RarityTable: DefaultRarityTable,
		AssetExt:    DefaultAssetExt,
		GroupSize:   DefaultGroupSize,
		MaxRetries:  DefaultMaxRetries,
		Metadata: MetadataConfig{
			Name:        "Item #",
			Description: "",
			ImageBase:   "ipfs://CID",
		},
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.AssetsDir == "" {
		return ErrAssetsDirEmpty
	}
	if c.OutputDir == "" {
		return ErrOutputDirEmpty
	}
	if c.RarityTable == "" {
		return ErrRarityTableEmpty
	}
	if c.AssetExt == "" {
		return ErrAssetExtEmpty
	}
	if c.GroupSize <= 0 {
		return ErrGroupSizeInvalid
	}
	if c.MaxRetries < 0 {
		return ErrMaxRetriesNegative
	}
	for _, r := range c.Rules {
		if r.Name == "" || len(r.When) == 0 {
			return ErrRuleInvalid
		}
	}
	return nil
}
