package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/traitforge/internal/paths"
	"github.com/mesh-intelligence/traitforge/pkg/types"
)

const (
	configFileName = "config.yaml"
	configFileType = "yaml"
	envPrefix      = "TRAITFORGE"
	opConfig       = "cli.config"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# traitforge project configuration.
# Paths are relative to the project directory.

assets_dir: assets
output_dir: output
rarity_table: rarity table.csv
asset_ext: png

# Items per group when partitioning an edition.
group_size: 100

# Consecutive rejected draws tolerated before generation gives up (0: no limit).
max_retries: 1000000

# Random seed for generation and grouping (0: derive from the clock).
seed: 0

# Cross-layer validation rules. A combination is rejected when every "when"
# clause matches, unless every "unless" clause matches too.
rules: []
#  - name: no-yellow-pair
#    when:
#      eyes: [Yellow]
#      mouth: [Yellow]
#  - name: dark-body-needs-face
#    when:
#      body: [Black, Red]
#    unless:
#      face: [Black, Face, Sad]

metadata:
  name: "Item #"
  description: ""
  image_base: "ipfs://CID"
`

// loadConfig reads config.yaml from the user-wide config directory, then
// merges the project config directory over it. It creates the project
// config directory and a default config.yaml on first run. Environment
// variables prefixed TRAITFORGE_ override any key.
func loadConfig(configDir string) (types.Config, string, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return types.Config{}, "", fmt.Errorf("ensure config dir: %w", err)
	}
	projectFile := filepath.Join(configDir, configFileName)
	if err := ensureDefaultConfigFile(projectFile); err != nil {
		return types.Config{}, "", fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	def := types.DefaultConfig()
	v.SetDefault("assets_dir", def.AssetsDir)
	v.SetDefault("output_dir", def.OutputDir)
	v.SetDefault("rarity_table", def.RarityTable)
	v.SetDefault("asset_ext", def.AssetExt)
	v.SetDefault("group_size", def.GroupSize)
	v.SetDefault("max_retries", def.MaxRetries)
	v.SetDefault("seed", def.Seed)
	v.SetDefault("metadata.name", def.Metadata.Name)
	v.SetDefault("metadata.description", def.Metadata.Description)
	v.SetDefault("metadata.image_base", def.Metadata.ImageBase)
	v.SetConfigType(configFileType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var files []string
	if dir, err := paths.UserConfigDir(); err == nil {
		userFile := filepath.Join(dir, configFileName)
		if _, err := os.Stat(userFile); err == nil && userFile != projectFile {
			files = append(files, userFile)
		}
	}
	files = append(files, projectFile)

	var rules []types.RuleSpec
	for _, f := range files {
		v.SetConfigFile(f)
		if err := v.MergeInConfig(); err != nil {
			return types.Config{}, "", &types.Error{Op: opConfig, Kind: types.KindConfig, Path: f, Err: err}
		}
		r, ok, err := readRules(f)
		if err != nil {
			return types.Config{}, "", &types.Error{Op: opConfig, Kind: types.KindConfig, Path: f, Err: err}
		}
		if ok {
			rules = r
		}
	}

	cfg := types.Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, "", &types.Error{Op: opConfig, Kind: types.KindConfig, Path: projectFile, Err: err}
	}
	// Rule clauses are keyed by layer name, which viper would lowercase.
	cfg.Rules = rules

	if err := cfg.Validate(); err != nil {
		return types.Config{}, "", &types.Error{Op: opConfig, Kind: types.KindConfig, Path: projectFile, Err: err}
	}
	return cfg, projectFile, nil
}

// ensureDefaultConfigFile creates a default config.yaml if path does not
// exist.
func ensureDefaultConfigFile(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// readRules decodes the rules key of a config file. ok is false when the
// file does not set it.
func readRules(path string) ([]types.RuleSpec, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	var doc struct {
		Rules *[]types.RuleSpec `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, false, fmt.Errorf("parse rules: %w", err)
	}
	if doc.Rules == nil {
		return nil, false, nil
	}
	return *doc.Rules, true, nil
}
