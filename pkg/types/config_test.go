package types

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{
			name:    "default config is valid",
			mutate:  func(c *Config) {},
			wantErr: nil,
		},
		{
			name:    "empty assets dir returns ErrAssetsDirEmpty",
			mutate:  func(c *Config) { c.AssetsDir = "" },
			wantErr: ErrAssetsDirEmpty,
		},
		{
			name:    "empty output dir returns ErrOutputDirEmpty",
			mutate:  func(c *Config) { c.OutputDir = "" },
			wantErr: ErrOutputDirEmpty,
		},
		{
			name:    "empty rarity table returns ErrRarityTableEmpty",
			mutate:  func(c *Config) { c.RarityTable = "" },
			wantErr: ErrRarityTableEmpty,
		},
		{
			name:    "empty extension returns ErrAssetExtEmpty",
			mutate:  func(c *Config) { c.AssetExt = "" },
			wantErr: ErrAssetExtEmpty,
		},
		{
			name:    "zero group size returns ErrGroupSizeInvalid",
			mutate:  func(c *Config) { c.GroupSize = 0 },
			wantErr: ErrGroupSizeInvalid,
		},
		{
			name:    "negative retries returns ErrMaxRetriesNegative",
			mutate:  func(c *Config) { c.MaxRetries = -1 },
			wantErr: ErrMaxRetriesNegative,
		},
		{
			name:    "zero retries means unbounded and is valid",
			mutate:  func(c *Config) { c.MaxRetries = 0 },
			wantErr: nil,
		},
		{
			name:    "rule without when clause returns ErrRuleInvalid",
			mutate:  func(c *Config) { c.Rules = []RuleSpec{{Name: "empty"}} },
			wantErr: ErrRuleInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			cfg.Rules = append([]RuleSpec(nil), valid.Rules...)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}
