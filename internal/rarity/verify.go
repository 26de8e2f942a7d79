package rarity

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/traitforge/pkg/types"
)

const opVerify = "rarity.verify"

// VerifyAssets checks that every layer has a directory under assetsDir and
// every non-none trait has its asset file. The first miss is returned as a
// config error carrying the missing path.
func VerifyAssets(cfg types.EditionConfig, assetsDir, ext string) error {
	for _, l := range cfg.Layers {
		dir := filepath.Join(assetsDir, l.Name)
		info, err := os.Stat(dir)
		if err != nil {
			return &types.Error{Op: opVerify, Kind: types.KindConfig, Path: dir, Err: fmt.Errorf("layer %q trait directory missing", l.Name)}
		}
		if !info.IsDir() {
			return &types.Error{Op: opVerify, Kind: types.KindConfig, Path: dir, Err: fmt.Errorf("layer %q is not a directory", l.Name)}
		}
		for _, t := range l.Traits {
			if t == types.NoneTrait {
				continue
			}
			path := filepath.Join(assetsDir, filepath.FromSlash(types.AssetRef(l.Name, t, ext)))
			if _, err := os.Stat(path); err != nil {
				return &types.Error{Op: opVerify, Kind: types.KindConfig, Path: path, Err: fmt.Errorf("layer %q trait %q has no asset", l.Name, t)}
			}
		}
	}
	return nil
}
