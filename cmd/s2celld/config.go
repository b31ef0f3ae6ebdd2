package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/iwpnd/s2cell"
)

type config struct {
	Addr           string
	UnionURI       string
	UnionNormalize bool
	CacheMaxCells  int64
	MaxCellsLimit  int
}

func loadConfig(v *viper.Viper) (config, error) {
	cfg := config{
		Addr:           v.GetString("addr"),
		UnionURI:       v.GetString("union_uri"),
		UnionNormalize: v.GetBool("union_normalize"),
		CacheMaxCells:  v.GetInt64("cache_max_cells"),
		MaxCellsLimit:  v.GetInt("max_cells_limit"),
	}
	if cfg.Addr == "" {
		return cfg, errors.New("addr must not be empty")
	}
	if cfg.UnionURI != "" {
		if _, err := s2cell.ParseLocation(cfg.UnionURI); err != nil {
			return cfg, errors.Wrap(err, "union_uri")
		}
	}
	if cfg.CacheMaxCells < 1 {
		return cfg, errors.Errorf("cache_max_cells must be positive, got %d", cfg.CacheMaxCells)
	}
	if cfg.MaxCellsLimit < 1 {
		return cfg, errors.Errorf("max_cells_limit must be positive, got %d", cfg.MaxCellsLimit)
	}
	return cfg, nil
}
