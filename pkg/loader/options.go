package loader

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/modloader/pkg/config"
	"github.com/platinummonkey/modloader/pkg/observability"
	"github.com/platinummonkey/modloader/pkg/selector"
)

// OptionsFromConfig builds resolver options from the resolver configuration.
// Locate and HostVersion are left for the host to supply.
func OptionsFromConfig(cfg config.ResolverConfig, logger *logrus.Logger, metrics *observability.Metrics) (Options, error) {
	relation, err := cfg.CompatibilityRelation()
	if err != nil {
		return Options{}, err
	}

	var linker Linker
	switch cfg.Linker {
	case config.LinkerPlugin:
		linker = NewPluginLinker(cfg.PluginCacheDir, logger)
	case config.LinkerStatic, "":
		linker = NewStaticLinker(nil)
	default:
		return Options{}, fmt.Errorf("invalid linker: %s", cfg.Linker)
	}

	return Options{
		Dir:          cfg.Dir,
		Filter:       cfg.Filter,
		AttributeKey: cfg.AttributeKey,
		Contract:     cfg.Contract,
		Order:        cfg.Order,
		Policy: selector.Policy{
			Relation:   relation,
			FailClosed: cfg.FailClosed,
		},
		Linker:  linker,
		Logger:  logger,
		Metrics: metrics,
	}, nil
}
