//go:build (linux || darwin) && cgo

package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"plugin"

	"github.com/platinummonkey/modloader/pkg/image"
)

func (l *PluginLinker) open(img *image.Image) (Symbols, error) {
	soPath, err := l.materialize(img)
	if err != nil {
		return nil, err
	}

	p, err := plugin.Open(soPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open plugin %s: %w", soPath, err)
	}

	l.log.Debugf("Opened plugin %s for module %s", soPath, img.Name)
	return pluginSymbols{p: p}, nil
}

// materialize writes the payload to <cache>/<build id>.so unless an
// identical file is already there
func (l *PluginLinker) materialize(img *image.Image) (string, error) {
	if err := os.MkdirAll(l.CacheDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create plugin cache: %w", err)
	}

	soPath := filepath.Join(l.CacheDir, img.BuildID.String()+".so")
	if existing, err := os.ReadFile(soPath); err == nil && bytes.Equal(existing, img.Code) {
		return soPath, nil
	}

	tmp, err := os.CreateTemp(l.CacheDir, ".payload-*")
	if err != nil {
		return "", fmt.Errorf("failed to stage plugin payload: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(img.Code); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write plugin payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write plugin payload: %w", err)
	}
	if err := os.Rename(tmp.Name(), soPath); err != nil {
		return "", fmt.Errorf("failed to install plugin payload: %w", err)
	}

	return soPath, nil
}

type pluginSymbols struct {
	p *plugin.Plugin
}

func (s pluginSymbols) Lookup(name string) (any, error) {
	sym, err := s.p.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSymbolNotFound, name, err)
	}
	return sym, nil
}
