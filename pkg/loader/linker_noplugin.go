//go:build !((linux || darwin) && cgo)

package loader

import (
	"github.com/platinummonkey/modloader/pkg/image"
)

func (l *PluginLinker) open(img *image.Image) (Symbols, error) {
	return nil, ErrPluginUnsupported
}
