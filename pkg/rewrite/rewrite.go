package rewrite

import (
	"errors"
	"fmt"

	"github.com/platinummonkey/modloader/pkg/ident"
	"github.com/platinummonkey/modloader/pkg/image"
)

// DefaultTypeName is the well-known type renamed in provisioned images
const DefaultTypeName = "ModuleLoader.SubModule"

var (
	// ErrTypeNotFound is returned when the template lacks the well-known
	// type, which means the template is malformed
	ErrTypeNotFound = errors.New("well-known type not found in template")
	// ErrEmptyName is returned for an empty target name
	ErrEmptyName = errors.New("target name is empty")
)

// Spec describes one rewrite
type Spec struct {
	// Template is the encoded template image
	Template []byte
	// Name becomes the image name verbatim and, sanitized, the type name
	Name string
	// TypeName is the full name of the type to rename. Empty means
	// DefaultTypeName.
	TypeName string
}

// Apply runs Rewrite, defaulting the type name
func (s Spec) Apply() ([]byte, error) {
	typeName := s.TypeName
	if typeName == "" {
		typeName = DefaultTypeName
	}
	return Rewrite(s.Template, s.Name, typeName)
}

// Rewrite returns a copy of the template image named name, with the type
// typeName renamed to the identifier form of name in its own namespace.
// Image names are not restricted to identifiers and are kept verbatim.
//
// The output depends only on the inputs: the same template and name always
// give the same bytes, including the build ID.
func Rewrite(template []byte, name, typeName string) ([]byte, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	img, err := image.Decode(template)
	if err != nil {
		return nil, fmt.Errorf("failed to decode template: %w", err)
	}

	i, ok := img.FindType(typeName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, typeName)
	}

	img.Name = name
	img.Types[i].Name = ident.Sanitize(name)

	out, err := image.Encode(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return out, nil
}
