package credentials

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/userpanel/internal/domain/model"
)

// LoadYAML reads a credentials file. See DecodeYAML for the format.
func LoadYAML(path string) (*Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open credentials file: %w", err)
	}
	defer f.Close()

	arr, err := DecodeYAML(f)
	if err != nil {
		return nil, fmt.Errorf("decode credentials file %s: %w", path, err)
	}
	return arr, nil
}

// DecodeYAML decodes a top-level mapping of username to password:
//
//	alice: pw1
//	bob: pw2
//
// Document order is preserved. An empty document yields an empty Array.
func DecodeYAML(r io.Reader) (*Array, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return NewArray(), nil
		}
		return nil, err
	}
	if len(doc.Content) == 0 {
		return NewArray(), nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of username to password", root.Line)
	}

	entries := make([]model.Credential, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode || val.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: username and password must be scalars", key.Line)
		}
		if key.Value == "" {
			return nil, fmt.Errorf("line %d: empty username", key.Line)
		}
		entries = append(entries, model.Credential{Username: key.Value, Password: val.Value})
	}
	return NewArray(entries...), nil
}
