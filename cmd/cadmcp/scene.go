package main

import (
	"context"
	"fmt"
	"os"

	"github.com/chazu/cadmcp/pkg/document"
	"github.com/chazu/cadmcp/pkg/protocol"
	"gopkg.in/yaml.v3"
)

// scene is a YAML file holding create_objects records:
//
//	objects:
//	  - type: BOX
//	    name: top
//	    params: {width: 800, length: 500, height: 20}
//	    translation: [0, 0, 710]
type scene struct {
	Objects []map[string]any `yaml:"objects"`
}

// loadScene creates the objects of the scene file at path in doc and
// returns how many were created.
func loadScene(ctx context.Context, doc *document.Document, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var sc scene
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	if len(sc.Objects) == 0 {
		return 0, nil
	}
	objects := make([]any, len(sc.Objects))
	for i, o := range sc.Objects {
		objects[i] = o
	}
	_, err = doc.Execute(ctx, protocol.Request{Type: "create_objects", Params: map[string]any{"objects": objects}})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return len(objects), nil
}
