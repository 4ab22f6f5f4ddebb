package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/guimove/placefit/internal/model"
)

// StaticCollector loads an inventory from a YAML or JSON file.
// Used for testing, offline analysis, and CI pipelines.
type StaticCollector struct {
	filePath string
	reader   io.Reader
	inv      *model.Inventory
}

// NewStaticCollector creates a collector that reads from a file. A path of
// "-" reads standard input.
func NewStaticCollector(filePath string) *StaticCollector {
	if filePath == "-" {
		return &StaticCollector{filePath: filePath, reader: os.Stdin}
	}
	return &StaticCollector{filePath: filePath}
}

// NewStaticCollectorFromReader creates a collector that decodes r once.
func NewStaticCollectorFromReader(r io.Reader) *StaticCollector {
	return &StaticCollector{filePath: "-", reader: r}
}

// NewStaticCollectorFromInventory creates a collector from a pre-built inventory.
func NewStaticCollectorFromInventory(inv *model.Inventory) *StaticCollector {
	return &StaticCollector{inv: inv}
}

// Ping checks that the file exists.
func (s *StaticCollector) Ping(ctx context.Context) error {
	if s.inv != nil || s.reader != nil {
		return nil
	}
	if s.filePath == "" {
		return fmt.Errorf("static inventory: no file path configured")
	}
	if _, err := os.Stat(s.filePath); err != nil {
		return fmt.Errorf("static inventory file: %w", err)
	}
	return nil
}

// BackendType returns "static".
func (s *StaticCollector) BackendType() string {
	return "static"
}

// Collect loads and validates the inventory. Files that omit dimensions get
// the ones from opts.
func (s *StaticCollector) Collect(ctx context.Context, opts CollectOptions) (*model.Inventory, error) {
	if s.inv != nil {
		return finishInventory(s.inv, opts)
	}

	var data []byte
	var err error
	if s.reader != nil {
		data, err = io.ReadAll(s.reader)
	} else {
		data, err = os.ReadFile(s.filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("reading static inventory: %w", err)
	}

	inv, err := ParseInventory(data)
	if err != nil {
		return nil, fmt.Errorf("parsing static inventory %s: %w", s.filePath, err)
	}
	if inv.Source == "" {
		inv.Source = "static"
	}
	return finishInventory(inv, opts)
}

func finishInventory(inv *model.Inventory, opts CollectOptions) (*model.Inventory, error) {
	if len(inv.Services) == 0 && len(inv.Servers) == 0 {
		return nil, ErrNoInventory
	}
	if len(inv.Dimensions) == 0 {
		inv.Dimensions = append([]string(nil), opts.dimensions()...)
	}
	if err := inv.Validate(); err != nil {
		return nil, fmt.Errorf("invalid inventory: %w", err)
	}
	return inv, nil
}

// ParseInventory decodes an inventory document. YAML is a superset of JSON,
// so both are accepted.
func ParseInventory(data []byte) (*model.Inventory, error) {
	var inv model.Inventory
	if err := yaml.UnmarshalStrict(data, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// MarshalInventory encodes an inventory as "yaml" or "json".
func MarshalInventory(inv *model.Inventory, format string) ([]byte, error) {
	switch format {
	case "yaml", "yml":
		return yaml.Marshal(inv)
	case "json", "":
		return json.MarshalIndent(inv, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported inventory format %q", format)
	}
}
