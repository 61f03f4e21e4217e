package core

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ModelSpec describes one downloadable model variant.
// This is a data structure that defines model properties without behavior.
type ModelSpec struct {
	// Name is the short identifier used on the command line (e.g., "schnell")
	Name string
	// Repo is the Hugging Face repository the model is fetched from
	Repo string
	// SizeBytes is the expected total download size, used only to scale the
	// progress estimate — never to validate the download
	SizeBytes int64
}

// DefaultSizeBytes is the conservative size estimate used for identifiers
// absent from the catalog (~2.1 GiB). An estimate only scales a progress
// bar, so unknown models degrade to this rather than failing.
var DefaultSizeBytes = gib(2.1)

// Built-in catalog entries. The schnell figure reflects the full FP16
// repository; dev assumes the transformer weights only.
var builtinModels = []ModelSpec{
	{
		Name:      "schnell",
		Repo:      "black-forest-labs/FLUX.1-schnell",
		SizeBytes: gib(31.4),
	},
	{
		Name:      "dev",
		Repo:      "black-forest-labs/FLUX.1-dev",
		SizeBytes: gib(4.2),
	},
}

// gib converts a fractional GiB count to bytes.
func gib(n float64) int64 {
	return int64(n * float64(BytesPerGB))
}

// Catalog maps model identifiers to their remote source and expected size.
// The zero value is not usable; construct with DefaultCatalog or LoadCatalog.
type Catalog struct {
	models map[string]ModelSpec
}

// DefaultCatalog returns a catalog holding the built-in model table.
func DefaultCatalog() *Catalog {
	c := &Catalog{models: make(map[string]ModelSpec, len(builtinModels))}
	for _, m := range builtinModels {
		c.models[m.Name] = m
	}
	return c
}

// ExpectedSizeBytes returns the expected total download size for a model.
// Total over all inputs: identifiers absent from the catalog yield
// DefaultSizeBytes rather than an error.
func (c *Catalog) ExpectedSizeBytes(model string) int64 {
	if spec, ok := c.models[model]; ok && spec.SizeBytes > 0 {
		return spec.SizeBytes
	}
	return DefaultSizeBytes
}

// Resolve maps a model identifier to its spec. Unlike size estimation,
// resolution fails for unknown identifiers: without a remote source there
// is nothing to download, so the job must not spawn a subprocess.
func (c *Catalog) Resolve(model string) (ModelSpec, error) {
	spec, ok := c.models[model]
	if !ok {
		return ModelSpec{}, ErrUnknownModel(model)
	}
	return spec, nil
}

// Models returns the known model identifiers in sorted order.
func (c *Catalog) Models() []string {
	names := make([]string, 0, len(c.models))
	for name := range c.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// catalogFile is the YAML shape of an external model catalog.
type catalogFile struct {
	Models []catalogEntry `yaml:"models"`
}

type catalogEntry struct {
	Name string `yaml:"name"`
	Repo string `yaml:"repo"`
	// Size is a human string like "31.4GB"; parsed with ParseBytes
	Size string `yaml:"size"`
}

// LoadCatalog returns the default catalog merged with entries from an
// optional YAML file. File entries override built-ins with the same name.
// An empty path returns the default catalog unchanged.
//
// Example file:
//
//	models:
//	  - name: schnell
//	    repo: black-forest-labs/FLUX.1-schnell
//	    size: 31.4GB
func LoadCatalog(path string) (*Catalog, error) {
	c := DefaultCatalog()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model catalog %s: %w", path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse model catalog %s: %w", path, err)
	}

	for _, entry := range file.Models {
		if entry.Name == "" {
			return nil, fmt.Errorf("model catalog %s: entry missing name", path)
		}
		spec := ModelSpec{Name: entry.Name, Repo: entry.Repo}
		if entry.Size != "" {
			size, err := ParseBytes(entry.Size)
			if err != nil {
				return nil, fmt.Errorf("model catalog %s: model %s: %w", path, entry.Name, err)
			}
			spec.SizeBytes = size
		}
		// Preserve built-in fields the file omits
		if existing, ok := c.models[entry.Name]; ok {
			if spec.Repo == "" {
				spec.Repo = existing.Repo
			}
			if spec.SizeBytes == 0 {
				spec.SizeBytes = existing.SizeBytes
			}
		}
		c.models[entry.Name] = spec
	}
	return c, nil
}
