package source

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/magiconair/properties"
	"gopkg.in/yaml.v3"

	"go.eggybyte.com/bindx/core/errors"
)

// File formats understood by File and Data.
const (
	FormatYAML       = "yaml"
	FormatJSON       = "json"
	FormatProperties = "properties"
	FormatDotenv     = "dotenv"
	FormatHCL        = "hcl"
)

// FileOptions configures the file loader.
type FileOptions struct {
	Format   string // One of the Format constants (default: detected from the extension)
	Optional bool   // A missing file yields an empty snapshot instead of an error
}

type fileLoader struct {
	path     string
	format   string
	optional bool
}

// File returns a loader reading one configuration file. Nested YAML/JSON/HCL
// structures are flattened to dotted keys and sequences are joined with ",".
func File(path string, opts FileOptions) Loader {
	format := opts.Format
	if format == "" {
		format = detectFileFormat(path)
	}
	return &fileLoader{path: path, format: format, optional: opts.Optional}
}

func (l *fileLoader) Load(ctx context.Context) (map[string]string, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if l.optional && errors.Is(err, fs.ErrNotExist) {
			return make(map[string]string), nil
		}
		return nil, errors.Wrapf(errors.CodeSource, "source.File", err, "read %s", l.path)
	}

	config, err := parseConfig(data, l.format, l.path)
	if err != nil {
		return nil, errors.Wrapf(errors.CodeSource, "source.File", err, "parse %s", l.path)
	}
	return config, nil
}

// Data returns a loader parsing in-memory content of the given format.
func Data(format string, data []byte) Loader {
	return LoaderFunc(func(context.Context) (map[string]string, error) {
		config, err := parseConfig(data, format, "<data>")
		if err != nil {
			return nil, errors.Wrapf(errors.CodeSource, "source.Data", err, "parse %s data", format)
		}
		return config, nil
	})
}

// detectFileFormat detects file format from extension.
func detectFileFormat(path string) string {
	base := strings.ToLower(filepath.Base(path))
	if base == ".env" || strings.HasSuffix(base, ".env") {
		return FormatDotenv
	}

	switch filepath.Ext(base) {
	case ".json":
		return FormatJSON
	case ".properties":
		return FormatProperties
	case ".hcl":
		return FormatHCL
	default:
		return FormatYAML
	}
}

func parseConfig(data []byte, format, filename string) (map[string]string, error) {
	switch format {
	case FormatYAML, FormatJSON:
		return parseYAML(data)
	case FormatProperties:
		return parseProperties(data)
	case FormatDotenv:
		return godotenv.Parse(bytes.NewReader(data))
	case FormatHCL:
		return parseHCL(data, filename)
	default:
		return nil, errors.Newf(errors.CodeInvalidArgument, "unsupported format %q", format)
	}
}

// parseYAML decodes YAML (and therefore JSON) documents into dotted keys.
func parseYAML(data []byte) (map[string]string, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	config := make(map[string]string)
	switch doc.(type) {
	case nil:
	case map[string]any, map[any]any:
		flatten("", doc, config)
	default:
		return nil, errors.New(errors.CodeInvalidArgument, "top-level document must be a mapping")
	}
	return config, nil
}

// parseProperties reads Java-style properties; ${key} references are expanded.
func parseProperties(data []byte) (map[string]string, error) {
	p, err := properties.Load(data, properties.UTF8)
	if err != nil {
		return nil, err
	}
	config := make(map[string]string, p.Len())
	for _, key := range p.Keys() {
		config[key], _ = p.Get(key)
	}
	return config, nil
}
