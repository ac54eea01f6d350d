package space

import (
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/copyleftdev/hypertune/internal/optimization"
)

// Parser compiles raw parameter declarations. Rejection causes are logged,
// callers only see InvalidSpec errors naming the parameter.
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a parser that logs rejection causes to logger.
func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger.Named("space_parser")}
}

// Parse compiles raw with a parser that discards logs.
func Parse(raw map[string]any) (*Space, error) {
	return NewParser(nil).Parse(raw)
}

// Parse compiles a mapping of parameter name to {"type": ..., "parameters": {...}}.
// raw is never modified.
func (p *Parser) Parse(raw map[string]any) (*Space, error) {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make(map[string]Param, len(raw))
	for _, name := range names {
		param, err := p.parseParam(name, raw[name])
		if err != nil {
			return nil, err
		}
		params[name] = param
	}

	return newSpace(names, params), nil
}

func (p *Parser) parseParam(name string, spec any) (Param, error) {
	if name == "" {
		return nil, invalidSpec("parameter names must not be empty")
	}

	fields, ok := asMap(spec)
	if !ok {
		return nil, invalidSpec("parameter %q: specification should be a mapping", name)
	}

	rawType, ok := fields["type"]
	if !ok || rawType == nil {
		return nil, invalidSpec("parameter %q: no type", name)
	}
	typeName, _ := rawType.(string)
	build, ok := constructors[Kind(typeName)]
	if !ok {
		return nil, invalidSpec("parameter %q: unknown type %v, expected one of %v", name, rawType, Kinds())
	}

	attrs := map[string]any{}
	if rawAttrs, ok := fields["parameters"]; ok && rawAttrs != nil {
		attrs, ok = asMap(rawAttrs)
		if !ok {
			p.logger.Warn("rejected parameter attributes",
				zap.String("parameter", name),
				zap.String("reason", fmt.Sprintf("parameters should be a mapping, got %T", rawAttrs)),
			)
			return nil, invalidSpec("parameter %q: unknown attributes", name)
		}
	}

	param, err := build(attrs)
	if err != nil {
		p.logger.Warn("rejected parameter attributes",
			zap.String("parameter", name),
			zap.String("type", typeName),
			zap.Error(err),
		)
		return nil, invalidSpec("parameter %q: unknown attributes", name)
	}
	return param, nil
}

// ParseYAML decodes a YAML (or JSON) document and compiles it.
func (p *Parser) ParseYAML(data []byte) (*Space, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, optimization.WrapError(err, optimization.KindInvalidSpec,
			"failed to parse parameter space yaml").WithComponent("space")
	}
	return p.Parse(raw)
}

// ParseYAML compiles a YAML document with a parser that discards logs.
func ParseYAML(data []byte) (*Space, error) {
	return NewParser(nil).ParseYAML(data)
}

// LoadFile reads and compiles a parameter space file.
func (p *Parser) LoadFile(path string) (*Space, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter space file %s: %w", path, err)
	}
	s, err := p.ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse parameter space file %s: %w", path, err)
	}
	return s, nil
}

// asMap accepts the mapping types produced by the JSON and YAML decoders.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, e := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = e
		}
		return out, true
	default:
		return nil, false
	}
}

func invalidSpec(format string, args ...interface{}) error {
	return optimization.NewErrorf(optimization.KindInvalidSpec, format, args...).
		WithComponent("space").WithOperation("Parse")
}
