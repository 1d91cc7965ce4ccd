package model

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Metric is one of the four coverage dimensions.
type Metric string

// Supported metrics.
const (
	Statements Metric = "statements"
	Branches   Metric = "branches"
	Functions  Metric = "functions"
	Lines      Metric = "lines"
)

// Metrics lists every metric in reporting order.
var Metrics = []Metric{Statements, Branches, Functions, Lines}

// ParseMetric validates a metric name.
func ParseMetric(name string) (Metric, error) {
	for _, metric := range Metrics {
		if string(metric) == name {
			return metric, nil
		}
	}

	return "", fmt.Errorf("unknown coverage metric %q", name)
}

// Counts holds covered and total counters for one metric.
type Counts struct {
	Covered int
	Total   int
}

// Pct returns the covered percentage; zero totals count as fully covered.
func (c Counts) Pct() float64 {
	if c.Total == 0 {
		return 100
	}

	return float64(c.Covered) / float64(c.Total) * 100
}

// Summary is the per-metric count set for a file or a whole map.
type Summary map[Metric]Counts

// Add sums two summaries into a new one.
func (s Summary) Add(other Summary) Summary {
	out := Summary{}

	for _, metric := range Metrics {
		a, b := s[metric], other[metric]
		out[metric] = Counts{Covered: a.Covered + b.Covered, Total: a.Total + b.Total}
	}

	return out
}

// Scope is a threshold scope value: one number for every metric, or a
// per-metric object constraining only the metrics it names.
type Scope struct {
	uniform   *float64
	perMetric map[Metric]float64
}

// Uniform builds a scope applying v to all metrics.
func Uniform(v float64) *Scope {
	return &Scope{uniform: &v}
}

// PerMetric builds a scope constraining only the given metrics.
func PerMetric(values map[Metric]float64) *Scope {
	copied := make(map[Metric]float64, len(values))
	for k, v := range values {
		copied[k] = v
	}

	return &Scope{perMetric: copied}
}

// Threshold returns the threshold for metric and whether one applies.
func (s *Scope) Threshold(metric Metric) (float64, bool) {
	if s == nil {
		return 0, false
	}

	if s.uniform != nil {
		return *s.uniform, true
	}

	v, ok := s.perMetric[metric]

	return v, ok
}

// IsUniform reports whether the scope is a single number.
func (s *Scope) IsUniform() bool {
	return s != nil && s.uniform != nil
}

// UnmarshalJSON accepts a number or a metric object.
func (s *Scope) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parsed, err := ParseScope(raw)
	if err != nil {
		return err
	}

	*s = *parsed

	return nil
}

// MarshalJSON writes the scope back in its configured shape.
func (s *Scope) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.raw())
}

// UnmarshalYAML accepts a scalar number or a metric mapping.
func (s *Scope) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}

	parsed, err := ParseScope(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}

	*s = *parsed

	return nil
}

// MarshalYAML writes the scope back in its configured shape.
func (s *Scope) MarshalYAML() (any, error) {
	return s.raw(), nil
}

func (s *Scope) raw() any {
	if s.uniform != nil {
		return *s.uniform
	}

	out := make(map[string]float64, len(s.perMetric))
	for k, v := range s.perMetric {
		out[string(k)] = v
	}

	return out
}

// ParseScope converts a decoded config value (number, numeric string or map)
// into a Scope. A nil value yields a nil scope.
func ParseScope(raw any) (*Scope, error) {
	if raw == nil {
		return nil, nil
	}

	switch v := raw.(type) {
	case map[string]any:
		return parseScopeMap(v)
	case map[any]any:
		converted := make(map[string]any, len(v))
		for k, val := range v {
			converted[cast.ToString(k)] = val
		}

		return parseScopeMap(converted)
	}

	n, err := cast.ToFloat64E(raw)
	if err != nil {
		return nil, fmt.Errorf("threshold must be a number or a metric object: %w", err)
	}

	return Uniform(n), nil
}

func parseScopeMap(values map[string]any) (*Scope, error) {
	out := make(map[Metric]float64, len(values))

	for key, val := range values {
		metric, err := ParseMetric(key)
		if err != nil {
			return nil, err
		}

		n, err := cast.ToFloat64E(val)
		if err != nil {
			return nil, fmt.Errorf("threshold for %s: %w", key, err)
		}

		out[metric] = n
	}

	return &Scope{perMetric: out}, nil
}

// Thresholds is the validator configuration. Nil scopes impose no constraint.
type Thresholds struct {
	Global *Scope `json:"global,omitempty" yaml:"global,omitempty"`
	Each   *Scope `json:"each,omitempty" yaml:"each,omitempty"`
}

// ParseThresholds builds Thresholds from a decoded config map such as the
// value viper returns for the "thresholds" key.
func ParseThresholds(raw any) (Thresholds, error) {
	if raw == nil {
		return Thresholds{}, nil
	}

	values, err := cast.ToStringMapE(raw)
	if err != nil {
		return Thresholds{}, fmt.Errorf("thresholds must be an object: %w", err)
	}

	var th Thresholds

	for key, val := range values {
		scope, err := ParseScope(val)
		if err != nil {
			return Thresholds{}, fmt.Errorf("thresholds.%s: %w", key, err)
		}

		switch key {
		case "global":
			th.Global = scope
		case "each":
			th.Each = scope
		default:
			return Thresholds{}, fmt.Errorf("unknown threshold scope %q", key)
		}
	}

	return th, nil
}
