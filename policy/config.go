package policy

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/irobf/errors"
)

// LoadConfig reads a global config file into a new Store.
//
// The file is a JSON object keyed by kind short name, each value being
// {"enable": bool, "level": int}. Files ending in .yaml or .yml are read
// as YAML with the same shape. An empty path yields defaults.
//
// Configuration problems never abort loading: the returned store holds
// whatever could be applied and the error carries the warnings.
func LoadConfig(path string) (*Store, error) {
	s := NewStore()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		Logger().Warn("config file not loaded", zap.String("path", path), zap.Error(err))
		return s, errors.IO(errors.PhaseConfig, path, err)
	}

	var warnings error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		warnings = s.ApplyYAML(data)
	default:
		warnings = s.ApplyJSON(data)
	}
	for _, w := range multierr.Errors(warnings) {
		Logger().Warn("config", zap.String("path", path), zap.Error(w))
	}
	return s, warnings
}

// ApplyJSON applies a JSON config document to s.
func (s *Store) ApplyJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "config is not valid JSON")
	}
	warnings := s.apply(root)
	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		trailing := errors.InvalidData(errors.PhaseConfig, nil, "unexpected data after the config object")
		if err != nil {
			trailing.Cause = err
		}
		warnings = multierr.Append(warnings, trailing)
	}
	return warnings
}

// ApplyYAML applies a YAML config document to s.
func (s *Store) ApplyYAML(data []byte) error {
	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "config is not valid YAML")
	}
	return s.apply(root)
}

func (s *Store) apply(root any) error {
	obj, ok := root.(map[string]any)
	if !ok {
		return errors.InvalidData(errors.PhaseConfig, nil, "config root is not an object")
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var warnings error
	for _, key := range keys {
		k, ok := ParseKind(key)
		if !ok {
			warnings = multierr.Append(warnings, errors.UnknownKey(errors.PhaseConfig, key))
			continue
		}
		opt, ok := obj[key].(map[string]any)
		if !ok {
			continue
		}
		if v, ok := opt["enable"].(bool); ok {
			s.SetEnabled(k, v)
		}
		if raw, present := opt["level"]; present {
			level, ok := toLevel(raw)
			if !ok {
				warnings = multierr.Append(warnings, errors.New(errors.PhaseConfig, errors.KindInvalidData).
					Path(key, "level").
					Value(raw).
					Detail("level must be a non-negative integer").
					Build())
				continue
			}
			s.SetLevel(k, level)
		}
	}
	return warnings
}

// toLevel converts a decoded JSON or YAML number to a level. Values above
// the uint32 range saturate.
func toLevel(v any) (uint32, bool) {
	var n float64
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return clampLevel(i)
		}
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case int:
		return clampLevel(int64(x))
	case int64:
		return clampLevel(x)
	case uint64:
		return uint32(min(x, math.MaxUint32)), true
	case float64:
		n = x
	default:
		return 0, false
	}
	if n != math.Trunc(n) || n < 0 {
		return 0, false
	}
	return uint32(min(n, math.MaxUint32)), true
}

func clampLevel(i int64) (uint32, bool) {
	if i < 0 {
		return 0, false
	}
	return uint32(min(i, math.MaxUint32)), true
}
