package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/galaplate/fixtures/env"
	"gopkg.in/yaml.v3"
)

// Loader reads YAML configuration files. Each file becomes a top-level key
// named after the file, so fixtures.yaml is addressed as "fixtures.<key>".
type Loader struct {
	configPath string
}

func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// Load reads every .yaml/.yml file in the config directory.
func (l *Loader) Load() (map[string]any, error) {
	config := make(map[string]any)

	files, err := os.ReadDir(l.configPath)
	if err != nil {
		return config, fmt.Errorf("failed to read config directory %s: %w", l.configPath, err)
	}

	for _, file := range files {
		if file.IsDir() || !isYAML(file.Name()) {
			continue
		}

		filename := filepath.Join(l.configPath, file.Name())
		data, err := l.LoadFile(filename)
		if err != nil {
			return config, err
		}

		config[strings.TrimSuffix(file.Name(), filepath.Ext(file.Name()))] = data
	}

	return config, nil
}

// LoadFile reads a single YAML file after expanding ${VAR} and ${VAR:default}.
func (l *Loader) LoadFile(filename string) (any, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	var data any
	if err := yaml.Unmarshal([]byte(expandEnv(string(content))), &data); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	return normalize(data), nil
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// expandEnv replaces ${ENV_VAR} or ${ENV_VAR:default_value} with env values.
func expandEnv(content string) string {
	result := content
	start := 0

	for {
		idx := strings.Index(result[start:], "${")
		if idx == -1 {
			break
		}
		idx += start

		endIdx := strings.Index(result[idx:], "}")
		if endIdx == -1 {
			break
		}
		endIdx += idx

		varName, defaultValue, _ := strings.Cut(result[idx+2:endIdx], ":")

		value := env.Get(varName)
		if value == "" {
			value = defaultValue
		}

		result = result[:idx] + value + result[endIdx+1:]
		start = idx + len(value)
	}

	return result
}

// normalize turns map[any]any nodes into map[string]any so dot lookups work.
func normalize(data any) any {
	switch v := data.(type) {
	case map[string]any:
		for key, val := range v {
			v[key] = normalize(val)
		}
		return v
	case map[any]any:
		result := make(map[string]any, len(v))
		for key, val := range v {
			result[fmt.Sprintf("%v", key)] = normalize(val)
		}
		return result
	case []any:
		for i, val := range v {
			v[i] = normalize(val)
		}
		return v
	default:
		return v
	}
}
