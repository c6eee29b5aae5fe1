package source

import (
	"context"
	"os"
	"strings"
)

// EnvOptions configures the environment loader.
type EnvOptions struct {
	Prefix    string // Only variables with this prefix are loaded; the prefix is stripped
	Lowercase bool   // Convert keys to lowercase
	Uppercase bool   // Convert keys to uppercase
	Separator string // Replaces "_" in keys (e.g. "." maps SERVER_PORT to SERVER.PORT)
}

type envLoader struct {
	opts EnvOptions
}

// Env returns a loader reading the process environment.
func Env(opts EnvOptions) Loader {
	return &envLoader{opts: opts}
}

func (l *envLoader) Load(ctx context.Context) (map[string]string, error) {
	config := make(map[string]string)

	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}

		if l.opts.Prefix != "" {
			if !strings.HasPrefix(key, l.opts.Prefix) {
				continue
			}
			key = strings.TrimPrefix(key, l.opts.Prefix)
		}
		if key == "" {
			continue
		}

		if l.opts.Separator != "" {
			key = strings.ReplaceAll(key, "_", l.opts.Separator)
		}
		if l.opts.Lowercase {
			key = strings.ToLower(key)
		} else if l.opts.Uppercase {
			key = strings.ToUpper(key)
		}

		config[key] = value
	}

	return config, nil
}
