package source

import (
	"context"

	"github.com/knadh/koanf/v2"
)

type koanfLoader struct {
	k *koanf.Koanf
}

// Koanf returns a loader snapshotting an already populated koanf instance.
// Keys use the instance's delimiter; slice values are joined with ",".
func Koanf(k *koanf.Koanf) Loader {
	return &koanfLoader{k: k}
}

func (l *koanfLoader) Load(ctx context.Context) (map[string]string, error) {
	all := l.k.All()
	config := make(map[string]string, len(all))
	for key, v := range all {
		config[key] = stringify(v)
	}
	return config, nil
}
