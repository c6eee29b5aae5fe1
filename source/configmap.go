package source

import (
	"context"
	"maps"
	"path/filepath"
	"slices"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"go.eggybyte.com/bindx/core/errors"
)

// ConfigMapOptions configures the ConfigMap loader.
type ConfigMapOptions struct {
	Namespace string // default "default"
	// Files parses data entries whose key has a known configuration file
	// extension (app.yaml, db.properties, .env, ...) and merges their keys
	// in sorted entry order. Other entries load verbatim.
	Files bool
}

type configMapLoader struct {
	client    kubernetes.Interface
	name      string
	namespace string
	files     bool
}

// ConfigMap returns a loader reading the data of one Kubernetes ConfigMap.
// The map is read once per Load; changes are not watched.
func ConfigMap(client kubernetes.Interface, name string, opts ConfigMapOptions) Loader {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "default"
	}
	return &configMapLoader{client: client, name: name, namespace: namespace, files: opts.Files}
}

func (l *configMapLoader) Load(ctx context.Context) (map[string]string, error) {
	cm, err := l.client.CoreV1().ConfigMaps(l.namespace).Get(ctx, l.name, metav1.GetOptions{})
	if err != nil {
		return nil, errors.Wrapf(errors.CodeSource, "source.ConfigMap", err, "get configmap %s/%s", l.namespace, l.name)
	}

	config := make(map[string]string, len(cm.Data))
	if !l.files {
		maps.Copy(config, cm.Data)
		return config, nil
	}

	for _, key := range slices.Sorted(maps.Keys(cm.Data)) {
		format, ok := fileFormat(key)
		if !ok {
			config[key] = cm.Data[key]
			continue
		}
		parsed, err := parseConfig([]byte(cm.Data[key]), format, key)
		if err != nil {
			return nil, errors.Wrapf(errors.CodeSource, "source.ConfigMap", err, "parse %s in configmap %s/%s", key, l.namespace, l.name)
		}
		maps.Copy(config, parsed)
	}
	return config, nil
}

// fileFormat reports the format of an entry named like a configuration file.
func fileFormat(name string) (string, bool) {
	switch filepath.Ext(name) {
	case ".yaml", ".yml", ".json", ".properties", ".env", ".hcl":
		return detectFileFormat(name), true
	}
	return "", false
}
