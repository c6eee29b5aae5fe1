package source

import (
	"context"
	"strings"

	"github.com/spf13/pflag"
)

type flagLoader struct {
	fs *pflag.FlagSet
}

// Flags returns a loader reading the flags explicitly set on fs. Flag
// defaults are not loaded, so an unset boolean flag stays absent. Slice
// flags are joined with ",".
func Flags(fs *pflag.FlagSet) Loader {
	return &flagLoader{fs: fs}
}

func (l *flagLoader) Load(ctx context.Context) (map[string]string, error) {
	config := make(map[string]string)
	l.fs.Visit(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			config[f.Name] = strings.Join(sv.GetSlice(), listSeparator)
			return
		}
		config[f.Name] = f.Value.String()
	})
	return config, nil
}
