package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	_ "modernc.org/sqlite"

	"go.eggybyte.com/bindx/core/errors"
	"go.eggybyte.com/bindx/core/log"
	"go.eggybyte.com/bindx/logx"
	"go.eggybyte.com/bindx/obsx"
	"go.eggybyte.com/bindx/source"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// newKubeClient builds a client from the default kubeconfig loading rules.
var newKubeClient = func() (kubernetes.Interface, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		return nil, errors.Wrap(errors.CodeSource, "kubeconfig", err)
	}
	client, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, errors.Wrap(errors.CodeSource, "kubernetes.NewForConfig", err)
	}
	return client, nil
}

// sourceFlags lists the loaders of one invocation in precedence order:
// files, ConfigMaps, SQL, then the environment.
type sourceFlags struct {
	files      []string
	optional   bool
	configMaps []string
	sqlDriver  string
	sqlDSN     string
	sqlQuery   string
	env        bool
	envPrefix  string
	logLevel   string
	logFormat  string
	jsonOutput bool
	metrics    bool
}

func newRootCmd() *cobra.Command {
	flags := &sourceFlags{}

	root := &cobra.Command{
		Use:   "bindx",
		Short: "Inspect configuration sources and conversions",
		Long: `bindx merges configuration loaders into the flat key/value snapshot a
binder reads and lets you query and convert single values.

Loaders are applied in this order, later ones winning on duplicate keys:
  --file (repeatable)  YAML, JSON, properties, dotenv or HCL files
  --configmap          namespace/name of a Kubernetes ConfigMap (repeatable)
  --sql-*              a key/value query against a database
  --env/--env-prefix   process environment

--metrics writes the connection pool metrics of the SQL loader to stderr.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringArrayVarP(&flags.files, "file", "f", nil, "configuration file to load")
	pf.BoolVar(&flags.optional, "optional", false, "skip missing files")
	pf.StringArrayVar(&flags.configMaps, "configmap", nil, "ConfigMap to load as namespace/name")
	pf.StringVar(&flags.sqlDriver, "sql-driver", "sqlite", "database/sql driver name")
	pf.StringVar(&flags.sqlDSN, "sql-dsn", "", "data source name; enables the SQL loader")
	pf.StringVar(&flags.sqlQuery, "sql-query", "SELECT key, value FROM settings", "query returning key and value columns")
	pf.BoolVar(&flags.env, "env", false, "load the process environment")
	pf.StringVar(&flags.envPrefix, "env-prefix", "", "load environment variables with this prefix (implies --env)")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "logfmt", "log format: logfmt or json")
	pf.BoolVar(&flags.jsonOutput, "json", false, "print results as JSON")
	pf.BoolVar(&flags.metrics, "metrics", false, "print source metrics to stderr after loading")

	root.AddCommand(newKeysCmd(flags), newGetCmd(flags), newConvertCmd(flags))
	return root
}

func (f *sourceFlags) logger(w io.Writer) log.Logger {
	return logx.New(
		logx.WithWriter(w),
		logx.WithLevel(logx.ParseLevel(f.logLevel)),
		logx.WithFormat(logx.Format(f.logFormat)),
	)
}

// load builds the loaders named by the flags and merges them. With --metrics
// the SQL pool statistics are written to stderr once loading is done.
func (f *sourceFlags) load(cmd *cobra.Command) (*source.Map, error) {
	ctx := cmd.Context()

	var provider *obsx.Provider
	if f.metrics {
		p, err := obsx.NewProvider(ctx, obsx.Options{ServiceName: "bindx", ServiceVersion: version})
		if err != nil {
			return nil, err
		}
		defer func() { _ = p.Shutdown(ctx) }()
		provider = p
	}

	var loaders []source.Loader
	for _, path := range f.files {
		loaders = append(loaders, source.File(path, source.FileOptions{Optional: f.optional}))
	}

	if len(f.configMaps) > 0 {
		client, err := newKubeClient()
		if err != nil {
			return nil, err
		}
		for _, ref := range f.configMaps {
			namespace, name, ok := strings.Cut(ref, "/")
			if !ok {
				namespace, name = "", ref
			}
			loaders = append(loaders, source.ConfigMap(client, name, source.ConfigMapOptions{Namespace: namespace, Files: true}))
		}
	}

	if f.sqlDSN != "" {
		db, err := sql.Open(f.sqlDriver, f.sqlDSN)
		if err != nil {
			return nil, errors.Wrap(errors.CodeSource, "sql.Open", err)
		}
		defer db.Close()
		if provider != nil {
			if err := provider.RegisterSourceDB("sql", db); err != nil {
				return nil, err
			}
		}
		loaders = append(loaders, source.SQL(db, f.sqlQuery))
	}

	if f.env || f.envPrefix != "" {
		loaders = append(loaders, source.Env(source.EnvOptions{Prefix: f.envPrefix}))
	}
	m, err := source.Load(ctx, loaders, source.WithLogger(f.logger(cmd.ErrOrStderr())))
	if err != nil {
		return nil, err
	}
	if provider != nil {
		if err := writeMetrics(cmd.ErrOrStderr(), provider); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// writeMetrics dumps the provider's registry in the Prometheus text format.
func writeMetrics(w io.Writer, p *obsx.Provider) error {
	families, err := p.Gatherer().Gather()
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "metrics.Gather", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrap(errors.CodeInternal, "metrics.Write", err)
		}
	}
	return nil
}

func (f *sourceFlags) print(w io.Writer, v any, text func(io.Writer) error) error {
	if !f.jsonOutput {
		return text(w)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(errors.CodeInternal, "json", err)
	}
	return nil
}

func newKeysCmd(flags *sourceFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Print every merged key and value, sorted by key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := flags.load(cmd)
			if err != nil {
				return err
			}
			return flags.print(cmd.OutOrStdout(), m.Configurations(), func(w io.Writer) error {
				for _, k := range m.Keys() {
					v, _ := m.Lookup(k)
					if _, err := fmt.Fprintf(w, "%s=%s\n", k, v); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newGetCmd(flags *sourceFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print the raw value of one key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := flags.load(cmd)
			if err != nil {
				return err
			}
			v, ok := m.Lookup(args[0])
			if !ok {
				return errors.Newf(errors.CodeRequiredMissing, "key %q is not set", args[0])
			}
			return flags.print(cmd.OutOrStdout(), v, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, v)
				return err
			})
		},
	}
}
