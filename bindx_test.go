package bindx_test

import (
	"fmt"
	"math/big"
	"net/url"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"go.eggybyte.com/bindx"
	"go.eggybyte.com/bindx/convert"
	"go.eggybyte.com/bindx/core/errors"
	"go.eggybyte.com/bindx/testingx"
)

type serverConfig struct {
	Host    string          `config:"" name:"webServer.name"`
	Port    int             `config:""`
	Ratio   float64         `config:""`
	Big     *big.Int        `config:""`
	Amount  decimal.Decimal `config:""`
	Home    convert.Path    `config:""`
	Site    *url.URL        `config:""`
	Timeout time.Duration   `config:""`
	Debug   bool            `config:"flag"`
	Admins  []string        `collection:","`
	Limits  map[string]int  `map:","`
	Plain   string
}

func TestConfigure_AllKinds(t *testing.T) {
	src := testingx.NewSource(t,
		"webServer.name", "edge",
		"Host", "wrong",
		"Port", "8080",
		"Ratio", "0.75",
		"Big", "123456789012345678901234567890",
		"Amount", "10.25",
		"Home", "/srv/app",
		"Site", "https://example.com/",
		"Timeout", "1m30s",
		"Debug", "false",
		"Admins", "George,Peter,Bill",
		"Limits", "cpu=2,mem=512",
		"Plain", "untouched",
	)

	cfg := serverConfig{Plain: "default"}
	require.NoError(t, bindx.New(src).Configure(&cfg))

	assert.Equal(t, "edge", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 0.75, cfg.Ratio)
	assert.Equal(t, "123456789012345678901234567890", cfg.Big.String())
	assert.True(t, decimal.RequireFromString("10.25").Equal(cfg.Amount))
	assert.Equal(t, convert.Path("/srv/app"), cfg.Home)
	assert.Equal(t, "example.com", cfg.Site.Host)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.True(t, cfg.Debug, "flag follows key presence, not value")
	assert.Equal(t, []string{"George", "Peter", "Bill"}, cfg.Admins)
	assert.Equal(t, map[string]int{"cpu": 2, "mem": 512}, cfg.Limits)
	assert.Equal(t, "default", cfg.Plain, "unmarked fields are ignored")
}

func TestConfigure_AbsentOptionalUntouched(t *testing.T) {
	cfg := serverConfig{Port: 9000, Admins: []string{"root"}, Debug: true}
	require.NoError(t, bindx.New(testingx.NewSource(t)).Configure(&cfg))

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, []string{"root"}, cfg.Admins)
	assert.False(t, cfg.Debug, "absent flag key resets the flag")
}

func TestConfigure_Flag(t *testing.T) {
	type flags struct {
		Verbose bool `config:"flag"`
		Quiet   bool `config:"flag"`
	}

	tests := []struct {
		name  string
		kv    []string
		start flags
		want  flags
	}{
		{name: "present with empty value", kv: []string{"Verbose", ""}, want: flags{Verbose: true}},
		{name: "present with false value", kv: []string{"Verbose", "false"}, want: flags{Verbose: true}},
		{name: "absent overwrites default", kv: nil, start: flags{Verbose: true, Quiet: true}, want: flags{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.start
			require.NoError(t, bindx.New(testingx.NewSource(t, tt.kv...)).Configure(&got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigure_RequiredRunsBeforeAssignment(t *testing.T) {
	type target struct {
		Optional string `config:""`
		Needed   string `config:"required"`
	}

	logger := testingx.NewMockLogger(t)
	src := testingx.NewSource(t, "Optional", "present")

	var cfg target
	err := bindx.New(src, bindx.WithLogger(logger)).Configure(&cfg)

	testingx.RequireCode(t, err, errors.CodeRequiredMissing)
	assert.Empty(t, cfg.Optional, "no field may be assigned when a required key is absent")

	info, ok := bindx.FieldOf(err)
	require.True(t, ok)
	assert.Equal(t, "Needed", info.Field)
	assert.Equal(t, "Needed", info.Key)
	assert.Contains(t, info.Owner, "target")

	logger.AssertLogged("DEBUG", "configure failed")
	assert.Empty(t, logger.Find("DEBUG", "field bound"))
}

func TestConfigure_RequiredMarkerCombinations(t *testing.T) {
	type target struct {
		Hosts []string `collection:"," required:""`
		Token string   `required:"" name:"auth.token"`
	}

	var cfg target
	err := bindx.New(testingx.NewSource(t, "Hosts", "a")).Configure(&cfg)
	testingx.RequireCode(t, err, errors.CodeRequiredMissing)
	info, _ := bindx.FieldOf(err)
	assert.Equal(t, "auth.token", info.Key)

	require.NoError(t, bindx.New(testingx.NewSource(t, "Hosts", "a", "auth.token", "t")).Configure(&cfg))
	assert.Equal(t, []string{"a"}, cfg.Hosts)
	assert.Empty(t, cfg.Token, "required-only fields are checked, not bound")
}

func TestConfigure_NameOverride(t *testing.T) {
	type target struct {
		Name string `config:"" name:"webServer.name"`
	}

	var cfg target
	src := testingx.NewSource(t, "Name", "own-identifier", "webServer.name", "override")
	require.NoError(t, bindx.New(src).Configure(&cfg))
	assert.Equal(t, "override", cfg.Name)
}

func TestConfigure_EmptyNameOverride(t *testing.T) {
	type target struct {
		Name string `config:"" name:""`
	}

	var cfg target
	err := bindx.New(testingx.NewSource(t, "Name", "x")).Configure(&cfg)
	testingx.RequireCode(t, err, errors.CodeNameResolution)
}

func TestConfigure_NoConverter(t *testing.T) {
	type opaque struct{ A int }
	type target struct {
		Value opaque `config:""`
	}

	var cfg target
	require.NoError(t, bindx.New(testingx.NewSource(t)).Configure(&cfg), "converters resolve only for present keys")

	err := bindx.New(testingx.NewSource(t, "Value", "x")).Configure(&cfg)
	testingx.RequireCode(t, err, errors.CodeNoConverter)

	info, ok := bindx.FieldOf(err)
	require.True(t, ok)
	assert.Equal(t, "Value", info.Field)
	assert.Contains(t, info.Type, "opaque")
	assert.Contains(t, err.Error(), "Value")
}

func TestConfigure_UnknownConverterID(t *testing.T) {
	type target struct {
		Value string `config:"" converter:"nope"`
	}

	var cfg target
	err := bindx.New(testingx.NewSource(t, "Value", "x")).Configure(&cfg)
	testingx.RequireCode(t, err, errors.CodeNoConverter)
}

func TestConfigure_ExplicitConverters(t *testing.T) {
	type target struct {
		Mode   string         `config:"" converter:"upper"`
		Mask   int64          `config:"" converter:"hex"`
		Tags   []string       `collection:"\\s*;\\s*" elem:"trim"`
		IDs    []int          `collection:"," converter:"unique"`
		Labels map[string]any `map:";" kvsep:":" mapvalue:"lower"`
		First  map[string]int `map:"," converter:"first"`
	}

	src := testingx.NewSource(t,
		"Mode", "fast",
		"Mask", "0xff",
		"Tags", " a ; b;c ",
		"IDs", "3,1,3",
		"Labels", "env:PROD;tier",
		"First", "a=1,a=2",
	)

	var cfg target
	require.NoError(t, bindx.New(src).Configure(&cfg))
	testingx.AssertBound(t, cfg, target{
		Mode:   "FAST",
		Mask:   255,
		Tags:   []string{"a", "b", "c"},
		IDs:    []int{3, 1},
		Labels: map[string]any{"env": "prod", "tier": nil},
		First:  map[string]int{"a": 1},
	})
}

func TestConfigure_MapKeyOnlyEntry(t *testing.T) {
	type target struct {
		Numbers map[int]any       `map:","`
		Limits  map[string]int    `map:","`
		Labels  map[string]string `map:""`
	}

	var cfg target
	src := testingx.NewSource(t, "Numbers", "1=one,2", "Limits", "x=1,k=", "Labels", "a=b=c")
	require.NoError(t, bindx.New(src).Configure(&cfg))
	assert.Equal(t, map[int]any{1: "one", 2: nil}, cfg.Numbers)
	assert.Equal(t, map[string]int{"x": 1, "k": 0}, cfg.Limits)
	assert.Equal(t, map[string]string{"a": "b"}, cfg.Labels)
}

func TestConfigure_ConversionFailure(t *testing.T) {
	type target struct {
		Port int `config:"" name:"server.port"`
	}

	var cfg target
	err := bindx.New(testingx.NewSource(t, "server.port", "http")).Configure(&cfg)
	testingx.RequireCode(t, err, errors.CodeConversion)

	info, ok := bindx.FieldOf(err)
	require.True(t, ok)
	assert.Equal(t, "http", info.Raw)
	assert.Equal(t, "server.port", info.Key)
	assert.Equal(t, "int", info.Type)

	failure, ok := errors.DetailOf[convert.Failure](err)
	require.True(t, ok)
	assert.Equal(t, "server.port", failure.Name)
}

func TestConfigure_PlainConverterError(t *testing.T) {
	type target struct {
		Mode  string   `config:"" converter:"strict"`
		Modes []string `collection:"," elem:"strict"`
	}

	table := convert.DefaultTable()
	table.Scalars = append(table.Scalars, convert.NewPlain("strict", reflect.TypeFor[string](), func() convert.Scalar {
		return convert.Func(func(raw string) (any, error) {
			if raw != "on" && raw != "off" {
				return nil, fmt.Errorf("unsupported mode %q", raw)
			}
			return raw, nil
		})
	}))
	reg, err := convert.NewRegistry(table)
	require.NoError(t, err)

	tests := []struct {
		name string
		key  string
		raw  string
	}{
		{name: "scalar", key: "Mode", raw: "auto"},
		{name: "collection element", key: "Modes", raw: "on,auto"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg target
			err := bindx.New(testingx.NewSource(t, tt.key, tt.raw), bindx.WithRegistry(reg)).Configure(&cfg)
			testingx.RequireCode(t, err, errors.CodeConversion)
			assert.Contains(t, err.Error(), `unsupported mode "auto"`)

			info, ok := bindx.FieldOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.raw, info.Raw)
		})
	}
}

func TestConfigure_NoRollback(t *testing.T) {
	type target struct {
		Name  string `config:""`
		Ports []int  `collection:","`
	}

	var cfg target
	err := bindx.New(testingx.NewSource(t, "Name", "bound", "Ports", "1,x")).Configure(&cfg)
	testingx.RequireCode(t, err, errors.CodeConversion)
	assert.Equal(t, "bound", cfg.Name, "scalar stage ran before the failing collection stage")
	assert.Nil(t, cfg.Ports)
}

func TestConfigure_MarkerCompatibility(t *testing.T) {
	tests := []struct {
		name   string
		target any
	}{
		{name: "collection on scalar", target: &struct {
			V int `collection:","`
		}{}},
		{name: "map on slice", target: &struct {
			V []string `map:","`
		}{}},
		{name: "flag on string", target: &struct {
			V string `config:"flag"`
		}{}},
		{name: "two structural markers", target: &struct {
			V []string `config:"" collection:","`
		}{}},
		{name: "unknown option", target: &struct {
			V string `config:"mandatory"`
		}{}},
		{name: "empty collection delimiter", target: &struct {
			V []string `collection:""`
		}{}},
		{name: "empty separator", target: &struct {
			V map[string]string `map:"," kvsep:""`
		}{}},
		{name: "separator without map", target: &struct {
			V string `config:"" kvsep:":"`
		}{}},
		{name: "element converter without collection", target: &struct {
			V string `config:"" elem:"trim"`
		}{}},
		{name: "marker on unexported field", target: &struct {
			v string `config:""`
		}{}},
		{name: "kind rejects set", target: &struct {
			V map[string]bool `collection:"," converter:"list"`
		}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := bindx.New(testingx.NewSource(t, "V", "a")).Configure(tt.target)
			testingx.RequireCode(t, err, errors.CodeMarkerCompatibility)
		})
	}
}

func TestConfigure_Strict(t *testing.T) {
	type target struct {
		Port    int `config:""`
		Unbound string
		private string
	}

	var cfg target
	require.NoError(t, bindx.New(testingx.NewSource(t, "Port", "1")).Configure(&cfg))

	err := bindx.New(testingx.NewSource(t, "Port", "1"), bindx.WithStrict()).Configure(&cfg)
	testingx.RequireCode(t, err, errors.CodeMarkerCompatibility)
	info, _ := bindx.FieldOf(err)
	assert.Equal(t, "Unbound", info.Field)
}

func TestConfigure_InvalidTargets(t *testing.T) {
	c := bindx.New(testingx.NewSource(t))

	var nilPtr *serverConfig
	n := 3
	for name, target := range map[string]any{
		"nil":            nil,
		"nil pointer":    nilPtr,
		"struct value":   serverConfig{},
		"pointer to int": &n,
	} {
		t.Run(name, func(t *testing.T) {
			testingx.RequireCode(t, c.Configure(target), errors.CodeInvalidArgument)
		})
	}

	testingx.RequireCode(t, bindx.New(nil).Configure(&serverConfig{}), errors.CodeInvalidArgument)
	testingx.RequireCode(t, bindx.NoOp().Configure(nil), errors.CodeInvalidArgument)
}

func TestConfigure_Idempotent(t *testing.T) {
	src := testingx.NewSource(t, "Port", "80", "Admins", "a,b", "Limits", "x=1", "Debug", "")
	c := bindx.New(src)

	var first, second serverConfig
	require.NoError(t, c.Configure(&first))
	require.NoError(t, c.Configure(&second))
	testingx.AssertBound(t, second, first)

	require.NoError(t, c.Configure(&first))
	testingx.AssertBound(t, first, second)
}

func TestStages_Individually(t *testing.T) {
	type target struct {
		Name   string         `config:""`
		Tags   []string       `collection:","`
		Limits map[string]int `map:","`
	}
	src := testingx.NewSource(t, "Name", "n", "Tags", "a,b", "Limits", "x=1")

	var onlyScalar target
	require.NoError(t, bindx.NewScalarConfigurator(src, nil).Configure(&onlyScalar))
	assert.Equal(t, target{Name: "n"}, onlyScalar)

	var onlyCollection target
	require.NoError(t, bindx.NewCollectionConfigurator(src, bindx.NoOp()).Configure(&onlyCollection))
	assert.Equal(t, target{Tags: []string{"a", "b"}}, onlyCollection)

	var chained target
	chain := bindx.NewRequiredConfigurator(src,
		bindx.NewMapConfigurator(src,
			bindx.NewScalarConfigurator(src, nil)))
	require.NoError(t, chain.Configure(&chained))
	assert.Equal(t, target{Name: "n", Limits: map[string]int{"x": 1}}, chained)
}

func TestConfigure_CustomTags(t *testing.T) {
	type target struct {
		Port int      `env:"" key:"PORT"`
		Tags []string `list:","`
	}

	tags := bindx.Tags{Config: "env", Name: "key", Collection: "list"}
	var cfg target
	require.NoError(t, bindx.New(testingx.NewSource(t, "PORT", "1", "Tags", "a"), bindx.WithTags(tags)).Configure(&cfg))
	assert.Equal(t, target{Port: 1, Tags: []string{"a"}}, cfg)
}

func TestConfigure_CustomRegistry(t *testing.T) {
	type Level int
	type target struct {
		Level Level `config:""`
	}

	table := convert.DefaultTable()
	table.Scalars = append(table.Scalars, convert.Parser("level", func(raw string) (Level, error) {
		switch raw {
		case "low":
			return 1, nil
		case "high":
			return 9, nil
		}
		return 0, errors.Newf(errors.CodeConversion, "unknown level %q", raw)
	}))
	table.Defaults[reflect.TypeFor[Level]()] = "level"
	reg, err := convert.NewRegistry(table)
	require.NoError(t, err)

	var cfg target
	require.NoError(t, bindx.New(testingx.NewSource(t, "Level", "high"), bindx.WithRegistry(reg)).Configure(&cfg))
	assert.Equal(t, Level(9), cfg.Level)

	err = bindx.New(testingx.NewSource(t, "Level", "high")).Configure(&cfg)
	testingx.RequireCode(t, err, errors.CodeNoConverter)
}

func TestConfigure_TextUnmarshaler(t *testing.T) {
	type target struct {
		At time.Time `config:""`
	}

	var cfg target
	require.NoError(t, bindx.New(testingx.NewSource(t, "At", "2024-01-02T03:04:05Z")).Configure(&cfg))
	assert.Equal(t, 2024, cfg.At.Year())
}

func TestConfigure_LogsAndMetrics(t *testing.T) {
	type target struct {
		Port int      `config:""`
		Tags []string `collection:","`
	}

	logger := testingx.NewMockLogger(t)
	mp, reader := testingx.NewMeterProvider(t)
	c := bindx.New(testingx.NewSource(t, "Port", "1", "Tags", "a"),
		bindx.WithLogger(logger), bindx.WithMeterProvider(mp), bindx.WithCacheSize(8))

	var cfg target
	require.NoError(t, c.Configure(&cfg))
	require.NoError(t, c.Configure(&cfg))
	testingx.RequireCode(t, c.Configure(nil), errors.CodeInvalidArgument)

	bound := logger.Find("DEBUG", "field bound")
	require.Len(t, bound, 4)
	stage, _ := bound[0].Field("stage")
	key, _ := bound[0].Field("key")
	assert.Equal(t, "scalar", stage)
	assert.Equal(t, "Port", key)
	logger.AssertLogged("DEBUG", "configure failed")

	assert.EqualValues(t, 3, testingx.CounterValue(t, reader, "bindx_configure_total"))
	assert.EqualValues(t, 2, testingx.CounterValue(t, reader, "bindx_configure_total", attribute.String("outcome", "success")))
	assert.EqualValues(t, 1, testingx.CounterValue(t, reader, "bindx_configure_total",
		attribute.String("outcome", "error"), attribute.String("code", "INVALID_ARGUMENT")))
	assert.EqualValues(t, 2, testingx.CounterValue(t, reader, "bindx_fields_bound_total", attribute.String("stage", "collection")))
}
