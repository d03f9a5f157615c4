package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config is built once per run and passed by value; nothing mutates it afterwards.
type Config struct {
	WalletsFile string         `mapstructure:"wallets_file" default:"wallets.json"`
	Recipient   string         `mapstructure:"recipient" default:"zig13rpmgsk09jcd7yfemwmj5gvkahr9tu0h7tawjk"`
	Chain       ChainConfig    `mapstructure:"chain"`
	Retry       RetryConfig    `mapstructure:"retry"`
	Transfer    TransferConfig `mapstructure:"transfer"`
}

type ChainConfig struct {
	RPC               string        `mapstructure:"rpc" default:"https://testnet-rpc.zigchain.com"`
	ChainID           string        `mapstructure:"chain_id" default:"zig-test-2"`
	Prefix            string        `mapstructure:"prefix" default:"zig"`
	Denom             string        `mapstructure:"denom" default:"uzig"`
	Symbol            string        `mapstructure:"symbol" default:"ZIG"`
	Decimals          int32         `mapstructure:"decimals" default:"6"`
	GasPrice          string        `mapstructure:"gas_price" default:"0.025uzig"`
	GasLimit          uint64        `mapstructure:"gas_limit" default:"86531"`
	Memo              string        `mapstructure:"memo" default:"Auto Transfer ZIG"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout" default:"30s"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" default:"0"`
	ConfirmTimeout    time.Duration `mapstructure:"confirm_timeout" default:"60s"`
	ConfirmInterval   time.Duration `mapstructure:"confirm_interval" default:"3s"`
}

type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" default:"3"`
	Delay       time.Duration `mapstructure:"delay" default:"30s"`
}

type TransferConfig struct {
	// Pause is slept after every attempted transfer.
	Pause      time.Duration `mapstructure:"pause" default:"1s"`
	FeeReserve string        `mapstructure:"fee_reserve" default:"0.01"`
	RandomMin  int64         `mapstructure:"random_min" default:"1"`
	RandomMax  int64         `mapstructure:"random_max" default:"49"`
}

// Default returns the built-in ZigChain testnet settings.
func Default() Config {
	var cfg Config
	defaults.SetDefaults(&cfg)
	return cfg
}

// Load reads path (YAML) over the defaults. Environment variables override
// both, e.g. CHAIN_RPC for chain.rpc. An empty path yields the defaults plus
// any environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// AutomaticEnv only consults keys viper already knows.
	registerKeys(v, "", reflect.ValueOf(cfg))

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc()))
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// registerKeys sets every mapstructure key of val as a viper default.
func registerKeys(v *viper.Viper, prefix string, val reflect.Value) {
	t := val.Type()
	for i := 0; i < t.NumField(); i++ {
		key := t.Field(i).Tag.Get("mapstructure")
		if key == "" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		field := val.Field(i)
		if field.Kind() == reflect.Struct {
			registerKeys(v, key, field)
			continue
		}
		v.SetDefault(key, field.Interface())
	}
}
