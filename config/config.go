package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/angas/elpris-go/logging"
	"github.com/angas/elpris-go/types"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid config")

const MinPollTime = 30

type AppConfigPrice struct {
	Area        string  `mapstructure:"area"`         // "SE1", "SE2", "SE3", "SE4"
	TransferFee float64 `mapstructure:"transfer_fee"` // Grid transfer fee in öre/kWh (överföringsavgift)
	EnergyTax   float64 `mapstructure:"energy_tax"`   // Energy tax in öre/kWh (energiskatt)
	// How often the coordinator is polled, in seconds
	PollTime int `mapstructure:"poll_time"`
	// Minimum time between two upstream fetches
	FetchInterval time.Duration `mapstructure:"fetch_interval"`
	Timezone      string        `mapstructure:"timezone"`
}

func (p AppConfigPrice) GetArea() types.PriceArea {
	a, err := types.ParsePriceArea(p.Area)
	if err != nil {
		return types.SE3
	}
	return a
}

func (p AppConfigPrice) Fees() types.Fees {
	return types.NewFees(p.TransferFee, p.EnergyTax)
}

type AppConfigDatabase struct {
	Path string
	// How many days of prices should be stored in database before they get purged
	DataRetentionDays *int `mapstructure:"data_retention_days"`
}

func (d AppConfigDatabase) GetDataRetentionDays() int {
	if d.DataRetentionDays == nil {
		return 90
	}
	return *d.DataRetentionDays
}

type AppConfigApi struct {
	Address string
	Port    int
}

type AppConfigMqtt struct {
	Host     string
	Port     int
	Username string
	Password string
	// Home Assistant discovery prefix
	TopicPrefix string `mapstructure:"topic_prefix"`
}

func (m AppConfigMqtt) Enabled() bool {
	return m.Host != ""
}

// Tibber is asked after the public providers when an api token is set.
type AppConfigTibber struct {
	ApiToken string `mapstructure:"api_token"`
	HomeId   string `mapstructure:"home_id"`
}

func (t AppConfigTibber) Enabled() bool {
	return t.ApiToken != ""
}

type AppConfigLogging struct {
	// Min log level for database : "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	DbLevel *string `mapstructure:"db_level"`
	// Log attributes format: "TEXT", "JSON", default: "JSON"
	DbAttrsFormat *string `mapstructure:"db_attrs_format"`
	// Maximum number of log entries in the database, default: 10000
	DbMaxEntries *int `mapstructure:"db_max_entries"`
	// Min log level for console: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	ConsoleLevel *string `mapstructure:"console_level"`
}

func (l AppConfigLogging) GetDbLevel() slog.Level {
	return logging.LevelFromString(l.DbLevel)
}

func (l AppConfigLogging) GetDbAttrsFormat() logging.LogAttrFormat {
	if l.DbAttrsFormat != nil && strings.EqualFold(*l.DbAttrsFormat, "text") {
		return logging.LogAttrFormatText
	}
	return logging.LogAttrFormatJSON
}

func (l AppConfigLogging) GetDbMaxEntries() int {
	if l.DbMaxEntries == nil {
		return 10000
	}
	return *l.DbMaxEntries
}

func (l AppConfigLogging) GetConsoleLevel() slog.Level {
	return logging.LevelFromString(l.ConsoleLevel)
}

type AppConfig struct {
	Price    AppConfigPrice `mapstructure:"price"`
	Database AppConfigDatabase
	Api      AppConfigApi
	Mqtt     AppConfigMqtt    `mapstructure:"mqtt"`
	Tibber   AppConfigTibber  `mapstructure:"tibber"`
	Logging  AppConfigLogging `mapstructure:"logging"`
}

// Validate applies the same rules as the setup flow: a known price area and a
// poll time of at least MinPollTime seconds.
func (c *AppConfig) Validate() error {
	if _, err := types.ParsePriceArea(c.Price.Area); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Price.PollTime < MinPollTime {
		return fmt.Errorf("%w: poll_time %d is below %d seconds", ErrInvalidConfig, c.Price.PollTime, MinPollTime)
	}
	if c.Price.FetchInterval <= 0 {
		return fmt.Errorf("%w: fetch_interval must be positive", ErrInvalidConfig)
	}
	if _, err := time.LoadLocation(c.Price.Timezone); err != nil {
		return fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Price.Timezone, err)
	}
	return nil
}

type Loader struct {
	v      *viper.Viper
	logger *slog.Logger
}

// NewLoader reads path, or config/config.yaml when path is empty. Every key
// can be overridden from the environment, e.g. PRICE_AREA=SE4.
func NewLoader(path string) *Loader {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("price.area", string(types.SE3))
	v.SetDefault("price.transfer_fee", 0.0)
	v.SetDefault("price.energy_tax", 0.0)
	v.SetDefault("price.poll_time", 60)
	v.SetDefault("price.fetch_interval", "1h")
	v.SetDefault("price.timezone", "Europe/Stockholm")
	v.SetDefault("database.path", "elpris.db")
	v.SetDefault("api.address", "")
	v.SetDefault("api.port", 8080)
	v.SetDefault("mqtt.host", "")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic_prefix", "homeassistant")
	v.SetDefault("tibber.api_token", "")
	v.SetDefault("tibber.home_id", "")

	return &Loader{v: v, logger: slog.Default().With("module", "config")}
}

func (l *Loader) Load() (*AppConfig, error) {
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	var c AppConfig
	if err := l.v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config file: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Watch calls fn with the reloaded config every time the file changes.
// Invalid changes are logged and ignored.
func (l *Loader) Watch(fn func(*AppConfig)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		l.logger.Info("config file changed", slog.String("file", e.Name))
		c, err := l.Load()
		if err != nil {
			l.logger.Error("failed to reload config", slog.Any("error", err))
			return
		}
		fn(c)
	})
	l.v.WatchConfig()
}

func Load(path string) (*AppConfig, error) {
	return NewLoader(path).Load()
}
