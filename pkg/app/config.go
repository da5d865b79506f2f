package app

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the application specific configuration.
// It is passed to the App.Init function, and is optional.
type Config map[string]interface{}

// BaseConfig contains the base configuration for services, as well as the
// application itself.
type BaseConfig struct {
	LogLevel string `mapstructure:"log_level"`

	AppName string `mapstructure:"app_name"`

	ListenAddress      string `mapstructure:"listen_address"`
	DebugListenAddress string `mapstructure:"debug_listen_address"`

	// TLSCertificate is an optional URL that specifies a TLS certificate for
	// the HTTP server. TLS is enabled only when both it and TLSKey are set.
	//
	// Only the file scheme is supported. If no scheme is specified, file is used.
	TLSCertificate string `mapstructure:"tls_certificate"`
	// TLSKey is an optional URL that specifies a TLS Private Key to be used for
	// the HTTP server.
	TLSKey string `mapstructure:"tls_private_key"`

	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`
	ReadTimeout         time.Duration `mapstructure:"read_timeout"`
	WriteTimeout        time.Duration `mapstructure:"write_timeout"`

	EnablePprof      bool `mapstructure:"enable_pprof"`
	EnableExpvar     bool `mapstructure:"enable_expvar"`
	EnablePrometheus bool `mapstructure:"enable_prometheus"`

	// Ballast for improving Go GC performance. Note that capacity will be
	// limited to 50% of the total memory.
	// https://blog.twitch.tv/en/2019/04/10/go-memory-ballast-how-i-learnt-to-stop-worrying-and-love-the-heap/
	EnableBallast   bool    `mapstructure:"enable_ballast"`
	BallastCapacity float32 `mapstructure:"ballast_capacity"`

	// Periodically terminate the application when there's a memory leak
	EnableMemoryLeakCron   bool   `mapstructure:"enable_memory_leak_cron"`
	MemoryLeakCronSchedule string `mapstructure:"memory_leak_cron_schedule"`

	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`

	// Arbitrary configuration that the service can define / implement.
	//
	// Users should use mapstructure.Decode for ServiceConfig.
	AppConfig Config `mapstructure:"app"`
}

var defaultConfig = BaseConfig{
	LogLevel: "info",

	AppName: "instruction-server",

	ListenAddress:      "0.0.0.0:7878",
	DebugListenAddress: "localhost:8123",

	ShutdownGracePeriod: 30 * time.Second,
	ReadTimeout:         10 * time.Second,
	WriteTimeout:        10 * time.Second,

	EnablePprof:      true,
	EnableExpvar:     true,
	EnablePrometheus: true,

	EnableBallast:   false,
	BallastCapacity: 0.333,

	EnableMemoryLeakCron:   false,
	MemoryLeakCronSchedule: "0 5 * * *",
}

var envBindings = map[string]string{
	"log_level": "LOG_LEVEL",

	"app_name": "APP_NAME",

	"listen_address":       "LISTEN_ADDRESS",
	"debug_listen_address": "DEBUG_LISTEN_ADDRESS",

	"tls_certificate": "TLS_CERTIFICATE",
	"tls_private_key": "TLS_PRIVATE_KEY",

	"shutdown_grace_period": "SHUTDOWN_GRACE_PERIOD",
	"read_timeout":          "READ_TIMEOUT",
	"write_timeout":         "WRITE_TIMEOUT",

	"enable_pprof":      "ENABLE_PPROF",
	"enable_expvar":     "ENABLE_EXPVAR",
	"enable_prometheus": "ENABLE_PROMETHEUS",

	"enable_ballast":   "ENABLE_BALLAST",
	"ballast_capacity": "BALLAST_CAPACITY",

	"enable_memory_leak_cron":   "ENABLE_MEMORY_LEAK_CRON",
	"memory_leak_cron_schedule": "MEMORY_LEAK_CRON_SCHEDULE",

	"new_relic_license_key": "NEW_RELIC_LICENSE_KEY",
}

func init() {
	bindEnvs(viper.GetViper())
}

func bindEnvs(v *viper.Viper) {
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
}

// loadConfig reads the config file at path, if it exists, and environment
// overrides on top of defaultConfig.
func loadConfig(v *viper.Viper, path string) (BaseConfig, error) {
	// viper.ReadInConfig only returns ConfigFileNotFoundError if it has to search
	// for a default config file because one hasn't been explicitly set. That is,
	// if we explicitly set a config file, and it does not exist, viper will not
	// return a ConfigFileNotFoundError, so we do it ourselves.
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
	} else if !os.IsNotExist(err) {
		return BaseConfig{}, errors.Wrap(err, "failed to check if config exists")
	}

	err := v.ReadInConfig()
	_, isConfigNotFound := err.(viper.ConfigFileNotFoundError)
	if err != nil && !isConfigNotFound {
		return BaseConfig{}, errors.Wrap(err, "failed to load config")
	}

	config := defaultConfig
	if err := v.Unmarshal(&config); err != nil {
		return BaseConfig{}, errors.Wrap(err, "failed to unmarshal config")
	}

	if len(config.AppName) == 0 {
		return BaseConfig{}, errors.New("must specify an application name")
	}
	if (config.TLSCertificate == "") != (config.TLSKey == "") {
		return BaseConfig{}, errors.New("tls certificate and key must be provided together")
	}
	if config.BallastCapacity > 0.5 {
		config.BallastCapacity = 0.5
	}

	return config, nil
}
