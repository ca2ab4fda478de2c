package config

import (
	"strings"

	"github.com/spf13/viper"
	"gitlab.com/tozd/go/errors"

	"github.com/moyu-x/file-mover/internal"
)

type Config struct {
	Database struct {
		Path string
	}
	Logging struct {
		Level string
		File  string
	}
	Operation struct {
		Verify           bool
		Excludes         []string
		CustomExtensions []string `mapstructure:"custom_extensions"`
	}
	Worker struct {
		EventBuffer int `mapstructure:"event_buffer"`
	}
}

var cfg Config

// Load 读取配置，file 为空时在默认目录中查找 config.yaml
// 找不到配置文件不算错误，使用默认值
func Load(file string) (*Config, error) {
	v := viper.New()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath("$HOME/.file-mover")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/file-mover")
	}

	v.SetEnvPrefix("FILE_MOVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database.path", internal.DefaultDatabasePath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
	v.SetDefault("operation.verify", false)
	v.SetDefault("operation.excludes", []string{})
	v.SetDefault("operation.custom_extensions", []string{})
	v.SetDefault("worker.event_buffer", internal.DefaultEventBuffer)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Errorf("read config: %w", err)
		}
	}

	var loaded Config
	if err := v.Unmarshal(&loaded); err != nil {
		return nil, errors.Errorf("decode config: %w", err)
	}
	if loaded.Worker.EventBuffer < 0 {
		loaded.Worker.EventBuffer = internal.DefaultEventBuffer
	}

	cfg = loaded
	return &cfg, nil
}

func Get() *Config {
	return &cfg
}
