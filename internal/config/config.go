package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/rocketscienceinc/gungi-backend/internal/gungi"
)

type Config struct {
	LogLevel   string  `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string  `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string  `yaml:"socket-port" env:"SOCKET_PORT" env-default:"7070"`
	Redis      Redis   `yaml:"redis"`
	Rules      Rules   `yaml:"rules"`
	Archive    Archive `yaml:"archive"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Rules tunes the draw conditions; zero disables a limit.
type Rules struct {
	MoveLimit       int `yaml:"move-limit" env:"RULES_MOVE_LIMIT" env-default:"300"`
	RepetitionLimit int `yaml:"repetition-limit" env:"RULES_REPETITION_LIMIT" env-default:"3"`
}

type Archive struct {
	Dir       string        `yaml:"dir" env:"ARCHIVE_DIR" env-default:"./archive"`
	Retention time.Duration `yaml:"retention" env:"ARCHIVE_RETENTION" env-default:"1h"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

func (that *Rules) DrawPolicy() gungi.DrawPolicy {
	return gungi.DrawPolicy{
		MoveLimit:       that.MoveLimit,
		RepetitionLimit: that.RepetitionLimit,
	}
}
