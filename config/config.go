package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

type GameConfig struct {
	RoundMs           int64 `mapstructure:"round_ms"`
	IntermissionMs    int64 `mapstructure:"intermission_ms"`
	TickMs            int64 `mapstructure:"tick_ms"`
	FirstRoundDelayMs int64 `mapstructure:"first_round_delay_ms"`
	EmptyRoomTTLSec   int64 `mapstructure:"empty_room_ttl_sec"`
}

type DatabaseConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Driver   string         `mapstructure:"driver"` // "gorm" or "sql"
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.http_address", ":4000")
	viper.SetDefault("server.rpc_address", ":4001")
	viper.SetDefault("server.metrics_address", ":9100")
	viper.SetDefault("game.round_ms", 4000)
	viper.SetDefault("game.intermission_ms", 1000)
	viper.SetDefault("game.tick_ms", 100)
	viper.SetDefault("game.first_round_delay_ms", 1200)
	viper.SetDefault("game.empty_room_ttl_sec", 60)

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
