// Package config loads the server and kiosk configuration from a YAML
// file with environment-variable overrides.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Server struct {
	Addr string `yaml:"addr" env:"SMARTBUILD_HTTP_ADDR" env-default:":8080"`
}

type DB struct {
	Env  string `yaml:"env" env:"SMARTBUILD_ENV" env-default:"dev"`
	Path string `yaml:"path" env:"SMARTBUILD_DB_PATH" env-default:"./data/smartbuild.db"`
}

type Building struct {
	ID   string `yaml:"id" env:"SMARTBUILD_BUILDING_ID" env-default:"bldg_main"`
	Name string `yaml:"name" env:"SMARTBUILD_BUILDING_NAME" env-default:"Main Building"`
}

type Passcode struct {
	Length int `yaml:"length" env:"SMARTBUILD_CODE_LENGTH" env-default:"6"`
}

type Sweep struct {
	RetentionDays      int           `yaml:"retention_days" env:"SMARTBUILD_RETENTION_DAYS" env-default:"7"`
	AuditRetentionDays int           `yaml:"audit_retention_days" env:"SMARTBUILD_AUDIT_RETENTION_DAYS" env-default:"90"`
	Interval           time.Duration `yaml:"interval" env:"SMARTBUILD_SWEEP_INTERVAL" env-default:"1h"`
}

type Broker struct {
	URL        string        `yaml:"url" env:"SMARTBUILD_BROKER_URL" env-default:"tcp://localhost:1883"`
	ClientID   string        `yaml:"client_id" env:"SMARTBUILD_BROKER_CLIENT_ID" env-default:"smartbuild-kiosk"`
	Username   string        `yaml:"username" env:"SMARTBUILD_BROKER_USERNAME" env-default:""`
	Password   string        `yaml:"password" env:"SMARTBUILD_BROKER_PASSWORD" env-default:""`
	CallTopic  string        `yaml:"call_topic" env:"SMARTBUILD_CALL_TOPIC" env-default:"building/intercom/call"`
	RelayTopic string        `yaml:"relay_topic" env:"SMARTBUILD_RELAY_TOPIC" env-default:"building/door/relay"`
	Reconnect  time.Duration `yaml:"reconnect" env:"SMARTBUILD_BROKER_RECONNECT" env-default:"5s"`
}

type Kiosk struct {
	ServerURL       string        `yaml:"server_url" env:"SMARTBUILD_SERVER_URL" env-default:"http://localhost:8080"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SMARTBUILD_KIOSK_IDLE_TIMEOUT" env-default:"60s"`
	ConfirmDuration time.Duration `yaml:"confirm_duration" env:"SMARTBUILD_KIOSK_CONFIRM_DURATION" env-default:"5s"`
	CallTimeout     time.Duration `yaml:"call_timeout" env:"SMARTBUILD_KIOSK_CALL_TIMEOUT" env-default:"30s"`
}

type Notify struct {
	SendgridAPIKey string `yaml:"sendgrid_api_key" env:"SMARTBUILD_SENDGRID_API_KEY" env-default:""`
	FromEmail      string `yaml:"from_email" env:"SMARTBUILD_FROM_EMAIL" env-default:"access@smartbuild.local"`
	FromName       string `yaml:"from_name" env:"SMARTBUILD_FROM_NAME" env-default:"Building Access"`
}

type Log struct {
	Level  string `yaml:"level" env:"SMARTBUILD_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"SMARTBUILD_LOG_FORMAT" env-default:"json"`
}

type Config struct {
	Server   Server   `yaml:"server"`
	DB       DB       `yaml:"db"`
	Building Building `yaml:"building"`
	Passcode Passcode `yaml:"passcode"`
	Sweep    Sweep    `yaml:"sweep"`
	Broker   Broker   `yaml:"broker"`
	Kiosk    Kiosk    `yaml:"kiosk"`
	Notify   Notify   `yaml:"notify"`
	Log      Log      `yaml:"log"`
}

// MustLoad reads the config file at path, falling back to environment
// variables and defaults when the file is absent.  Exits on a malformed
// file so a bad deploy fails fast.
func MustLoad(path string) *Config {
	cfg := &Config{}

	var err error
	if _, statErr := os.Stat(path); statErr == nil {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(cfg, nil)
		log.Fatal(fmt.Errorf("config: %s; %s", err, desc))
	}
	return cfg
}
