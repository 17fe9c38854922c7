package config

import (
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"log"
	"os"
	"time"
)

const defaultConfigPath = "./config/local.yaml"

type Config struct {
	Env         string   `yaml:"env" env:"APP_ENV" env-default:"prod"`
	HTTPServer  `yaml:"http_server"`
	DBUser      string   `yaml:"db_user" env:"DB_USER" env-required:"true"`
	DBPassword  string   `yaml:"db_password" env:"DB_PASSWORD"`
	DBHost      string   `yaml:"db_host" env:"DB_HOST" env-default:"localhost"`
	DBPort      int      `yaml:"db_port" env:"DB_PORT" env-default:"3306"`
	DBName      string   `yaml:"db_name" env:"DB_NAME" env-required:"true"`
	ParseTime   bool     `yaml:"parse_time" env-default:"true"`
	CORSOrigins []string `yaml:"cors_origins" env-default:"http://localhost:5173"`

	AdminLogin string `yaml:"admin_login" env:"ADMIN_LOGIN"`
	AdminPass  string `yaml:"admin_pass" env:"ADMIN_PASS"`

	Pricing    Pricing    `yaml:"pricing"`
	Imposition Imposition `yaml:"imposition"`
	Planning   Planning   `yaml:"planning"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:4001"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// Pricing holds the per deployment policy values layered on top of direct cost.
type Pricing struct {
	OverheadRate      float64 `yaml:"overhead_rate" env-default:"0.12"`
	DefaultMargin     float64 `yaml:"default_margin" env-default:"0.20"`
	VATRate           float64 `yaml:"vat_rate" env-default:"0.21"`
	SpeedTier         string  `yaml:"speed_tier" env-default:"Standaard"`
	LookupConcurrency int     `yaml:"lookup_concurrency" env-default:"4"`
}

// Imposition задаёт вылеты и промежутки на листе, мм
type Imposition struct {
	Bleed  float64 `yaml:"bleed" env-default:"0"`
	Gutter float64 `yaml:"gutter" env-default:"0"`
}

type Planning struct {
	LeadBusinessDays      int     `yaml:"lead_business_days" env-default:"5"`
	OwnerRole             string  `yaml:"owner_role" env-default:"owner"`
	FallbackDurationHours float64 `yaml:"fallback_duration_hours" env-default:"1.0"`
}

func MustConfig() *Config {
	cfg, err := Load(configPath())
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	// .env не обязателен
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return defaultConfigPath
}
