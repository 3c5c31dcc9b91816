package conf

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/flarexio/core/pubsub"
)

var (
	Path string
	Port int

	global *Config
)

func G() *Config {
	if global == nil {
		panic("configuration not loaded")
	}

	return global
}

func ReplaceGlobals(cfg *Config) {
	global = cfg
}

func LoadEnv(cli *cli.Context) error {
	path := cli.String("path")
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		path = homeDir + "/.flarex/ledger"
	}

	Path = path
	Port = cli.Int("port")
	return nil
}

func LoadConfig() (*Config, error) {
	f, err := os.Open(Path + "/config.yaml")
	if err != nil {
		f, err = os.Open(Path + "/config.example.yaml")
		if err != nil {
			return nil, err
		}
	}
	defer f.Close()

	r := NewEnvExpandedReader(f)

	var cfg *Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

type Config struct {
	Name        string      `yaml:"name"`
	BaseURL     string      `yaml:"baseUrl"`
	JWT         JWT         `yaml:"jwt"`
	Admin       Admin       `yaml:"admin"`
	Persistence Persistence `yaml:"persistence"`
	Cache       Cache       `yaml:"cache"`
	EventBus    EventBus    `yaml:"eventBus"`
}

type JWT struct {
	Privkey ed25519.PrivateKey
	Timeout time.Duration
	Refresh struct {
		Enabled bool
		Maximum time.Duration
	}
	Audiences []string
}

func (cfg *JWT) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Privkey string
		Timeout string
		Refresh struct {
			Enabled bool
			Maximum string
		}
		Audiences []string
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	priv, err := base64.StdEncoding.DecodeString(raw.Privkey)
	if err != nil {
		return err
	}

	if len(priv) != ed25519.PrivateKeySize {
		return errors.New("invalid ed25519 private key length")
	}

	cfg.Privkey = ed25519.PrivateKey(priv)

	if raw.Timeout == "" {
		cfg.Timeout = 1 * time.Hour
	} else {
		timeout, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return err
		}

		cfg.Timeout = timeout
	}

	cfg.Refresh.Enabled = raw.Refresh.Enabled
	if !raw.Refresh.Enabled {
		cfg.Refresh.Maximum = 0
	} else {

		if raw.Refresh.Maximum == "" {
			cfg.Refresh.Maximum = 1 * time.Hour
		} else {
			max, err := time.ParseDuration(raw.Refresh.Maximum)
			if err != nil {
				return err
			}

			cfg.Refresh.Maximum = max
		}
	}

	cfg.Audiences = raw.Audiences

	return nil
}

// Admin is the bootstrap operator account. Both fields are usually
// injected through the environment (LEDGER_ADMIN_USERNAME,
// LEDGER_ADMIN_PASSWORD) and expanded from the config file.
type Admin struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type PersistenceDriver int

const (
	Postgres PersistenceDriver = iota
	SQLite
	InMem
)

func ParsePersistenceDriver(driver string) (PersistenceDriver, error) {
	switch driver {
	case "postgres":
		return Postgres, nil
	case "sqlite":
		return SQLite, nil
	case "inmem":
		return InMem, nil
	default:
		return -1, errors.New("driver not supported")
	}
}

func (driver PersistenceDriver) String() string {
	switch driver {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	case InMem:
		return "inmem"
	default:
		return "unknown"
	}
}

type Persistence struct {
	Driver   PersistenceDriver
	Name     string
	Host     string
	Port     int
	Username string
	Password string
	SSLMode  string
	InMem    bool
}

func (p *Persistence) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Driver   string `yaml:"driver"`
		Name     string `yaml:"name"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		SSLMode  string `yaml:"sslmode"`
		InMem    bool   `yaml:"inmem"`
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	driver, err := ParsePersistenceDriver(raw.Driver)
	if err != nil {
		return err
	}

	p.Driver = driver
	p.Name = raw.Name

	p.Host = raw.Host
	if raw.Host == "" {
		p.Host = Path
	}

	p.Port = raw.Port
	if raw.Port == 0 && driver == Postgres {
		p.Port = 5432
	}

	p.Username = raw.Username
	p.Password = raw.Password

	p.SSLMode = raw.SSLMode
	if raw.SSLMode == "" {
		p.SSLMode = "disable"
	}

	p.InMem = raw.InMem

	return nil
}

type Cache struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TTL      CacheTTL
}

// CacheTTL carries the per-read cache timeouts. List reads are cached
// longer than single objects since they are the hotter queries.
type CacheTTL struct {
	Wallet       time.Duration
	Wallets      time.Duration
	Transaction  time.Duration
	Transactions time.Duration
}

func (c *Cache) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      struct {
			Wallet       string `yaml:"wallet"`
			Wallets      string `yaml:"wallets"`
			Transaction  string `yaml:"transaction"`
			Transactions string `yaml:"transactions"`
		} `yaml:"ttl"`
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	c.Enabled = raw.Enabled
	c.Addr = raw.Addr
	c.Password = raw.Password
	c.DB = raw.DB

	ttl := func(s string, fallback time.Duration) (time.Duration, error) {
		if s == "" {
			return fallback, nil
		}
		return time.ParseDuration(s)
	}

	var err error
	if c.TTL.Wallet, err = ttl(raw.TTL.Wallet, 5*time.Second); err != nil {
		return err
	}
	if c.TTL.Wallets, err = ttl(raw.TTL.Wallets, 20*time.Second); err != nil {
		return err
	}
	if c.TTL.Transaction, err = ttl(raw.TTL.Transaction, 10*time.Second); err != nil {
		return err
	}
	if c.TTL.Transactions, err = ttl(raw.TTL.Transactions, 40*time.Second); err != nil {
		return err
	}

	return nil
}

type TransportProvider int

const NATS TransportProvider = iota

func ParseTransportProvider(provider string) (TransportProvider, error) {
	switch provider {
	case "nats":
		return NATS, nil
	default:
		return -1, errors.New("provider not supported")
	}
}

func (p TransportProvider) String() string {
	switch p {
	case NATS:
		return "nats"
	default:
		return ""
	}
}

type EventBus struct {
	Provider TransportProvider
	Wallets  pubsub.StreamConsumer
}

func (e *EventBus) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Provider string                `yaml:"provider"`
		Wallets  pubsub.StreamConsumer `yaml:"wallets"`
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	provider, err := ParseTransportProvider(raw.Provider)
	if err != nil {
		return err
	}

	e.Provider = provider
	e.Wallets = raw.Wallets

	return nil
}
