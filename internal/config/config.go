package config

import (
	"fmt"
	"github.com/shopspring/decimal"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

var cfg *Config
var once sync.Once

// Config is the configuration for the application
type Config struct {
	Server
	PostgreSQL
	Process
	Balance
	Fees
	Events
	Log
	Auth
}

// Process configures the recovery sweep.
type Process struct {
	Interval                string `env:"RECOVERY_INTERVAL" envDefault:"60"`
	StaleAfter              string `env:"RECOVERY_STALE_AFTER" envDefault:"300"`
	MaxCompensationAttempts string `env:"RECOVERY_MAX_COMPENSATIONS" envDefault:"5"`
}

func (p Process) IntervalDuration() (time.Duration, error) {
	return seconds("RECOVERY_INTERVAL", p.Interval)
}

func (p Process) StaleAfterDuration() (time.Duration, error) {
	return seconds("RECOVERY_STALE_AFTER", p.StaleAfter)
}

func (p Process) MaxCompensations() (int, error) {
	return integer("RECOVERY_MAX_COMPENSATIONS", p.MaxCompensationAttempts)
}

// Server is the configuration for the server
type Server struct {
	Port string `env:"PORT" envDefault:"8080"`
}

// Addr returns the address for the server
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%s", "0.0.0.0", s.Port)
}

// PostgreSQL is the configuration for the database
type PostgreSQL struct {
	Driver          string `env:"DB_DRIVER" envDefault:"postgres"`
	Host            string `env:"DB_HOST" envDefault:"localhost"`
	Port            string `env:"DB_PORT" envDefault:"5432"`
	Database        string `env:"DB_DATABASE" envDefault:"ms_transaction"`
	Username        string `env:"DB_USERNAME" envDefault:"ms_transaction"`
	Password        string `env:"DB_PASSWORD" envDefault:"ms_transaction"`
	SSLMode         string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxConnAttempts string `env:"DB_MAX_CONN_ATTEMPTS" envDefault:"5"`
	Migrate         string `env:"DB_MIGRATE" envDefault:"false"`
}

// DSN returns the DSN for the database
func (c PostgreSQL) DSN() string {
	return fmt.Sprintf("%s://%s:%s@%s:%s/%s?sslmode=%s",
		c.Driver,
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
		c.SSLMode,
	)
}

func (c PostgreSQL) Attempts() (int, error) {
	return integer("DB_MAX_CONN_ATTEMPTS", c.MaxConnAttempts)
}

func (c PostgreSQL) ShouldMigrate() bool {
	ok, _ := strconv.ParseBool(c.Migrate)
	return ok
}

// Balance points at the Balance Service.
type Balance struct {
	URL     string `env:"BALANCE_SERVICE_URL" envDefault:"http://localhost:8081"`
	Timeout string `env:"BALANCE_TIMEOUT" envDefault:"5"`
}

func (b Balance) TimeoutDuration() (time.Duration, error) {
	return seconds("BALANCE_TIMEOUT", b.Timeout)
}

type Fees struct {
	Withdrawal string `env:"WITHDRAWAL_FEE" envDefault:"5.00"`
	Transfer   string `env:"TRANSFER_FEE" envDefault:"3.00"`
}

func (f Fees) WithdrawalFee() (decimal.Decimal, error) {
	return fee("WITHDRAWAL_FEE", f.Withdrawal)
}

func (f Fees) TransferFee() (decimal.Decimal, error) {
	return fee("TRANSFER_FEE", f.Transfer)
}

// Events configures where transaction events are published.
type Events struct {
	Driver       string `env:"EVENTS_DRIVER" envDefault:"none"`
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:""`
	Topic        string `env:"EVENTS_TOPIC" envDefault:"transaction-events"`
	RedisAddr    string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Workers      string `env:"EVENTS_WORKERS" envDefault:"4"`
}

// Brokers splits the comma separated broker list.
func (e Events) Brokers() []string {
	brokers := make([]string, 0)
	for _, b := range strings.Split(e.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (e Events) WorkerCount() (int, error) {
	return integer("EVENTS_WORKERS", e.Workers)
}

type Log struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	File  string `env:"LOG_FILE" envDefault:""`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET" envDefault:""`
}

// Load loads the configuration from environment variables
func Load() *Config {
	once.Do(func() {
		cfg = load()
	})

	return cfg
}

func load() *Config {
	c := &Config{}
	cfgType := reflect.TypeOf(*c)
	cfgValue := reflect.ValueOf(c).Elem()

	for i := 0; i < cfgType.NumField(); i++ {
		field := cfgType.Field(i)
		fieldValue := cfgValue.Field(i)
		for j := 0; j < field.Type.NumField(); j++ {
			subField := field.Type.Field(j)
			envVar := subField.Tag.Get("env")
			envDefault := subField.Tag.Get("envDefault")
			value := getEnv(envVar, envDefault)

			fieldValue.Field(j).SetString(value)
		}
	}
	return c
}

// getEnv retrieves the value of the environment variable named by the key or returns the defaultValue if not set
func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = defaultValue
	}
	return value
}

func integer(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s: must not be negative", key)
	}
	return n, nil
}

func seconds(key, value string) (time.Duration, error) {
	n, err := integer(key, value)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}

func fee(key, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s: must not be negative", key)
	}
	if !d.Equal(d.Truncate(2)) {
		return decimal.Zero, fmt.Errorf("%s: at most 2 decimal places", key)
	}
	return d, nil
}
