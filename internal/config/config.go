package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ecorder/internal/domain/model"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（order:8080 / notification:8081）

	GoEnv    string // dev/prod
	LogLevel string // debug/info/warn/error
	FEURL    string // フロントURL（CORSで使う）

	DatabaseURL      string // あれば POSTGRES_* より優先
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	OrderStore string // postgres/mongo
	MongoURI   string
	MongoDB    string

	JWTSecret string // JWT署名シークレット

	CartServiceURL    string
	ProductServiceURL string
	UpstreamTimeout   time.Duration

	OrderFanoutLimit   int    // 0は無制限
	SettlementCurrency string // INR
	CurrencyPolicy     string // fixed/strict
	OrderCheckoutSaga  bool

	KafkaBrokers []string // 空ならログ出力のみ
	KafkaGroupID string

	RedisAddr     string // 空ならdenylist無効
	RedisPassword string

	SendGridAPIKey string // 空ならログ出力のみ
	EmailSender    string
}

// Loadは環境変数。defaultPort はサービスごとに違う。
func Load(defaultPort string) (Config, error) {
	cfg := Config{
		Port:     getenv("PORT", defaultPort),
		GoEnv:    getenv("GO_ENV", "dev"),
		LogLevel: getenv("LOG_LEVEL", "info"),
		FEURL:    getenv("FE_URL", "http://localhost:5173"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "ecorder"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		OrderStore: strings.ToLower(getenv("ORDER_STORE", "postgres")),
		MongoURI:   getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:    getenv("MONGO_DB", "ecorder"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		CartServiceURL:    strings.TrimRight(getenv("CART_SERVICE_URL", "http://localhost:3002"), "/"),
		ProductServiceURL: strings.TrimRight(getenv("PRODUCT_SERVICE_URL", "http://localhost:3001"), "/"),

		SettlementCurrency: strings.ToUpper(getenv("SETTLEMENT_CURRENCY", "INR")),
		CurrencyPolicy:     strings.ToLower(getenv("CURRENCY_POLICY", "fixed")),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaGroupID: os.Getenv("KAFKA_GROUP_ID"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		EmailSender:    getenv("EMAIL_SENDER", "no-reply@example.com"),
	}

	var err error
	if cfg.PostgresPort, err = atoiDefault("POSTGRES_PORT", 5432); err != nil {
		return Config{}, err
	}
	if cfg.OrderFanoutLimit, err = atoiDefault("ORDER_FANOUT_LIMIT", 0); err != nil {
		return Config{}, err
	}
	if cfg.UpstreamTimeout, err = durationDefault("UPSTREAM_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.OrderCheckoutSaga, err = boolDefault("ORDER_CHECKOUT_SAGA", false); err != nil {
		return Config{}, err
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.OrderStore != "postgres" && cfg.OrderStore != "mongo" {
		return Config{}, fmt.Errorf("ORDER_STORE must be postgres or mongo: %q", cfg.OrderStore)
	}
	if cfg.CurrencyPolicy != "fixed" && cfg.CurrencyPolicy != "strict" {
		return Config{}, fmt.Errorf("CURRENCY_POLICY must be fixed or strict: %q", cfg.CurrencyPolicy)
	}
	if _, ok := model.ParseCurrency(cfg.SettlementCurrency); !ok {
		return Config{}, fmt.Errorf("SETTLEMENT_CURRENCY must be INR or USD: %q", cfg.SettlementCurrency)
	}
	if cfg.OrderFanoutLimit < 0 {
		return Config{}, fmt.Errorf("ORDER_FANOUT_LIMIT must be >= 0")
	}

	return cfg, nil
}

// PostgresDSN は DATABASE_URL が無ければ POSTGRES_* から組み立てる。
func (c Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

// ListenAddr は ":" 付きのアドレス
func (c Config) ListenAddr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}

func getenv(key string, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationDefault(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}

func boolDefault(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be bool: %w", key, err)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
