package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Attachments   AttachmentsConfig
	Retention     RetentionConfig
	Approval      ApprovalConfig
	SeedAdmin     SeedAdminConfig
	Activity      ActivityConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Approval.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ERP_APP_ENV" required:"true"`
	Port         string `envconfig:"ERP_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ERP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ERP_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"ERP_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

type ServiceConfig struct {
	Kind string `envconfig:"ERP_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ERP_DB_DSN"`
	Driver string `envconfig:"ERP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ERP_DB_HOST"`
	LegacyPort     int    `envconfig:"ERP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ERP_DB_USER"`
	LegacyPassword string `envconfig:"ERP_DB_PASSWORD"`
	LegacyName     string `envconfig:"ERP_DB_NAME"`
	LegacySSLMode  string `envconfig:"ERP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ERP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ERP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ERP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ERP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"ERP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ERP_REDIS_ADDR"`
	Password     string        `envconfig:"ERP_REDIS_PASSWORD"`
	DB           int           `envconfig:"ERP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ERP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ERP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ERP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ERP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ERP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ERP_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ERP_JWT_ISSUER" default:"erp-backend"`
	ExpirationMinutes      int    `envconfig:"ERP_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"ERP_REFRESH_TOKEN_TTL_MINUTES" default:"1440"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ERP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ERP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ERP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ERP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ERP_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"ERP_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"ERP_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"ERP_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ERP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ERP_AUTO_MIGRATE" default:"false"`
}

type AttachmentsConfig struct {
	Dir          string `envconfig:"ERP_ATTACHMENTS_DIR" default:"uploads"`
	MaxUploadMB  int    `envconfig:"ERP_MAX_UPLOAD_MB" default:"10"`
	AllowedTypes string `envconfig:"ERP_ATTACHMENTS_ALLOWED_TYPES" default:"application/pdf,image/jpeg,image/png,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet,application/vnd.ms-excel,application/zip,text/plain,text/csv"`
}

// MaxUploadBytes converts the configured megabyte limit.
func (a AttachmentsConfig) MaxUploadBytes() int64 {
	return int64(a.MaxUploadMB) << 20
}

func (a AttachmentsConfig) AllowedMIMETypes() []string {
	var out []string
	for _, mt := range strings.Split(a.AllowedTypes, ",") {
		if trimmed := strings.TrimSpace(mt); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type RetentionConfig struct {
	QueryDays int           `envconfig:"ERP_RETENTION_QUERY_DAYS" default:"30"`
	Interval  time.Duration `envconfig:"ERP_RETENTION_INTERVAL" default:"24h"`
}

type ApprovalConfig struct {
	DuplicatePolicy string `envconfig:"ERP_APPROVAL_DUPLICATE_POLICY" default:"allow"`
}

// AllowDuplicates reports whether a quotation may be approved into more than one invoice.
func (a ApprovalConfig) AllowDuplicates() bool {
	return !strings.EqualFold(strings.TrimSpace(a.DuplicatePolicy), ApprovalPolicyReject)
}

func (a ApprovalConfig) validate() error {
	policy := strings.ToLower(strings.TrimSpace(a.DuplicatePolicy))
	if policy != ApprovalPolicyAllow && policy != ApprovalPolicyReject {
		return fmt.Errorf("%s must be %q or %q", EnvApprovalDuplicatePolicy, ApprovalPolicyAllow, ApprovalPolicyReject)
	}
	return nil
}

type SeedAdminConfig struct {
	Username string `envconfig:"ERP_SEED_ADMIN_USERNAME" default:"admin"`
	Password string `envconfig:"ERP_SEED_ADMIN_PASSWORD"`
	FullName string `envconfig:"ERP_SEED_ADMIN_FULL_NAME" default:"System Administrator"`
	Email    string `envconfig:"ERP_SEED_ADMIN_EMAIL"`
}

type ActivityConfig struct {
	BufferSize int `envconfig:"ERP_ACTIVITY_BUFFER_SIZE" default:"256"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ERP_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"ERP_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ERP_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	ActivityTopic string `envconfig:"ERP_PUBSUB_ACTIVITY_TOPIC"`
}

// Enabled reports whether activity entries should be mirrored to Pub/Sub.
func (p PubSubConfig) Enabled(gcp GCPConfig) bool {
	return strings.TrimSpace(p.ActivityTopic) != "" && strings.TrimSpace(gcp.ProjectID) != ""
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = defaultSQLiteDSN
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
