package config

const (
	DefaultHTTPAddress        = ":8080"
	DefaultShutdownSeconds    = 5
	DefaultLockTimeoutMS      = 5000
	DefaultTimezone           = "America/New_York"
	DefaultSlotsCacheTTL      = 30
	DefaultNotifyTimeoutSec   = 10
	DefaultNotificationsTopic = "appointments.notifications"
	DefaultGroupID            = "appointments-worker"
	DefaultCloseSweepMinutes  = 60
)

const (
	EnvConfigPath       = "CONFIG_PATH"
	EnvDatabasePassword = "DATABASE_PASSWORD"
	EnvEmailAPIKey      = "EMAIL_API_KEY"
	EnvAdminToken       = "ADMIN_TOKEN"
	EnvLogLevel         = "LOG_LEVEL"
	EnvKafkaBrokers     = "KAFKA_BROKERS"
)
