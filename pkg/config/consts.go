package config

// EnvPrefix is passed to envconfig; individual fields carry fully
// qualified env var names so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "PACT_DB_DSN"
	EnvDBHost = "PACT_DB_HOST"
	EnvDBUser = "PACT_DB_USER"
	EnvDBName = "PACT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
