package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/dmitrijs2005/hashenv/internal/flagx"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "HASHENV_"

const defaultEnvFile = ".env"

var (
	readDotenv = godotenv.Read
	lookupEnv  = os.LookupEnv
)

// parseEnv overlays values from a dotenv file and the process environment.
// Real environment variables take precedence over the file. The file named
// by -env-file must exist; the default .env is optional.
func parseEnv(config *Config) error {
	path := flagx.EnvFileFlag()
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	fileVars, err := readDotenv(path)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: read %s: %v", common.ErrConfiguration, path, err)
		}
		fileVars = map[string]string{}
	}

	get := func(name string) (string, bool) {
		key := EnvPrefix + name
		if v, ok := lookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	strs := map[string]*string{
		"HTTP_ADDR":        &config.HTTPAddr,
		"DATABASE_DSN":     &config.DatabaseDSN,
		"JWT_SECRET":       &config.JWTSecret,
		"MASTER_KEY":       &config.MasterKey,
		"CIPHER_ALGORITHM": &config.CipherAlgorithm,
		"LOG_FORMAT":       &config.LogFormat,
		"S3_ROOT_USER":     &config.S3RootUser,
		"S3_ROOT_PASSWORD": &config.S3RootPassword,
		"S3_BUCKET":        &config.S3Bucket,
		"S3_REGION":        &config.S3Region,
		"S3_BASE_ENDPOINT": &config.S3BaseEndpoint,
	}
	for name, dst := range strs {
		if v, ok := get(name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PANIC_FLUSH_MIN_HOURS": &config.PanicFlushMinHours,
		"PANIC_FLUSH_MAX_HOURS": &config.PanicFlushMaxHours,
		"UPLOAD_MAX_RETRIES":    &config.UploadMaxRetries,
		"AUDIT_QUERY_LIMIT":     &config.AuditQueryLimit,
	}
	for name, dst := range ints {
		if v, ok := get(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s: %v", common.ErrConfiguration, EnvPrefix, name, err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"PANIC_AUDIT_FLUSH": &config.PanicAuditFlush,
		"S3_ENABLED":        &config.S3Enabled,
	}
	for name, dst := range bools {
		if v, ok := get(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s: %v", common.ErrConfiguration, EnvPrefix, name, err)
			}
			*dst = b
		}
	}

	durations := map[string]*time.Duration{
		"UPLOAD_RETRY_BASE_DELAY": &config.UploadRetryBaseDelay,
		"S3_PRESIGN_TTL":          &config.S3PresignTTL,
	}
	for name, dst := range durations {
		if v, ok := get(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s: %v", common.ErrConfiguration, EnvPrefix, name, err)
			}
			*dst = d
		}
	}

	return nil
}
