package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/hashenv/internal/flagx"
	"github.com/dmitrijs2005/hashenv/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// Interval fields use timex.Duration, which accepts both "15m" style strings
// and integer nanoseconds. Pointer fields distinguish "absent" from "false"/0.
type JsonConfig struct {
	HTTPAddr             string         `json:"http_addr"`
	DatabaseDSN          string         `json:"database_dsn"`
	JWTSecret            string         `json:"jwt_secret"`
	MasterKey            string         `json:"master_key"`
	CipherAlgorithm      string         `json:"cipher_algorithm"`
	LogFormat            string         `json:"log_format"`
	PanicFlushMinHours   int            `json:"panic_flush_min_hours"`
	PanicFlushMaxHours   int            `json:"panic_flush_max_hours"`
	PanicAuditFlush      *bool          `json:"panic_audit_flush"`
	UploadMaxRetries     *int           `json:"upload_max_retries"`
	UploadRetryBaseDelay timex.Duration `json:"upload_retry_base_delay"`
	AuditQueryLimit      int            `json:"audit_query_limit"`
	S3Enabled            *bool          `json:"s3_enabled"`
	S3RootUser           string         `json:"s3_root_user"`
	S3RootPassword       string         `json:"s3_root_password"`
	S3Bucket             string         `json:"s3_bucket"`
	S3Region             string         `json:"s3_region"`
	S3BaseEndpoint       string         `json:"s3_base_endpoint"`
	S3PresignTTL         timex.Duration `json:"s3_presign_ttl"`
}

// parseJson loads configuration values from the JSON file named by the -c
// or -config flag. Without the flag nothing is loaded. Only fields present
// in the file override the current values. An unreadable or invalid file
// panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.JWTSecret, c.JWTSecret)
	setString(&config.MasterKey, c.MasterKey)
	setString(&config.CipherAlgorithm, c.CipherAlgorithm)
	setString(&config.LogFormat, c.LogFormat)
	setInt(&config.PanicFlushMinHours, c.PanicFlushMinHours)
	setInt(&config.PanicFlushMaxHours, c.PanicFlushMaxHours)
	if c.PanicAuditFlush != nil {
		config.PanicAuditFlush = *c.PanicAuditFlush
	}
	if c.UploadMaxRetries != nil {
		config.UploadMaxRetries = *c.UploadMaxRetries
	}
	if c.UploadRetryBaseDelay.Duration > 0 {
		config.UploadRetryBaseDelay = c.UploadRetryBaseDelay.Duration
	}
	setInt(&config.AuditQueryLimit, c.AuditQueryLimit)
	if c.S3Enabled != nil {
		config.S3Enabled = *c.S3Enabled
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.S3PresignTTL.Duration > 0 {
		config.S3PresignTTL = c.S3PresignTTL.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
