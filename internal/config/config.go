package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/yourorg/blobtour/internal/naming"
	"github.com/yourorg/blobtour/internal/storage"
)

// Config holds everything a walkthrough run, the worker, and cleanup need.
type Config struct {
	Storage storage.Options

	// WorkDir is the persistent local directory for generated and downloaded files.
	WorkDir         string
	ContainerPrefix string
	FilePrefix      string
	Content         string
	Interactive     bool
	// Metadata is set on the container when it is created.
	Metadata map[string]string

	LedgerDir   string
	LogLevel    string
	MetricsAddr string

	Temporal Temporal
}

type Temporal struct {
	Address   string
	Namespace string
	TaskQueue string
}

// env keys and the variables each one is read from, in priority order.
var bindings = map[string][]string{
	"backend":                 {"BLOBTOUR_BACKEND"},
	"azure.connection_string": {"AZURE_STORAGE_CONNECTION_STRING", "BLOBTOUR_AZURE_CONNECTION_STRING"},
	"minio.endpoint":          {"BLOBTOUR_MINIO_ENDPOINT"},
	"minio.access_key":        {"BLOBTOUR_MINIO_ACCESS_KEY", "MINIO_ROOT_USER"},
	"minio.secret_key":        {"BLOBTOUR_MINIO_SECRET_KEY", "MINIO_ROOT_PASSWORD"},
	"minio.use_ssl":           {"BLOBTOUR_MINIO_USE_SSL"},
	"minio.region":            {"BLOBTOUR_MINIO_REGION"},
	"local.root":              {"BLOBTOUR_LOCAL_ROOT"},
	"work_dir":                {"BLOBTOUR_WORK_DIR"},
	"container_prefix":        {"BLOBTOUR_CONTAINER_PREFIX"},
	"file_prefix":             {"BLOBTOUR_FILE_PREFIX"},
	"content":                 {"BLOBTOUR_CONTENT"},
	"interactive":             {"BLOBTOUR_INTERACTIVE"},
	"metadata":                {"BLOBTOUR_METADATA"},
	"ledger_dir":              {"BLOBTOUR_LEDGER_DIR"},
	"log_level":               {"LOG_LEVEL"},
	"metrics_addr":            {"METRICS_ADDR"},
	"temporal.address":        {"TEMPORAL_TARGET_HOST", "TEMPORAL_ADDRESS"},
	"temporal.namespace":      {"TEMPORAL_NAMESPACE"},
	"temporal.task_queue":     {"TEMPORAL_TASK_QUEUE"},
}

// FromEnv loads configuration from environment variables, after merging any
// .env files given (or ./.env when none are). A named file must exist; a
// missing ./.env is ignored. Variables already set in the environment win
// over .env entries.
func FromEnv(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		// ./.env is optional
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return Config{}, err
		}
	}
	v.SetDefault("backend", storage.BackendAzure)
	v.SetDefault("minio.region", "us-east-1")
	v.SetDefault("local.root", filepath.Join(os.TempDir(), "blobtour-store"))
	v.SetDefault("work_dir", filepath.Join(cwd, "files"))
	v.SetDefault("container_prefix", naming.DefaultContainerPrefix)
	v.SetDefault("file_prefix", naming.DefaultFilePrefix)
	v.SetDefault("content", "Hello, World!")
	v.SetDefault("interactive", true)
	v.SetDefault("ledger_dir", filepath.Join(cwd, ".blobtour-ledger"))
	v.SetDefault("log_level", "info")
	v.SetDefault("temporal.address", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "blobtour")

	cfg := Config{
		Storage: storage.Options{
			Backend:               strings.ToLower(strings.TrimSpace(v.GetString("backend"))),
			AzureConnectionString: strings.TrimSpace(v.GetString("azure.connection_string")),
			MinIO: storage.MinIOConfig{
				Endpoint:  v.GetString("minio.endpoint"),
				Region:    v.GetString("minio.region"),
				AccessKey: v.GetString("minio.access_key"),
				SecretKey: v.GetString("minio.secret_key"),
				UseSSL:    v.GetBool("minio.use_ssl"),
			},
			LocalRoot: v.GetString("local.root"),
		},
		WorkDir:         v.GetString("work_dir"),
		ContainerPrefix: v.GetString("container_prefix"),
		FilePrefix:      v.GetString("file_prefix"),
		Content:         v.GetString("content"),
		Interactive:     v.GetBool("interactive"),
		Metadata:        ParseKeyValue(v.GetString("metadata")),
		LedgerDir:       v.GetString("ledger_dir"),
		LogLevel:        v.GetString("log_level"),
		MetricsAddr:     v.GetString("metrics_addr"),
		Temporal: Temporal{
			Address:   v.GetString("temporal.address"),
			Namespace: v.GetString("temporal.namespace"),
			TaskQueue: v.GetString("temporal.task_queue"),
		},
	}
	return cfg, nil
}

// ParseKeyValue parses "k1=v1,k2=v2". Malformed pairs are skipped; an empty
// string yields nil.
func ParseKeyValue(s string) map[string]string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	result := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		keyValue := strings.SplitN(pair, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		k := strings.TrimSpace(keyValue[0])
		if k == "" {
			continue
		}
		result[k] = strings.TrimSpace(keyValue[1])
	}
	return result
}
