// restockd/internal/config/config.go
package config

import (
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Artifacts ArtifactConfig
	Forecast  ForecastConfig
	Restock   RestockConfig
	Cache     CacheConfig
	Storage   StorageConfig
	Drive     DriveConfig
}

type ServerConfig struct {
	Port           string
	RestockPort    string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string

	// RestockAllowedOrigins is the restock service's CORS list; "*" allows
	// any origin.
	RestockAllowedOrigins []string
}

// ArtifactConfig locates every file the artifact store loads. Decision
// service files live under DataDir/ModelDir, restock files under RestockDir.
type ArtifactConfig struct {
	DataDir    string
	ModelDir   string
	RestockDir string

	WarehousesFile   string
	LanesFile        string
	TransportsFile   string
	HistoryFile      string
	ShipmentsFile    string
	CostModelFile    string
	ForecasterFile   string
	ForecastYFile    string
	ForecastColsFile string

	RestockModelFile    string
	RestockScalerXFile  string
	RestockScalerYFile  string
	RestockManifestFile string
}

type ForecastConfig struct {
	Window      int
	HiddenSize  int
	NumLayers   int
	Buffer      float64
	SKUColumn   string
	StoreColumn string
	DateColumn  string
	Categorical []string
}

type RestockConfig struct {
	LookBack      int
	LeadTimeDays  float64
	SafetyDays    float64
	RecentDays    int
	SalesProxyCol string
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	DecisionTTLSeconds int
}

// StorageConfig points at the S3-compatible bucket artifacts are synced from.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Prefix    string
	UseSSL    bool
}

type DriveConfig struct {
	CredentialsJSON string
	FolderID        string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults(viper.GetViper())

		// Read from environment variables
		viper.AutomaticEnv()

		instance = fromViper(viper.GetViper())
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8000")
	v.SetDefault("RESTOCK_SERVER_PORT", "5000")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"http://localhost:5173"})
	v.SetDefault("RESTOCK_ALLOWED_ORIGINS", []string{"*"})

	v.SetDefault("ARTIFACT_DATA_DIR", "./data")
	v.SetDefault("ARTIFACT_MODEL_DIR", "./models")
	v.SetDefault("ARTIFACT_RESTOCK_DIR", "./restock")
	v.SetDefault("ARTIFACT_WAREHOUSES_FILE", "warehouses.csv")
	v.SetDefault("ARTIFACT_LANES_FILE", "lanes.csv")
	v.SetDefault("ARTIFACT_TRANSPORTS_FILE", "transports.csv")
	v.SetDefault("ARTIFACT_HISTORY_FILE", "SyntheticSupplyChain.csv")
	v.SetDefault("ARTIFACT_SHIPMENTS_FILE", "shipments.csv")
	v.SetDefault("ARTIFACT_COST_MODEL_FILE", "compat_model.json")
	v.SetDefault("ARTIFACT_FORECASTER_FILE", "forecaster_lstm.json")
	v.SetDefault("ARTIFACT_FORECAST_Y_FILE", "forecaster_scaler_y.json")
	v.SetDefault("ARTIFACT_FORECAST_FEATURES_FILE", "forecaster_features.json")
	v.SetDefault("ARTIFACT_RESTOCK_MODEL_FILE", "restock_model.json")
	v.SetDefault("ARTIFACT_RESTOCK_SCALER_X_FILE", "scaler_X.json")
	v.SetDefault("ARTIFACT_RESTOCK_SCALER_Y_FILE", "scaler_y.json")
	v.SetDefault("ARTIFACT_RESTOCK_MANIFEST_FILE", "model_features.json")

	v.SetDefault("FORECAST_WINDOW", 30)
	v.SetDefault("FORECAST_HIDDEN_SIZE", 64)
	v.SetDefault("FORECAST_NUM_LAYERS", 1)
	v.SetDefault("FORECAST_ORDER_BUFFER", 1.2)
	v.SetDefault("FORECAST_SKU_COLUMN", "sku")
	v.SetDefault("FORECAST_STORE_COLUMN", "store_id")
	v.SetDefault("FORECAST_DATE_COLUMN", "Date")
	v.SetDefault("FORECAST_CATEGORICAL", []string{"Region", "Weather"})

	v.SetDefault("RESTOCK_LOOK_BACK", 45)
	v.SetDefault("RESTOCK_LEAD_TIME_DAYS", 7)
	v.SetDefault("RESTOCK_SAFETY_DAYS", 3)
	v.SetDefault("RESTOCK_RECENT_DAYS", 7)
	v.SetDefault("RESTOCK_SALES_PROXY_COLUMN", "Lag_Sales_D-1")

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_DECISION_TTL_SECONDS", 300)

	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_ACCESS_KEY", "")
	v.SetDefault("S3_SECRET_KEY", "")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_PREFIX", "")
	v.SetDefault("S3_USE_SSL", true)

	v.SetDefault("GOOGLE_DRIVE_CREDENTIALS_JSON", "")
	v.SetDefault("ARTIFACT_DRIVE_FOLDER_ID", "")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			RestockPort:    v.GetString("RESTOCK_SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),

			RestockAllowedOrigins: v.GetStringSlice("RESTOCK_ALLOWED_ORIGINS"),
		},
		Artifacts: ArtifactConfig{
			DataDir:             v.GetString("ARTIFACT_DATA_DIR"),
			ModelDir:            v.GetString("ARTIFACT_MODEL_DIR"),
			RestockDir:          v.GetString("ARTIFACT_RESTOCK_DIR"),
			WarehousesFile:      v.GetString("ARTIFACT_WAREHOUSES_FILE"),
			LanesFile:           v.GetString("ARTIFACT_LANES_FILE"),
			TransportsFile:      v.GetString("ARTIFACT_TRANSPORTS_FILE"),
			HistoryFile:         v.GetString("ARTIFACT_HISTORY_FILE"),
			ShipmentsFile:       v.GetString("ARTIFACT_SHIPMENTS_FILE"),
			CostModelFile:       v.GetString("ARTIFACT_COST_MODEL_FILE"),
			ForecasterFile:      v.GetString("ARTIFACT_FORECASTER_FILE"),
			ForecastYFile:       v.GetString("ARTIFACT_FORECAST_Y_FILE"),
			ForecastColsFile:    v.GetString("ARTIFACT_FORECAST_FEATURES_FILE"),
			RestockModelFile:    v.GetString("ARTIFACT_RESTOCK_MODEL_FILE"),
			RestockScalerXFile:  v.GetString("ARTIFACT_RESTOCK_SCALER_X_FILE"),
			RestockScalerYFile:  v.GetString("ARTIFACT_RESTOCK_SCALER_Y_FILE"),
			RestockManifestFile: v.GetString("ARTIFACT_RESTOCK_MANIFEST_FILE"),
		},
		Forecast: ForecastConfig{
			Window:      v.GetInt("FORECAST_WINDOW"),
			HiddenSize:  v.GetInt("FORECAST_HIDDEN_SIZE"),
			NumLayers:   v.GetInt("FORECAST_NUM_LAYERS"),
			Buffer:      v.GetFloat64("FORECAST_ORDER_BUFFER"),
			SKUColumn:   v.GetString("FORECAST_SKU_COLUMN"),
			StoreColumn: v.GetString("FORECAST_STORE_COLUMN"),
			DateColumn:  v.GetString("FORECAST_DATE_COLUMN"),
			Categorical: v.GetStringSlice("FORECAST_CATEGORICAL"),
		},
		Restock: RestockConfig{
			LookBack:      v.GetInt("RESTOCK_LOOK_BACK"),
			LeadTimeDays:  v.GetFloat64("RESTOCK_LEAD_TIME_DAYS"),
			SafetyDays:    v.GetFloat64("RESTOCK_SAFETY_DAYS"),
			RecentDays:    v.GetInt("RESTOCK_RECENT_DAYS"),
			SalesProxyCol: v.GetString("RESTOCK_SALES_PROXY_COLUMN"),
		},
		Cache: CacheConfig{
			Enabled:            v.GetBool("CACHE_ENABLED"),
			RedisURL:           v.GetString("REDIS_URL"),
			RedisHost:          v.GetString("REDIS_HOST"),
			RedisPort:          v.GetString("REDIS_PORT"),
			RedisPassword:      v.GetString("REDIS_PASSWORD"),
			RedisDB:            v.GetInt("REDIS_DB"),
			DecisionTTLSeconds: v.GetInt("CACHE_DECISION_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("S3_ENDPOINT"),
			AccessKey: v.GetString("S3_ACCESS_KEY"),
			SecretKey: v.GetString("S3_SECRET_KEY"),
			Bucket:    v.GetString("S3_BUCKET"),
			Region:    v.GetString("S3_REGION"),
			Prefix:    v.GetString("S3_PREFIX"),
			UseSSL:    v.GetBool("S3_USE_SSL"),
		},
		Drive: DriveConfig{
			CredentialsJSON: v.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
			FolderID:        v.GetString("ARTIFACT_DRIVE_FOLDER_ID"),
		},
	}
}

// Defaults returns a configuration built from defaults only, ignoring the
// environment. Tools and tests use it as a base.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	return fromViper(v)
}

func (a ArtifactConfig) DataPath(name string) string    { return filepath.Join(a.DataDir, name) }
func (a ArtifactConfig) ModelPath(name string) string   { return filepath.Join(a.ModelDir, name) }
func (a ArtifactConfig) RestockPath(name string) string { return filepath.Join(a.RestockDir, name) }
