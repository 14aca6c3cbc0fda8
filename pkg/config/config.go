package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	SQLite     SQLiteConfig
	Redis      RedisConfig
	LLM        LLMConfig
	Classifier ClassifierConfig
	FactCheck  FactCheckConfig
	News       NewsConfig
	Analysis   AnalysisConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLSec   int
}

type LLMConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

type ClassifierConfig struct {
	Endpoint      string
	APIKey        string
	MaxInputChars int
	TimeoutSec    int
}

type FactCheckConfig struct {
	APIKey     string
	Endpoint   string
	TimeoutSec int
}

type NewsConfig struct {
	APIKey       string
	Endpoint     string
	Country      string
	PageSize     int
	FallbackFeed string
	DelaySec     int
}

type AnalysisConfig struct {
	MaxRetries        int
	InitialBackoffSec int
	FetchTimeoutSec   int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/truthchain")

	viper.SetEnvPrefix("TRUTHCHAIN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 120)
	viper.SetDefault("server.bodyLimit", 1048576)

	viper.SetDefault("sqlite.path", "./data/truthchain.db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttlSec", 3600)

	viper.SetDefault("llm.model", "gpt-4o")
	viper.SetDefault("llm.temperature", 0.2)
	viper.SetDefault("llm.maxTokens", 2048)
	viper.SetDefault("llm.timeoutSec", 60)

	viper.SetDefault("classifier.endpoint", "")
	viper.SetDefault("classifier.maxInputChars", 2048)
	viper.SetDefault("classifier.timeoutSec", 15)

	viper.SetDefault("factcheck.endpoint", "https://factchecktools.googleapis.com/v1alpha1/claims:search")
	viper.SetDefault("factcheck.timeoutSec", 10)

	viper.SetDefault("news.endpoint", "https://newsapi.org/v2/top-headlines")
	viper.SetDefault("news.country", "us")
	viper.SetDefault("news.pageSize", 5)
	viper.SetDefault("news.fallbackFeed", "")
	viper.SetDefault("news.delaySec", 3)

	viper.SetDefault("analysis.maxRetries", 3)
	viper.SetDefault("analysis.initialBackoffSec", 5)
	viper.SetDefault("analysis.fetchTimeoutSec", 15)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
