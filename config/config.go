package config

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"
)

type Config struct {
	MinIOBucket string        `yaml:"minio_bucket"`
	App         App           `yaml:"app"`
	DB          *sql.DB       `yaml:"db"`
	Queue       *RabbitMQ     `yaml:"rabbitmq"`
	Storage     *minio.Client `yaml:"storage"`
	Server      Server        `yaml:"server"`
	Pipeline    Pipeline      `yaml:"pipeline"`
	ASR         ASR           `yaml:"asr"`
	LLM         LLM           `yaml:"llm"`
}

type App struct {
	Environment string `yaml:"environment"`
	Host        string `yaml:"host"`
	Protocol    string `yaml:"protocol"`
}

type Server struct {
	HttpPort string `yaml:"http_port"`
	Workers  int    `yaml:"workers"`
}

type RabbitMQ struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Pass         string `json:"pass"`
	ExchangeName string `json:"exchange_name"`
	Kind         string `json:"kind"`
}

type Pipeline struct {
	MaxConcurrentInference int  `yaml:"max_concurrent_inference"`
	DiarizationEnabled     bool `yaml:"diarization_enabled"`
	MinSpeakers            int  `yaml:"min_speakers"`
	MaxSpeakers            int  `yaml:"max_speakers"`
}

type ASR struct {
	TranscriberURL string        `yaml:"transcriber_url"`
	DiarizerURL    string        `yaml:"diarizer_url"`
	Language       string        `yaml:"language"`
	Timeout        time.Duration `yaml:"timeout"`
}

type LLM struct {
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

func Load(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("pipeline.max_concurrent_inference", 2)
	viper.SetDefault("pipeline.diarization_enabled", true)
	viper.SetDefault("asr.timeout", "20m")
	viper.SetDefault("llm.model", "qwen3:8b")
	viper.SetDefault("llm.timeout", "2m")
	viper.SetDefault("server.workers", 1)

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", viper.GetString("postgresql_host"))
	if err != nil {
		return nil, err
	}

	rabbitmq := &RabbitMQ{
		Host: viper.GetString("rabbitmq_host"),
		Port: viper.GetInt("rabbitmq_port"),
		User: viper.GetString("rabbitmq_user"),
		Pass: viper.GetString("rabbitmq_pass"),
		Kind: viper.GetString("rabbitmq_kind"),
	}

	minioClient, err := minio.New(viper.GetString("minio.url"), &minio.Options{
		Creds:  credentials.NewStaticV4(viper.GetString("minio.access_id"), viper.GetString("minio.secret_access_key"), ""),
		Secure: false,
	})
	if err != nil {
		return nil, err
	}

	return &Config{
		MinIOBucket: viper.GetString("minio.bucket"),
		App: App{
			Environment: viper.GetString("app.environment"),
			Host:        viper.GetString("app.host"),
			Protocol:    viper.GetString("app.protocol"),
		},
		Server: Server{
			HttpPort: viper.GetString("server.port"),
			Workers:  viper.GetInt("server.workers"),
		},
		Pipeline: Pipeline{
			MaxConcurrentInference: viper.GetInt("pipeline.max_concurrent_inference"),
			DiarizationEnabled:     viper.GetBool("pipeline.diarization_enabled"),
			MinSpeakers:            viper.GetInt("pipeline.min_speakers"),
			MaxSpeakers:            viper.GetInt("pipeline.max_speakers"),
		},
		ASR: ASR{
			TranscriberURL: viper.GetString("asr.transcriber_url"),
			DiarizerURL:    viper.GetString("asr.diarizer_url"),
			Language:       viper.GetString("asr.language"),
			Timeout:        viper.GetDuration("asr.timeout"),
		},
		LLM: LLM{
			BaseURL: viper.GetString("llm.base_url"),
			Model:   viper.GetString("llm.model"),
			Timeout: viper.GetDuration("llm.timeout"),
		},
		DB:      db,
		Queue:   rabbitmq,
		Storage: minioClient,
	}, nil
}
