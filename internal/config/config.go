package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     int
	Password string
	DBPath   string

	ModelPath          string
	ModelInputSize     int     // Square input edge of the detection network
	DetectorWorkers    int     // Independent networks in the detector pool
	DetectionThreshold float64 // Minimum detector confidence
	NMSThreshold       float64

	FusionStride int // Run detection on every N-th admitted frame
	OCRStride    int // Run OCR on every N-th admitted frame (when medicine is visible)
	OCRURL       string
	OCRTimeout   time.Duration
	OCRMinCrop   int // Crops with a shorter edge are upscaled before recognition

	SessionShards      int
	SessionIdleTimeout time.Duration // 0 disables idle session expiry

	JPEGQuality           int
	EvidenceDirectory     string
	EvidenceFlushInterval int // seconds
	LogDirectory          string

	MQTTBroker   string // empty disables notifications
	MQTTTopic    string
	MQTTClientID string
}

// Load reads an optional .env file and then the environment.
func Load() *Config {
	// .env is optional
	_ = godotenv.Load()

	return &Config{
		Port:                  getEnvAsInt("PORT", 8080),
		Password:              getEnv("PASSWORD", "medaware"),
		DBPath:                getEnv("DB_PATH", filepath.Join(".", "data", "medaware.db")),
		ModelPath:             getEnv("MODEL_PATH", filepath.Join(".", "models", "custom.onnx")),
		ModelInputSize:        getEnvAsInt("MODEL_INPUT_SIZE", 640),
		DetectorWorkers:       getEnvAsInt("DETECTOR_WORKERS", 2),
		DetectionThreshold:    getEnvAsFloat("DETECTION_THRESHOLD", 0.5),
		NMSThreshold:          getEnvAsFloat("NMS_THRESHOLD", 0.45),
		FusionStride:          getEnvAsInt("FUSION_STRIDE", 3),
		OCRStride:             getEnvAsInt("OCR_STRIDE", 10),
		OCRURL:                getEnv("OCR_URL", "http://localhost:8090"),
		OCRTimeout:            getEnvAsDuration("OCR_TIMEOUT", 5*time.Second),
		OCRMinCrop:            getEnvAsInt("OCR_MIN_CROP", 64),
		SessionShards:         getEnvAsInt("SESSION_SHARDS", 32),
		SessionIdleTimeout:    getEnvAsDuration("SESSION_IDLE_TIMEOUT", 0),
		JPEGQuality:           getEnvAsInt("JPEG_QUALITY", 80),
		EvidenceDirectory:     getEnv("EVIDENCE_DIR", filepath.Join(".", "evidence")),
		EvidenceFlushInterval: getEnvAsInt("EVIDENCE_FLUSH_INTERVAL", 30),
		LogDirectory:          getEnv("LOG_DIR", filepath.Join(".", "logs")),
		MQTTBroker:            getEnv("MQTT_BROKER", ""),
		MQTTTopic:             getEnv("MQTT_TOPIC", "medaware/verified"),
		MQTTClientID:          getEnv("MQTT_CLIENT_ID", "medaware-server"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("90s", "5m") or plain seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
