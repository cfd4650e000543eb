package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	Port string

	// Document store
	DocStore            string
	FirebaseProjectID   string
	FirebaseCredentials string
	MongoURI            string
	DBName              string

	// Object store
	ObjectStore        string
	ObjectFolderPrefix string
	AWSRegion          string
	AWSBucketName      string
	S3PublicBaseURL    string
	GCSBucket          string
	MinioEndpoint      string
	MinioAccessKey     string
	MinioSecretKey     string
	MinioBucket        string
	MinioUseSSL        bool
	LocalObjectDir     string
	PublicBaseURL      string

	// Inference
	InferenceProvider string
	MLBackendURL      string
	GeminiAPIKey      string
	GeminiModel       string

	// Auth
	AuthProvider string
	JWTSecret    string

	// Local files
	AppDataDir string
	GalleryDir string
	ExportDir  string

	GarmentLimit int
	CatalogLimit int
	HistoryLimit int
)

// LoadConfig loads environment variables from .env file
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default values or system environment variables")
	}

	Port = getEnv("PORT", "8080")

	DocStore = getEnv("DOC_STORE", "firestore")
	FirebaseProjectID = os.Getenv("FIREBASE_PROJECT_ID")
	FirebaseCredentials = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	MongoURI = getEnv("MONGO_URI", "mongodb://localhost:27017/")
	DBName = getEnv("DB_NAME", "fitly")

	ObjectStore = getEnv("OBJECT_STORE", "local")
	ObjectFolderPrefix = getEnv("OBJECT_FOLDER_PREFIX", "tryon")
	AWSRegion = getEnv("AWS_REGION", "ap-south-1")
	AWSBucketName = os.Getenv("AWS_BUCKET_NAME")
	S3PublicBaseURL = os.Getenv("S3_PUBLIC_BASE_URL")
	GCSBucket = os.Getenv("GCS_BUCKET")
	MinioEndpoint = os.Getenv("MINIO_ENDPOINT")
	MinioAccessKey = os.Getenv("MINIO_ACCESS_KEY")
	MinioSecretKey = os.Getenv("MINIO_SECRET_KEY")
	MinioBucket = os.Getenv("MINIO_BUCKET")
	MinioUseSSL = os.Getenv("MINIO_USE_SSL") == "true"
	LocalObjectDir = getEnv("LOCAL_OBJECT_DIR", "uploads")
	PublicBaseURL = getEnv("PUBLIC_BASE_URL", "http://localhost:"+Port)

	InferenceProvider = getEnv("INFERENCE_PROVIDER", "http")
	MLBackendURL = getEnv("ML_BACKEND_URL", "http://localhost:8000")
	GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	GeminiModel = getEnv("GEMINI_MODEL", "gemini-2.5-flash-image")

	AuthProvider = getEnv("AUTH_PROVIDER", "jwt")
	JWTSecret = os.Getenv("JWT_SECRET")

	AppDataDir = getEnv("APP_DATA_DIR", "app_data")
	GalleryDir = os.Getenv("GALLERY_DIR")
	ExportDir = os.Getenv("EXPORT_DIR")

	GarmentLimit = getEnvAsInt("GARMENT_LIMIT", 100)
	CatalogLimit = getEnvAsInt("CATALOG_LIMIT", 60)
	HistoryLimit = getEnvAsInt("HISTORY_LIMIT", 50)
}

// CloudConfigured reports whether results can be uploaded to an object store.
func CloudConfigured() bool {
	return ObjectStore != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value <= 0 {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}
