package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvKeyDebug = "SCA_DEBUG"

	EnvKeyServerHost = "SCA_SERVER_HOST"
	EnvKeyServerPort = "SCA_SERVER_PORT"

	EnvKeyLogDir   = "SCA_LOG_DIR"
	EnvKeyLogLevel = "SCA_LOG_LEVEL"

	EnvKeyMetadataDriver   = "SCA_METADATA_DRIVER"
	EnvKeyMetadataDSN      = "SCA_METADATA_DSN"
	EnvKeyMySQLUser        = "SCA_MYSQL_USER"
	EnvKeyMySQLPassword    = "SCA_MYSQL_PASSWORD"
	EnvKeyMySQLHost        = "SCA_MYSQL_HOST"
	EnvKeyMySQLDatabase    = "SCA_MYSQL_DATABASE"
	EnvKeyMetadataMigrate  = "SCA_METADATA_MIGRATE"
	EnvKeySQLiteFile       = "SCA_SQLITE_FILE"
	EnvKeyTrainAnnotations = "SCA_TRAIN_ANNOTATIONS"
	EnvKeyTestAnnotations  = "SCA_TEST_ANNOTATIONS"
	EnvKeyCorpusDir        = "SCA_CORPUS_DIR"
	EnvKeyTrainRatio       = "SCA_TRAIN_RATIO"
	EnvKeySplitSeed        = "SCA_SPLIT_SEED"
	EnvKeyBaseConfig       = "SCA_BASE_CONFIG"
	EnvKeyResolvedConfig   = "SCA_RESOLVED_CONFIG"
	EnvKeyArtifactRoot     = "SCA_ARTIFACT_ROOT"
	EnvKeyTrainProcedure   = "SCA_TRAIN_PROCEDURE"
	EnvKeyTrainCommand     = "SCA_TRAIN_COMMAND"
	EnvKeyNotifyEmail      = "SCA_NOTIFY_EMAIL"

	EnvKeyInputPath       = "SCA_INPUT_PATH"
	EnvKeyInputSheet      = "SCA_INPUT_SHEET"
	EnvKeyInputColumn     = "SCA_INPUT_COLUMN"
	EnvKeyOutputPath      = "SCA_OUTPUT_PATH"
	EnvKeyOutputSheet     = "SCA_OUTPUT_SHEET"
	EnvKeyCustomEngine    = "SCA_CUSTOM_ENGINE"
	EnvKeyCustomTaggerURL = "SCA_CUSTOM_TAGGER_URL"
	EnvKeyPersonTaggerURL = "SCA_PERSON_TAGGER_URL"
	EnvKeyPersonMaxChars  = "SCA_PERSON_MAX_CHARS"
	EnvKeyInferWorkers    = "SCA_INFER_WORKERS"
	EnvKeyGraphExport     = "SCA_GRAPH_EXPORT"

	EnvKeyRabbitMQUser = "SCA_RABBITMQ_USER"
	EnvKeyRabbitMQPwd  = "SCA_RABBITMQ_PWD"
	EnvKeyRabbitMQHost = "SCA_RABBITMQ_HOST"
	EnvKeyRabbitMQPort = "SCA_RABBITMQ_PORT"

	EnvKeyNeo4jHost = "SCA_NEO4J_HOST"
	EnvKeyNeo4jPort = "SCA_NEO4J_PORT"
	EnvKeyNeo4jUser = "SCA_NEO4J_USER"
	EnvKeyNeo4jPwd  = "SCA_NEO4J_PWD"

	EnvKeyEmailSMTPIdentity = "SCA_SMTP_IDENTITY"
	EnvKeyEmailSMTPHost     = "SCA_SMTP_HOST"
	EnvKeyEmailSMTPPort     = "SCA_SMTP_PORT"
	EnvKeyEmailSMTPUserName = "SCA_SMTP_USERNAME"
	EnvKeyEmailSMTPPassword = "SCA_SMTP_PASSWORD"
)

// 训练过程的实现方式
const (
	ProcedureGazetteer = "gazetteer"
	ProcedureCommand   = "command"
	ProcedureQueue     = "queue"
)

// 自定义字段标注器的实现方式
const (
	CustomEngineLocal  = "local"
	CustomEngineRemote = "remote"
)

type AnnotationSettings struct {
	TrainFile string
	TestFile  string
}

type CorpusSettings struct {
	Dir        string
	TrainRatio float64
	Seed       int64
}

type TrainingSettings struct {
	BaseConfigPath   string
	OutputConfigPath string
	ArtifactRoot     string
	Procedure        string
	Command          []string
	NotifyEmail      string
}

type InferenceSettings struct {
	InputPath       string
	InputSheet      string
	InputColumn     int
	OutputPath      string
	OutputSheet     string
	CustomEngine    string
	CustomTaggerURL string
	PersonTaggerURL string
	PersonMaxChars  int
	Workers         int
	GraphExport     bool
}

/*
Settings 汇总了流水线中所有的路径、比例与选项，构造各组件时按需取出对应部分，不使用进程级的可变路径状态。
*/
type Settings struct {
	Debug      bool
	ServerHost string
	ServerPort int
	LogDir     string
	LogLevel   string

	Annotation AnnotationSettings
	Corpus     CorpusSettings
	Training   TrainingSettings
	Inference  InferenceSettings
}

// Defaults returns settings that run locally without any external service.
func Defaults() *Settings {
	return &Settings{
		Debug:      false,
		ServerHost: "",
		ServerPort: 8003,
		LogDir:     "logs",
		LogLevel:   "info",
		Annotation: AnnotationSettings{
			TrainFile: "data/annotations/train.json",
			TestFile:  "data/annotations/test.json",
		},
		Corpus: CorpusSettings{
			Dir:        "data/corpus",
			TrainRatio: 0.9,
			Seed:       42,
		},
		Training: TrainingSettings{
			BaseConfigPath:   "configs/base_config.yaml",
			OutputConfigPath: "data/config.yaml",
			ArtifactRoot:     "output",
			Procedure:        ProcedureGazetteer,
		},
		Inference: InferenceSettings{
			InputPath:       "data/input.xlsx",
			InputSheet:      "Sheet1",
			InputColumn:     0,
			OutputPath:      "data/output.xlsx",
			OutputSheet:     "Result",
			CustomEngine:    CustomEngineLocal,
			PersonTaggerURL: "http://localhost:8001",
			PersonMaxChars:  400,
			Workers:         1,
		},
	}
}

// Load reads .env (if present) then environment variables over Defaults.
func Load() *Settings {
	_ = godotenv.Load()

	s := Defaults()

	s.Debug = GetBool(EnvKeyDebug, s.Debug)
	s.ServerHost = GetString(EnvKeyServerHost, s.ServerHost)
	s.ServerPort = GetInt(EnvKeyServerPort, s.ServerPort)
	s.LogDir = GetString(EnvKeyLogDir, s.LogDir)
	s.LogLevel = GetString(EnvKeyLogLevel, s.LogLevel)

	s.Annotation.TrainFile = GetString(EnvKeyTrainAnnotations, s.Annotation.TrainFile)
	s.Annotation.TestFile = GetString(EnvKeyTestAnnotations, s.Annotation.TestFile)

	s.Corpus.Dir = GetString(EnvKeyCorpusDir, s.Corpus.Dir)
	s.Corpus.TrainRatio = GetFloat(EnvKeyTrainRatio, s.Corpus.TrainRatio)
	s.Corpus.Seed = int64(GetInt(EnvKeySplitSeed, int(s.Corpus.Seed)))

	s.Training.BaseConfigPath = GetString(EnvKeyBaseConfig, s.Training.BaseConfigPath)
	s.Training.OutputConfigPath = GetString(EnvKeyResolvedConfig, s.Training.OutputConfigPath)
	s.Training.ArtifactRoot = GetString(EnvKeyArtifactRoot, s.Training.ArtifactRoot)
	s.Training.Procedure = GetString(EnvKeyTrainProcedure, s.Training.Procedure)
	if cmd := GetString(EnvKeyTrainCommand, ""); len(cmd) != 0 {
		s.Training.Command = strings.Fields(cmd)
	}
	s.Training.NotifyEmail = GetString(EnvKeyNotifyEmail, s.Training.NotifyEmail)

	s.Inference.InputPath = GetString(EnvKeyInputPath, s.Inference.InputPath)
	s.Inference.InputSheet = GetString(EnvKeyInputSheet, s.Inference.InputSheet)
	s.Inference.InputColumn = GetInt(EnvKeyInputColumn, s.Inference.InputColumn)
	s.Inference.OutputPath = GetString(EnvKeyOutputPath, s.Inference.OutputPath)
	s.Inference.OutputSheet = GetString(EnvKeyOutputSheet, s.Inference.OutputSheet)
	s.Inference.CustomEngine = GetString(EnvKeyCustomEngine, s.Inference.CustomEngine)
	s.Inference.CustomTaggerURL = GetString(EnvKeyCustomTaggerURL, s.Inference.CustomTaggerURL)
	s.Inference.PersonTaggerURL = GetString(EnvKeyPersonTaggerURL, s.Inference.PersonTaggerURL)
	s.Inference.PersonMaxChars = GetInt(EnvKeyPersonMaxChars, s.Inference.PersonMaxChars)
	s.Inference.Workers = GetInt(EnvKeyInferWorkers, s.Inference.Workers)
	s.Inference.GraphExport = GetBool(EnvKeyGraphExport, s.Inference.GraphExport)

	return s
}

func GetString(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if len(value) == 0 {
		return defaultValue
	}
	return value
}

func GetInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return defaultValue
	}
	return value
}

func GetFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func GetBool(key string, defaultValue bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if len(raw) == 0 {
		return defaultValue
	}
	return raw == "1" || strings.EqualFold(raw, "true")
}
