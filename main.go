package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/config"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/graph"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/inference"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/orchestrator"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/tagger"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/trainer"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/trainercall"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/logging"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/repository/metadata"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/repository/neograph"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/server"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/server/handler"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils/email"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const (
	modeServer = "server"
	modeTrain  = "train"
	modeInfer  = "infer"
)

func loggingConf(settings *config.Settings) *logging.Config {
	consoleLevel, err := logrus.ParseLevel(settings.LogLevel)
	if err != nil {
		consoleLevel = logrus.InfoLevel
	}
	if settings.Debug {
		consoleLevel = logrus.DebugLevel
	}

	return &logging.Config{
		FileLevel:      logrus.DebugLevel,
		ConsoleLevel:   consoleLevel,
		FileDir:        settings.LogDir,
		DisableConsole: false,
	}
}

func emailConf() *email.Config {
	return &email.Config{SMTP: email.SMTPConfig{
		Identity: config.GetString(config.EnvKeyEmailSMTPIdentity, ""),
		Host:     config.GetString(config.EnvKeyEmailSMTPHost, ""),
		Port:     config.GetInt(config.EnvKeyEmailSMTPPort, 25),
		UserName: config.GetString(config.EnvKeyEmailSMTPUserName, ""),
		Password: config.GetString(config.EnvKeyEmailSMTPPassword, ""),
	}}
}

func metadataConf(settings *config.Settings) *metadata.Config {
	driver := config.GetString(config.EnvKeyMetadataDriver, metadata.DriverSQLite)

	if driver == metadata.DriverMySQL {
		return &metadata.Config{
			Driver: metadata.DriverMySQL,
			DSN:    config.GetString(config.EnvKeyMetadataDSN, ""),
			MySQL: metadata.MySQLConfig{
				User:     config.GetString(config.EnvKeyMySQLUser, ""),
				Password: config.GetString(config.EnvKeyMySQLPassword, ""),
				Host:     config.GetString(config.EnvKeyMySQLHost, "localhost:3306"),
				Database: config.GetString(config.EnvKeyMySQLDatabase, "sports_certificate"),
			},
			CheckMigration: config.GetBool(config.EnvKeyMetadataMigrate, false),
		}
	}

	if settings.Debug && len(config.GetString(config.EnvKeySQLiteFile, "")) == 0 {
		return metadata.GenerateTestConfig()
	}

	return &metadata.Config{
		Driver:         metadata.DriverSQLite,
		DSN:            config.GetString(config.EnvKeyMetadataDSN, ""),
		SQLite:         metadata.SQLiteConfig{File: config.GetString(config.EnvKeySQLiteFile, "data/metadata.db")},
		CheckMigration: config.GetBool(config.EnvKeyMetadataMigrate, true),
	}
}

func taggerConf() *tagger.TagSetting {
	return &tagger.TagSetting{
		Logger: logging.NewLogger(),
	}
}

func trainerConf() *trainer.TrainerSetting {
	return &trainer.TrainerSetting{
		Logger: logging.NewLogger(),
	}
}

func trainercallConf() *trainercall.Config {
	return &trainercall.Config{
		RabbitMQConfig: trainercall.MQConnectionConfig{
			User: config.GetString(config.EnvKeyRabbitMQUser, "guest"),
			Pwd:  config.GetString(config.EnvKeyRabbitMQPwd, "guest"),
			Host: config.GetString(config.EnvKeyRabbitMQHost, "localhost"),
			Port: config.GetString(config.EnvKeyRabbitMQPort, "5672"),
		},
		Logger: logging.NewLogger(),
	}
}

func neographConf() *neograph.Config {
	return &neograph.Config{Neo4j: neograph.Neo4jConfig{
		Host: config.GetString(config.EnvKeyNeo4jHost, ""),
		Port: config.GetInt(config.EnvKeyNeo4jPort, 7687),
		User: config.GetString(config.EnvKeyNeo4jUser, "neo4j"),
		Pwd:  config.GetString(config.EnvKeyNeo4jPwd, ""),
	}}
}

func graphConf() *graph.KGSetting {
	setting := &graph.KGSetting{
		Logger: logging.NewLogger(),
	}
	if neograph.Enabled() {
		setting.Execute = neograph.Execute
	}
	return setting
}

func inferenceConf(settings *config.Settings) *inference.InferenceSetting {
	return &inference.InferenceSetting{
		Logger:              logging.NewLogger(),
		GetMetadataDatabase: metadata.DatabaseRaw,
		ArtifactRoot:        settings.Training.ArtifactRoot,
		Inference:           settings.Inference,
	}
}

func orchestratorConf(settings *config.Settings) *orchestrator.OrchestratorSetting {
	setting := &orchestrator.OrchestratorSetting{
		Logger:              logging.NewLogger(),
		GetMetadataDatabase: metadata.DatabaseRaw,
		Annotation:          settings.Annotation,
		Corpus:              settings.Corpus,
		Training:            settings.Training,
	}
	if email.Enabled() {
		setting.SendMail = email.SendHtml
	}
	return setting
}

func handlerConf(settings *config.Settings) *handler.HandlerSetting {
	return &handler.HandlerSetting{
		ArtifactRoot: settings.Training.ArtifactRoot,
		UploadDir:    filepath.Join(filepath.Dir(settings.Inference.OutputPath), "uploads"),
		InputDir:     filepath.Dir(settings.Inference.InputPath),
		OutputDir:    filepath.Dir(settings.Inference.OutputPath),
	}
}

func trainingProcedure(settings *config.Settings) (trainer.Procedure, error) {
	if settings.Training.Procedure != config.ProcedureQueue {
		return trainer.NewLocalProcedure(&settings.Training)
	}

	if err := trainercall.Init(trainercallConf()); err != nil {
		return nil, err
	}
	return trainercall.Procedure(), nil
}

func main() {
	mode := pflag.String("mode", modeServer, "one of server, train, infer")
	input := pflag.String("input", "", "input sheet for --mode infer, overrides "+config.EnvKeyInputPath)
	output := pflag.String("output", "", "output sheet for --mode infer, overrides "+config.EnvKeyOutputPath)
	pflag.Parse()

	settings := config.Load()
	if len(*input) != 0 {
		settings.Inference.InputPath = *input
	}
	if len(*output) != 0 {
		settings.Inference.OutputPath = *output
	}

	logging.SetDefaultConfig(loggingConf(settings))
	logger := logging.NewLogger()

	if err := run(*mode, settings, logger); err != nil {
		logger.WithError(err).Errorf("%s mode exit with error=\n%v", *mode, err)
		os.Exit(1)
	}
}

func run(mode string, settings *config.Settings, logger *logrus.Logger) error {
	email.Init(emailConf())

	if err := metadata.Init(metadataConf(settings)); err != nil {
		return err
	}

	tagger.Init(taggerConf())
	trainer.Init(trainerConf())

	procedure, err := trainingProcedure(settings)
	if err != nil {
		return err
	}
	defer trainercall.Close()

	if err := neograph.Init(neographConf()); err != nil {
		logger.WithError(err).Warn("neo4j unavailable, graph export writes csv only")
	}
	defer neograph.Close()

	graph.Init(graphConf())
	inference.Init(inferenceConf(settings))
	orchestrator.Init(orchestratorConf(settings), trainer.NewTrainer(procedure))
	handler.Init(handlerConf(settings))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch mode {
	case modeServer:
		s := server.New(&server.Config{
			Host:      settings.ServerHost,
			Port:      settings.ServerPort,
			DebugMode: settings.Debug,
		})
		return s.RunServer()

	case modeTrain:
		result, err := orchestrator.Default().Run(ctx)
		if err != nil {
			return err
		}
		logger.Infof("run [%s] done, artifact [%s]", result.RunID, result.ArtifactDir)
		return nil

	case modeInfer:
		result, err := inference.RunJob(ctx, inference.JobRequest{})
		if err != nil {
			return err
		}
		logger.Infof("job %d done with artifact [%s]: %d rows, %d failed, written to [%s]",
			result.JobID, result.RunID, result.Rows, result.FailedRows, result.OutputPath)
		return nil

	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}
