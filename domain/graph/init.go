package graph

import (
	"context"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/merger"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/repository/neograph"
	"github.com/sirupsen/logrus"
)

type KGSetting struct {
	Logger *logrus.Logger
	// Execute runs a write query against the graph database; nil disables loading.
	Execute func(cypher string, params map[string]interface{}) (*neograph.Summary, error)
}

var globalSetting KGSetting

func Init(setting *KGSetting) {
	globalSetting = *setting
}

func Export(ctx context.Context, records []merger.Record, config *ExportConfig) (*ExportResult, error) {
	return export(ctx, &globalSetting, records, config)
}
