package inference

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/config"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/graph"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/merger"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/tagger"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/trainer"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/repository/metadata"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/repository/sheet"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
)

// OutputHeader is the first row of every output sheet.
var OutputHeader = []string{"Text", "Participant Name", "Sport Name", "Winning Position", "Org Year", "Error"}

/*
JobRequest 一次批量抽取的输入。

为空的字段使用配置中的默认值；InputColumn 为 nil 时同样取默认值。
*/
type JobRequest struct {
	InputPath   string
	InputSheet  string
	InputColumn *int
	OutputPath  string
	OutputSheet string
	GraphExport *bool
}

type JobResult struct {
	JobID       uint
	RunID       string
	ArtifactDir string
	OutputPath  string
	Rows        int
	FailedRows  int
	Graph       *graph.ExportResult
}

type jobContext struct {
	setting *InferenceSetting
	request JobRequest
	job     *metadata.InferenceJob
	result  JobResult
}

func runJob(ctx context.Context, setting *InferenceSetting, request JobRequest) (*JobResult, error) {
	j := &jobContext{
		setting: setting,
		request: fillRequest(&setting.Inference, request),
	}

	if err := j.createJob(); err != nil {
		return nil, err
	}

	err := j.run(ctx)
	if finishErr := j.finishJob(err); finishErr != nil {
		setting.Logger.WithError(finishErr).Errorf("update inference job %d fail", j.job.ID)
	}
	if err != nil {
		return nil, err
	}

	return &j.result, nil
}

func fillRequest(defaults *config.InferenceSettings, request JobRequest) JobRequest {
	if len(request.InputPath) == 0 {
		request.InputPath = defaults.InputPath
	}
	if len(request.InputSheet) == 0 {
		request.InputSheet = defaults.InputSheet
	}
	if request.InputColumn == nil {
		column := defaults.InputColumn
		request.InputColumn = &column
	}
	if len(request.OutputPath) == 0 {
		request.OutputPath = defaults.OutputPath
	}
	if len(request.OutputSheet) == 0 {
		request.OutputSheet = defaults.OutputSheet
	}
	if request.GraphExport == nil {
		export := defaults.GraphExport
		request.GraphExport = &export
	}
	return request
}

func (j *jobContext) createJob() error {
	j.job = &metadata.InferenceJob{
		InputPath:  j.request.InputPath,
		OutputPath: j.request.OutputPath,
		Status:     metadata.JobStatusRunning,
	}
	err := j.setting.GetMetadataDatabase().Create(j.job).Error
	if err != nil {
		return utils.WrapError(err, "create inference job fail")
	}
	j.result.JobID = j.job.ID
	return nil
}

func (j *jobContext) finishJob(cause error) error {
	now := time.Now()
	j.job.FinishedAt = &now
	j.job.RunID = j.result.RunID
	j.job.ArtifactDir = j.result.ArtifactDir
	j.job.RowCount = j.result.Rows
	j.job.FailedRows = j.result.FailedRows

	if cause != nil {
		j.job.Status = metadata.JobStatusFailed
		j.job.Cause = cause.Error()
	} else {
		j.job.Status = metadata.JobStatusDone
	}

	if j.result.Graph != nil {
		j.job.Set(metadata.ExtraTypeGraphExport, &metadata.SchemaGraphExport{
			EntityCSV:   j.result.Graph.EntityCSV,
			RelationCSV: j.result.Graph.RelationCSV,
			Entities:    j.result.Graph.Entities,
			Relations:   j.result.Graph.Relations,
			Neo4j:       j.result.Graph.Neo4j,
		})
	}

	return j.setting.GetMetadataDatabase().Save(j.job).Error
}

func (j *jobContext) run(ctx context.Context) error {
	logger := j.setting.Logger

	rows, err := sheet.ReadColumn(j.request.InputPath, j.request.InputSheet, *j.request.InputColumn, true)
	if err != nil {
		return utils.WrapError(err, "read input sheet fail")
	}

	artifact, err := trainer.ResolveLatest(j.setting.ArtifactRoot)
	if err != nil {
		return err
	}
	j.result.RunID = artifact.RunID
	j.result.ArtifactDir = artifact.Dir
	logger.Infof("inference job %d uses artifact [%s]", j.job.ID, artifact.Dir)

	extractor, err := buildExtractor(&j.setting.Inference, artifact)
	if err != nil {
		return err
	}

	records, err := newRunner(j.setting, extractor).Run(ctx, rows)
	if err != nil {
		return utils.WrapError(err, "batch inference fail")
	}

	j.result.Rows = len(records)
	for i := range records {
		if len(records[i].Error) != 0 {
			j.result.FailedRows++
		}
	}

	if err := sheet.WriteTable(j.request.OutputPath, j.request.OutputSheet, OutputHeader, toTable(records)); err != nil {
		return utils.WrapError(err, "write output sheet fail")
	}
	j.result.OutputPath = j.request.OutputPath

	logger.Infof("inference job %d: %d rows, %d failed, written to [%s]",
		j.job.ID, j.result.Rows, j.result.FailedRows, j.request.OutputPath)

	if !*j.request.GraphExport {
		return nil
	}

	base := filepath.Base(j.request.OutputPath)
	exported, err := graph.Export(ctx, records, &graph.ExportConfig{
		Dir:      filepath.Dir(j.request.OutputPath),
		BaseName: strings.TrimSuffix(base, filepath.Ext(base)),
		Version:  artifact.RunID,
	})
	if err != nil {
		return utils.WrapError(err, "graph export fail")
	}
	j.result.Graph = exported

	return nil
}

func buildExtractor(settings *config.InferenceSettings, artifact *trainer.Artifact) (*tagger.DualEngineExtractor, error) {
	var custom tagger.Capability
	switch settings.CustomEngine {
	case config.CustomEngineLocal, "":
		custom = tagger.NewCustomTagger(artifact.BestPath)
	case config.CustomEngineRemote:
		if len(settings.CustomTaggerURL) == 0 {
			return nil, fmt.Errorf("remote custom engine needs a tagger url")
		}
		custom = tagger.NewRemoteTagger(tagger.EngineCustom, settings.CustomTaggerURL, 0)
	default:
		return nil, fmt.Errorf("unknown custom engine %q", settings.CustomEngine)
	}

	person := tagger.NewRemoteTagger(tagger.EnginePerson, settings.PersonTaggerURL, settings.PersonMaxChars)

	return tagger.NewDualEngineExtractor(custom, person), nil
}

func toTable(records []merger.Record) [][]string {
	table := make([][]string, len(records))
	for i := range records {
		r := &records[i]
		table[i] = []string{
			r.SourceText,
			utils.PtrToString(r.ParticipantName),
			utils.PtrToString(r.SportName),
			utils.PtrToString(r.WinningPosition),
			utils.PtrToString(r.OrgYear),
			r.Error,
		}
	}
	return table
}
