package trainer

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/tagger"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/logging"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
	"github.com/sirupsen/logrus"
)

// Job is what a training procedure receives. OutputDir must contain model-best/ when Invoke returns nil.
type Job struct {
	RunID      string
	ConfigPath string
	Config     ResolvedConfig
	TrainPath  string
	DevPath    string
	OutputDir  string
}

type Procedure interface {
	Name() string
	Invoke(ctx context.Context, job *Job) error
}

/*
CommandProcedure 调用外部训练程序，参数模板中的占位符会被替换：

	{config} 完整训练配置路径；
	{output} 模型目录；
	{train} / {dev} 语料分区路径。

外部程序的输出逐行写入日志。正常退出且 model-best/meta.json 存在时，由本过程将其标记为完整，
外部程序无需写入 complete 字段。
*/
type CommandProcedure struct {
	args   []string
	logger *logrus.Logger
}

func NewCommandProcedure(args []string, logger *logrus.Logger) *CommandProcedure {
	if logger == nil {
		logger = logging.NewLogger()
	}
	return &CommandProcedure{args: args, logger: logger}
}

func (p *CommandProcedure) Name() string {
	return "command"
}

func (p *CommandProcedure) Invoke(ctx context.Context, job *Job) error {
	if len(p.args) == 0 {
		return utils.WrapError(exec.ErrNotFound, "train command is empty")
	}

	replacer := strings.NewReplacer(
		"{config}", job.ConfigPath,
		"{output}", job.OutputDir,
		"{train}", job.TrainPath,
		"{dev}", job.DevPath,
	)

	args := make([]string, len(p.args))
	for i, arg := range p.args {
		args[i] = replacer.Replace(arg)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	stdout := p.logger.WriterLevel(logrus.InfoLevel)
	defer stdout.Close()
	stderr := p.logger.WriterLevel(logrus.WarnLevel)
	defer stderr.Close()

	cmd.Stdout = stdout
	cmd.Stderr = stderr

	p.logger.Infof("run [%s]: %s", job.RunID, strings.Join(args, " "))

	if err := cmd.Run(); err != nil {
		return utils.WrapErrorf(err, "train command [%s] fail", args[0])
	}

	return markComplete(filepath.Join(job.OutputDir, ModelBestDir), job.RunID)
}

// markComplete sets complete and run_id in an externally written meta.json, keeping its other keys.
// A missing meta.json is left for the artifact check to report.
func markComplete(best, runID string) error {
	path := filepath.Join(best, tagger.MetaFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return utils.WrapErrorf(err, "read [%s] fail", path)
	}

	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return utils.WrapErrorf(err, "parse [%s] fail", path)
	}
	if meta == nil {
		meta = make(map[string]interface{})
	}

	// spaCy writes pipeline as a list of components
	if pipeline, ok := meta["pipeline"]; ok {
		if _, isName := pipeline.(string); !isName {
			meta["components"] = pipeline
			meta["pipeline"] = tagger.PipelineExternal
		}
	} else {
		meta["pipeline"] = tagger.PipelineExternal
	}
	if _, ok := meta["run_id"].(string); !ok {
		meta["run_id"] = runID
	}
	meta["complete"] = true

	data, err = json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return utils.WrapError(err, "marshal meta fail")
	}
	return utils.WrapError(os.WriteFile(path, data, 0o644), "write meta fail")
}
