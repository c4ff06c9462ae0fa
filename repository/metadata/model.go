package metadata

import (
	"database/sql"
	"time"

	"gorm.io/gorm"
)

/*
Extra 用于扩展信息，或者保存多态的信息，通过JSON格式。不直接单独作为一个数据库对象，类似gorm.Model。

	ExtraType 标记JSON的schema；
	ExtraJSON 额外信息的JSON主体；
*/
type Extra struct {
	ExtraType sql.NullString `gorm:"type:varchar(16)"`
	ExtraJSON sql.NullString `gorm:"type:text"`
}

/*
TrainingRun 记录了一次训练的生命周期。

	Extra 训练完成后保存得分（SchemaRunScores）；
	RunID 训练号，同时是模型目录名的一部分；
	State 当前状态，INIT → TRANSFORMING → TRAINING → DONE，失败时为 FAILED；
	FailedStage 失败时所处的阶段；
	Cause 失败原因；
	Procedure 使用的训练过程；
	CorpusDir 本次生成的语料目录；
	ArtifactDir 本次的模型目录；
	TrainCount / TestCount 语料两个分区的样本数；
*/
type TrainingRun struct {
	gorm.Model
	Extra

	RunID       string `gorm:"type:varchar(64) not null;uniqueIndex:idx_training_runs_run_id"`
	State       string `gorm:"type:varchar(16) not null;comment:INIT,TRANSFORMING,TRAINING,DONE,FAILED"`
	FailedStage string `gorm:"type:varchar(16)"`
	Cause       string `gorm:"type:text"`
	Procedure   string `gorm:"type:varchar(16)"`
	CorpusDir   string `gorm:"type:varchar(255)"`
	ArtifactDir string `gorm:"type:varchar(255)"`
	TrainCount  int
	TestCount   int
	FinishedAt  *time.Time
}

/*
InferenceJob 记录了一次批量抽取。

	Extra 导出图谱时保存导出信息（SchemaGraphExport）；
	InputPath / OutputPath 输入与输出表格；
	RunID / ArtifactDir 所使用的模型；
	RowCount 行数，FailedRows 失败的行数；
*/
type InferenceJob struct {
	gorm.Model
	Extra

	InputPath   string `gorm:"type:varchar(255) not null"`
	OutputPath  string `gorm:"type:varchar(255)"`
	RunID       string `gorm:"type:varchar(64);index:idx_inference_jobs_run_id"`
	ArtifactDir string `gorm:"type:varchar(255)"`
	Status      string `gorm:"type:varchar(16) not null;comment:RUNNING,DONE,FAILED"`
	RowCount    int
	FailedRows  int
	Cause       string `gorm:"type:text"`
	FinishedAt  *time.Time
}
