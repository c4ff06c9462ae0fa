package orchestrator

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/repository/metadata"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
)

const runDoneHTMLTemplate = `
<h1>模型训练完成</h1>
<p>训练号：%s</p>
<p>训练过程：%s</p>
<p>语料：train %d 条 / test %d 条</p>
<p>模型目录：%s</p>

<h2>验证集得分</h2>
<p>%s</p>

<p></p>
<p>更多信息请前往系统查看</p>
`

const runFailedHTMLTemplate = `
<h1>模型训练失败</h1>
<p>训练号：%s</p>
<p>失败阶段：%s</p>
<p>原因：%s</p>

<p></p>
<p>更多信息请前往系统查看</p>
`

func (o *Orchestrator) notify(run *metadata.TrainingRun, failure *StageError) {
	address := o.setting.Training.NotifyEmail
	if len(address) == 0 || o.setting.SendMail == nil {
		return
	}

	subject := "【证书分析系统】模型训练完成"
	content := renderRunDonePage(run)
	if failure != nil {
		subject = "【证书分析系统】模型训练失败"
		content = renderRunFailedPage(run)
	}

	err := o.setting.SendMail(address, subject, content)
	if err != nil {
		o.logger.WithError(utils.WrapErrorf(err, "send email to [%s] fail", address)).Warn("notify fail")
	}
}

func renderRunDonePage(run *metadata.TrainingRun) string {
	scores := "无"
	var schema metadata.SchemaRunScores
	if run.Get(metadata.ExtraTypeScores, &schema) {
		scores = renderScores(&schema)
	}

	return fmt.Sprintf(runDoneHTMLTemplate,
		html.EscapeString(run.RunID),
		html.EscapeString(run.Procedure),
		run.TrainCount, run.TestCount,
		html.EscapeString(run.ArtifactDir),
		scores)
}

func renderRunFailedPage(run *metadata.TrainingRun) string {
	return fmt.Sprintf(runFailedHTMLTemplate,
		html.EscapeString(run.RunID),
		html.EscapeString(run.FailedStage),
		html.EscapeString(run.Cause))
}

func renderScores(schema *metadata.SchemaRunScores) string {
	lines := []string{formatScore("overall", &schema.LabelScore)}

	labels := make([]string, 0, len(schema.PerLabel))
	for label := range schema.PerLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		score := schema.PerLabel[label]
		lines = append(lines, formatScore(label, &score))
	}

	return strings.Join(lines, "<br/>")
}

func formatScore(name string, score *metadata.LabelScore) string {
	return fmt.Sprintf("%s: P=%.3f R=%.3f F1=%.3f (support %d)",
		html.EscapeString(name), score.Precision, score.Recall, score.F1, score.Support)
}
