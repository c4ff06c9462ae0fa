package trainer

import (
	"context"
	"path/filepath"
	"time"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/annotation"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/corpus"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/tagger"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/logging"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
	"github.com/sirupsen/logrus"
)

const (
	ModelBestDir = "model-best"
	ModelLastDir = "model-last"
)

/*
GazetteerProcedure 进程内的训练过程：从 train 分区学习短语词典与数字形状，在 dev 分区上评估，
写出 model-last/ 与 model-best/。

训练选项来自完整训练配置的 training 段：tokenizer、lowercase、min_shape_count。
*/
type GazetteerProcedure struct {
	logger *logrus.Logger
	now    func() time.Time
}

func NewGazetteerProcedure(logger *logrus.Logger) *GazetteerProcedure {
	if logger == nil {
		logger = logging.NewLogger()
	}
	return &GazetteerProcedure{logger: logger, now: time.Now}
}

func (p *GazetteerProcedure) Name() string {
	return tagger.PipelineGazetteer
}

func (p *GazetteerProcedure) Invoke(ctx context.Context, job *Job) error {
	section := job.Config.Section("training")
	options := tagger.ModelOptions{
		Tokenizer:     getString(section, "tokenizer", tagger.TokenizerWord),
		Lowercase:     getBool(section, "lowercase", true),
		MinShapeCount: getInt(section, "min_shape_count", 2),
	}

	train, err := corpus.Load(job.TrainPath)
	if err != nil {
		return utils.WrapError(err, "load train partition fail")
	}
	dev, err := corpus.Load(job.DevPath)
	if err != nil {
		return utils.WrapError(err, "load dev partition fail")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	model, err := tagger.BuildModel(train, options)
	if err != nil {
		return utils.WrapError(err, "build gazetteer fail")
	}

	scores, err := evaluate(model, dev)
	if err != nil {
		return utils.WrapError(err, "evaluate fail")
	}

	p.logger.Infof("run [%s] %s: P=%.3f R=%.3f F=%.3f on %d dev examples",
		job.RunID, model, scores.Precision, scores.Recall, scores.F1, len(dev))

	labels := make([]string, len(annotation.Labels))
	for i, label := range annotation.Labels {
		labels[i] = string(label)
	}

	meta := &tagger.Meta{
		Name:      "sports_certificate_gazetteer",
		Pipeline:  tagger.PipelineGazetteer,
		Tokenizer: model.Tokenizer,
		Labels:    labels,
		RunID:     job.RunID,
		Complete:  true,
		CreatedAt: p.now(),
		Scores:    scores,
	}

	// a single pass, so the last model is also the best one
	for _, name := range []string{ModelLastDir, ModelBestDir} {
		dir := filepath.Join(job.OutputDir, name)
		if err := model.Save(dir); err != nil {
			return utils.WrapErrorf(err, "save %s fail", name)
		}
		if err := tagger.WriteMeta(dir, meta); err != nil {
			return utils.WrapErrorf(err, "write %s meta fail", name)
		}
	}

	return nil
}

type spanKey struct {
	start int
	end   int
	label string
}

// evaluate scores exact span matches per label.
func evaluate(model *tagger.Model, dev []corpus.Example) (*tagger.Scores, error) {
	tokenizer, err := tagger.NewTokenizer(model.Tokenizer)
	if err != nil {
		return nil, utils.WrapError(err, "create tokenizer fail")
	}

	tp := make(map[string]int)
	fp := make(map[string]int)
	fn := make(map[string]int)

	for i := range dev {
		gold := make(map[spanKey]struct{}, len(dev[i].Spans))
		for _, span := range dev[i].Spans {
			gold[spanKey{span.Start, span.End, string(span.Label)}] = struct{}{}
		}

		for _, span := range model.Match(tokenizer.Tokenize(dev[i].Text)) {
			key := spanKey{span.Start, span.End, span.Label}
			if _, ok := gold[key]; ok {
				tp[span.Label]++
				delete(gold, key)
			} else {
				fp[span.Label]++
			}
		}

		for key := range gold {
			fn[key.label]++
		}
	}

	ret := &tagger.Scores{PerLabel: make(map[string]tagger.LabelScore)}
	var totalTP, totalFP, totalFN int

	for _, label := range annotation.Labels {
		l := string(label)
		ret.PerLabel[l] = prf(tp[l], fp[l], fn[l])
		totalTP += tp[l]
		totalFP += fp[l]
		totalFN += fn[l]
	}
	ret.LabelScore = prf(totalTP, totalFP, totalFN)

	return ret, nil
}

func prf(tp, fp, fn int) tagger.LabelScore {
	ret := tagger.LabelScore{Support: tp + fn}
	if tp+fp > 0 {
		ret.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		ret.Recall = float64(tp) / float64(tp+fn)
	}
	if ret.Precision+ret.Recall > 0 {
		ret.F1 = 2 * ret.Precision * ret.Recall / (ret.Precision + ret.Recall)
	}
	return ret
}
