package corpus

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/annotation"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/errs"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
	"github.com/sirupsen/logrus"
)

type BuildSetting struct {
	Dir        string
	TrainRatio float64
	Seed       int64
	Logger     *logrus.Logger
}

/*
Builder 将标注记录转换为训练语料，并按比例切分为 train/test 两部分。

记录中任何一个非法片段都会使整次构建失败；切分由 Seed 决定，相同输入得到相同结果。
*/
type Builder struct {
	setting BuildSetting
}

func NewBuilder(setting BuildSetting) *Builder {
	return &Builder{setting: setting}
}

func (b *Builder) Build(records []annotation.Record) (*Corpus, error) {
	ratio := b.setting.TrainRatio
	if ratio <= 0 || ratio >= 1 {
		return nil, &errs.CorpusBuildError{Op: "split", Err: fmt.Errorf("train ratio %v not in (0, 1)", ratio)}
	}

	if len(records) < 2 {
		return nil, &errs.CorpusBuildError{Op: "split", Err: fmt.Errorf("need at least 2 records, got %d", len(records))}
	}

	for i := range records {
		if err := records[i].Validate(); err != nil {
			return nil, &errs.AnnotationFormatError{
				File:   records[i].Source,
				Index:  records[i].Index,
				Reason: "invalid spans",
				Err:    err,
			}
		}
	}

	testIndex := b.pickTest(len(records))

	ret := &Corpus{
		Train: make([]Example, 0, len(records)-len(testIndex)),
		Test:  make([]Example, 0, len(testIndex)),
	}
	for i := range records {
		example := toExample(&records[i])
		if _, ok := testIndex[i]; ok {
			ret.Test = append(ret.Test, example)
		} else {
			ret.Train = append(ret.Train, example)
		}
	}

	return ret, nil
}

// BuildToDir builds the corpus and writes both partitions, replacing any previous corpus in the directory.
func (b *Builder) BuildToDir(records []annotation.Record) (*Corpus, Paths, error) {
	paths := PathsIn(b.setting.Dir)

	c, err := b.Build(records)
	if err != nil {
		return nil, paths, utils.WrapError(err, "build corpus fail")
	}

	if err := Save(paths.Train, PartitionTrain, c.Train); err != nil {
		return nil, paths, utils.WrapError(err, "save train partition fail")
	}
	if err := Save(paths.Test, PartitionTest, c.Test); err != nil {
		return nil, paths, utils.WrapError(err, "save test partition fail")
	}

	if b.setting.Logger != nil {
		b.setting.Logger.Infof("corpus written to [%s]: train=%d test=%d", paths.Dir, len(c.Train), len(c.Test))
	}

	return c, paths, nil
}

// pickTest returns the input positions assigned to the test partition.
func (b *Builder) pickTest(n int) map[int]struct{} {
	testSize := int(math.Round(float64(n) * (1 - b.setting.TrainRatio)))
	if testSize < 1 {
		testSize = 1
	}
	if testSize > n-1 {
		testSize = n - 1
	}

	rng := rand.New(rand.NewSource(b.setting.Seed))
	perm := rng.Perm(n)

	picked := perm[:testSize]
	sort.Ints(picked)

	ret := make(map[int]struct{}, testSize)
	for _, i := range picked {
		ret[i] = struct{}{}
	}
	return ret
}

func toExample(r *annotation.Record) Example {
	spans := make([]annotation.Entity, len(r.Entities))
	copy(spans, r.Entities)
	return Example{Text: r.Text, Spans: spans}
}
