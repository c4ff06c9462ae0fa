package inference

import (
	"context"
	"errors"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/errs"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/merger"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/tagger"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/logging"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Extractor is satisfied by *tagger.DualEngineExtractor.
type Extractor interface {
	Load(ctx context.Context) error
	Extract(ctx context.Context, text string) ([]tagger.Span, error)
}

/*
Runner 对一组文本逐行抽取并合并为结构化记录。

输出与输入一一对应、顺序一致；单行失败只产生一条带 Error 的记录，不影响其他行。
Workers > 1 时并发处理，结果按下标写回。
*/
type Runner struct {
	extractor Extractor
	workers   int
	logger    *logrus.Logger
}

func newRunner(setting *InferenceSetting, extractor Extractor) *Runner {
	workers := setting.Inference.Workers
	if workers < 1 {
		workers = 1
	}
	logger := setting.Logger
	if logger == nil {
		logger = logging.NewLogger()
	}
	return &Runner{
		extractor: extractor,
		workers:   workers,
		logger:    logger,
	}
}

// Run fails only when the extractor cannot be loaded or ctx is done; row failures are kept in the records.
func (r *Runner) Run(ctx context.Context, rows []string) ([]merger.Record, error) {
	if err := r.extractor.Load(ctx); err != nil {
		return nil, err
	}

	records := make([]merger.Record, len(rows))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.workers)

	for i := range rows {
		i := i
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			records[i] = r.runRow(groupCtx, i, rows[i])
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return records, nil
}

func (r *Runner) runRow(ctx context.Context, index int, text string) merger.Record {
	spans, err := r.extractor.Extract(ctx, text)
	if err != nil {
		r.logger.WithError(err).Warnf("row %d extraction fail", index)
		return merger.Failed(text, rowError(index, err))
	}
	return merger.Merge(text, spans)
}

// rowError pins err to the input row, reusing the cause of an existing RowExtractionError.
func rowError(index int, err error) *errs.RowExtractionError {
	var rowErr *errs.RowExtractionError
	if errors.As(err, &rowErr) {
		return &errs.RowExtractionError{Row: index, Err: rowErr.Err}
	}
	return &errs.RowExtractionError{Row: index, Err: err}
}
