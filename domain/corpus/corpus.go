package corpus

import (
	"os"
	"path/filepath"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/annotation"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/errs"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	formatVersion = 1

	PartitionTrain = "train"
	PartitionTest  = "test"

	TrainFileName = "train.corpus"
	TestFileName  = "test.corpus"
)

// Example is one training sentence with byte-offset spans.
type Example struct {
	Text  string              `msgpack:"t"`
	Spans []annotation.Entity `msgpack:"s"`
}

type Corpus struct {
	Train []Example
	Test  []Example
}

// Paths locates the two serialized partitions of a corpus.
type Paths struct {
	Dir   string
	Train string
	Test  string
}

func PathsIn(dir string) Paths {
	return Paths{
		Dir:   dir,
		Train: filepath.Join(dir, TrainFileName),
		Test:  filepath.Join(dir, TestFileName),
	}
}

type partitionFile struct {
	Version   int       `msgpack:"v"`
	Partition string    `msgpack:"p"`
	Examples  []Example `msgpack:"x"`
}

// Save writes one partition atomically: a temp file in the same directory renamed over path.
func Save(path, partition string, examples []Example) error {
	data, err := msgpack.Marshal(&partitionFile{
		Version:   formatVersion,
		Partition: partition,
		Examples:  examples,
	})
	if err != nil {
		return &errs.CorpusBuildError{Op: "encode " + partition, Err: err}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &errs.CorpusBuildError{Op: "mkdir " + dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return &errs.CorpusBuildError{Op: "create temp for " + path, Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &errs.CorpusBuildError{Op: "write " + path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &errs.CorpusBuildError{Op: "close " + path, Err: err}
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return &errs.CorpusBuildError{Op: "rename " + path, Err: err}
	}

	return nil
}

// Load reads one partition back and re-checks every span against its text.
func Load(path string) ([]Example, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.CorpusBuildError{Op: "read " + path, Err: err}
	}

	var file partitionFile
	if err := msgpack.Unmarshal(data, &file); err != nil {
		return nil, &errs.CorpusBuildError{Op: "decode " + path, Err: err}
	}

	for i, example := range file.Examples {
		record := annotation.Record{Text: example.Text, Entities: example.Spans}
		if err := record.Validate(); err != nil {
			return nil, &errs.AnnotationFormatError{File: path, Index: i, Reason: "invalid spans in corpus", Err: err}
		}
	}

	return file.Examples, nil
}
