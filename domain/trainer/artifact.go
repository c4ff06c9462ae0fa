package trainer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/errs"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/tagger"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
)

const artifactTimeLayout = "20060102150405"

/*
Artifact 一次训练产出的模型目录。

	Dir 为 <artifact_root>/<yyyymmddhhmmss>-<run_id>/；
	BestPath 为 Dir 下的 model-best/，meta.json 完整时 Artifact 才有效。
*/
type Artifact struct {
	RunID     string
	Dir       string
	BestPath  string
	Meta      *tagger.Meta
	Completed time.Time
}

// NewArtifactDir names a fresh run directory under root; the directory is not created.
func NewArtifactDir(root, runID string, now time.Time) string {
	return filepath.Join(root, fmt.Sprintf("%s-%s", now.Format(artifactTimeLayout), runID))
}

// CheckArtifact loads dir as an artifact, failing unless model-best/meta.json exists and is complete.
func CheckArtifact(dir string) (*Artifact, error) {
	best := filepath.Join(dir, ModelBestDir)

	info, err := os.Stat(filepath.Join(best, tagger.MetaFileName))
	if err != nil {
		return nil, utils.WrapErrorf(err, "no best checkpoint in [%s]", dir)
	}

	meta, err := tagger.ReadMeta(best)
	if err != nil {
		return nil, err
	}
	if !meta.Complete {
		return nil, fmt.Errorf("best checkpoint in [%s] is incomplete", dir)
	}

	completed := meta.CreatedAt
	if completed.IsZero() {
		completed = info.ModTime()
	}

	return &Artifact{
		RunID:     meta.RunID,
		Dir:       dir,
		BestPath:  best,
		Meta:      meta,
		Completed: completed,
	}, nil
}

// ListArtifacts returns every valid artifact under root, newest first.
func ListArtifacts(root string) ([]*Artifact, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, utils.WrapErrorf(err, "read artifact root [%s] fail", root)
	}

	var ret []*Artifact
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		artifact, err := CheckArtifact(filepath.Join(root, entry.Name()))
		if err != nil {
			continue
		}
		ret = append(ret, artifact)
	}

	sortArtifacts(ret)
	return ret, nil
}

// ResolveLatest returns the most recently completed valid artifact under root.
func ResolveLatest(root string) (*Artifact, error) {
	artifacts, err := ListArtifacts(root)
	if err != nil {
		return nil, &errs.ModelLoadError{Engine: string(tagger.EngineCustom), Err: err}
	}
	if len(artifacts) == 0 {
		return nil, &errs.ModelLoadError{
			Engine: string(tagger.EngineCustom),
			Err:    fmt.Errorf("no completed artifact under [%s]", root),
		}
	}
	return artifacts[0], nil
}

func sortArtifacts(artifacts []*Artifact) {
	sort.SliceStable(artifacts, func(i, j int) bool {
		a, b := artifacts[i], artifacts[j]
		if !a.Completed.Equal(b.Completed) {
			return a.Completed.After(b.Completed)
		}
		return filepath.Base(a.Dir) > filepath.Base(b.Dir)
	})
}
