package handler

import (
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/trainer"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/logging"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/server/common"
	"github.com/gin-gonic/gin"
)

func ListArtifact(ctx *gin.Context) {
	res, err := listArtifact()
	if err != nil {
		logging.Default().WithError(err).Errorf("ListArtifact produce error: %s", err.Error())
		ctx.JSON(http.StatusInternalServerError, common.MakeUnknownErrorResp())
		return
	}

	ctx.JSON(http.StatusOK, common.MakeSuccessResp(res))
}

type listArtifactItem struct {
	RunID    string  `json:"run_id"`
	Dir      string  `json:"dir"`
	Pipeline string  `json:"pipeline"`
	Time     int64   `json:"time"`
	TimeStr  string  `json:"time_str"`
	F1       float64 `json:"f1"`
	Latest   bool    `json:"latest"`
}

// listArtifact returns the valid artifacts newest first; the first one is what inference uses.
func listArtifact() ([]listArtifactItem, error) {
	artifacts, err := trainer.ListArtifacts(globalSetting.ArtifactRoot)
	if errors.Is(err, fs.ErrNotExist) {
		return []listArtifactItem{}, nil
	}
	if err != nil {
		return nil, err
	}

	ret := make([]listArtifactItem, 0, len(artifacts))
	for i, artifact := range artifacts {
		item := listArtifactItem{
			RunID:    artifact.RunID,
			Dir:      artifact.Dir,
			Pipeline: artifact.Meta.Pipeline,
			Time:     artifact.Completed.Unix(),
			TimeStr:  artifact.Completed.Format(time.RFC3339),
			Latest:   i == 0,
		}
		if artifact.Meta.Scores != nil {
			item.F1 = artifact.Meta.Scores.F1
		}
		ret = append(ret, item)
	}

	return ret, nil
}
