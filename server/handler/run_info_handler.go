package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/logging"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/repository/metadata"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/server/common"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func GetRunInfo(ctx *gin.Context) {
	handler := getRunInfoHandler{
		ctx: ctx,
	}

	if err := handler.checkParam(); err != nil {
		logging.Default().WithError(err).Errorf("parse req error: %s", err.Error())
		ctx.JSON(http.StatusBadRequest, common.MakeErrorResp(common.CodeParamError, err.Error(), nil))
		return
	}

	resp, err := handler.produce()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusNotFound, common.MakeErrorResp(common.CodeNotFound, "run not found", nil))
		return
	}
	if err != nil {
		logging.Default().WithError(err).Errorf("produce error: %s", err.Error())
		ctx.JSON(http.StatusInternalServerError, common.MakeUnknownErrorResp())
		return
	}

	ctx.JSON(http.StatusOK, common.MakeSuccessResp(resp))
}

type getRunInfoHandler struct {
	ctx *gin.Context

	// params
	runID string
}

type getRunInfoResp struct {
	RunID       string                    `json:"run_id"`
	State       string                    `json:"state"`
	FailedStage string                    `json:"failed_stage,omitempty"`
	Cause       string                    `json:"cause,omitempty"`
	Procedure   string                    `json:"procedure"`
	CorpusDir   string                    `json:"corpus_dir"`
	ArtifactDir string                    `json:"artifact_dir"`
	TrainCount  int                       `json:"train_count"`
	TestCount   int                       `json:"test_count"`
	Scores      *metadata.SchemaRunScores `json:"scores"`
	StartTime   string                    `json:"start_time"`
	FinishTime  string                    `json:"finish_time,omitempty"`
}

func (h *getRunInfoHandler) checkParam() error {
	id := h.ctx.Query("id")

	if len(id) == 0 {
		return utils.WrapError(common.ErrRequestParamEmpty, "query 'id' is empty")
	}

	h.runID = id

	return nil
}

func (h *getRunInfoHandler) produce() (*getRunInfoResp, error) {
	var run metadata.TrainingRun
	err := metadata.DatabaseRaw().Where("run_id = ?", h.runID).First(&run).Error
	if err != nil {
		return nil, utils.WrapErrorf(err, "get training-run[run_id=%s] from db fail", h.runID)
	}

	resp := &getRunInfoResp{
		RunID:       run.RunID,
		State:       run.State,
		FailedStage: run.FailedStage,
		Cause:       run.Cause,
		Procedure:   run.Procedure,
		CorpusDir:   run.CorpusDir,
		ArtifactDir: run.ArtifactDir,
		TrainCount:  run.TrainCount,
		TestCount:   run.TestCount,
		StartTime:   run.CreatedAt.Format(time.RFC3339),
	}
	if run.FinishedAt != nil {
		resp.FinishTime = run.FinishedAt.Format(time.RFC3339)
	}

	var scores metadata.SchemaRunScores
	if run.Get(metadata.ExtraTypeScores, &scores) {
		resp.Scores = &scores
	}

	return resp, nil
}
