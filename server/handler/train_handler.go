package handler

import (
	"errors"
	"net/http"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/orchestrator"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/tagger"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/logging"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/server/common"
	"github.com/gin-gonic/gin"
)

// Train runs one training pipeline synchronously.
func Train(ctx *gin.Context) {
	handler := trainHandler{
		ctx: ctx,
	}

	resp, err := handler.produce()
	if err == nil {
		ctx.JSON(http.StatusOK, common.MakeSuccessResp(resp))
		return
	}

	logging.Default().WithError(err).Errorf("produce error: %s", err.Error())

	if errors.Is(err, orchestrator.ErrRunInProgress) {
		ctx.JSON(http.StatusConflict, common.MakeErrorResp(common.CodeRunInProgress, err.Error(), nil))
		return
	}

	var stageErr *orchestrator.StageError
	if errors.As(err, &stageErr) {
		ctx.JSON(http.StatusInternalServerError, common.MakeErrorResp(common.CodeStageFailed, stageErr.Err.Error(), trainFailedRespSchema{
			RunID: stageErr.RunID,
			Stage: stageErr.Stage,
		}))
		return
	}

	ctx.JSON(http.StatusInternalServerError, common.MakeErrorResp(common.CodeUnknownError, err.Error(), nil))
}

type trainHandler struct {
	ctx *gin.Context
}

type trainRespSchema struct {
	RunID       string         `json:"run_id"`
	ArtifactDir string         `json:"artifact_dir"`
	TrainCount  int            `json:"train_count"`
	TestCount   int            `json:"test_count"`
	Scores      *tagger.Scores `json:"scores"`
}

type trainFailedRespSchema struct {
	RunID string `json:"run_id"`
	Stage string `json:"stage"`
}

func (h *trainHandler) produce() (*trainRespSchema, error) {
	result, err := orchestrator.Default().Run(h.ctx.Request.Context())
	if err != nil {
		return nil, err
	}

	return &trainRespSchema{
		RunID:       result.RunID,
		ArtifactDir: result.ArtifactDir,
		TrainCount:  result.TrainCount,
		TestCount:   result.TestCount,
		Scores:      result.Scores,
	}, nil
}
