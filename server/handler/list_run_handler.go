package handler

import (
	"net/http"
	"time"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/logging"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/repository/metadata"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/server/common"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
	"github.com/gin-gonic/gin"
)

func ListRun(ctx *gin.Context) {
	res, err := listRun()
	if err != nil {
		logging.Default().WithError(err).Errorf("ListRun produce error: %s", err.Error())
		ctx.JSON(http.StatusInternalServerError, common.MakeUnknownErrorResp())
		return
	}

	ctx.JSON(http.StatusOK, common.MakeSuccessResp(res))
}

type listRunItem struct {
	ID          uint   `json:"id"`
	RunID       string `json:"run_id"`
	State       string `json:"state"`
	FailedStage string `json:"failed_stage,omitempty"`
	Procedure   string `json:"procedure"`
	Time        int64  `json:"time"`
	TimeStr     string `json:"time_str"`
}

func listRun() ([]listRunItem, error) {
	runList := make([]metadata.TrainingRun, 0)
	res := metadata.DatabaseRaw().Order("id desc").Find(&runList)
	err := res.Error
	if err != nil {
		return nil, utils.WrapError(err, "select all training runs fail")
	}

	ret := make([]listRunItem, 0, res.RowsAffected)
	for _, run := range runList {
		ret = append(ret, listRunItem{
			ID:          run.ID,
			RunID:       run.RunID,
			State:       run.State,
			FailedStage: run.FailedStage,
			Procedure:   run.Procedure,
			Time:        run.CreatedAt.Unix(),
			TimeStr:     run.CreatedAt.Format(time.RFC3339),
		})
	}

	return ret, nil
}
