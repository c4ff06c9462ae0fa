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

func ListJob(ctx *gin.Context) {
	res, err := listJob()
	if err != nil {
		logging.Default().WithError(err).Errorf("ListJob produce error: %s", err.Error())
		ctx.JSON(http.StatusInternalServerError, common.MakeUnknownErrorResp())
		return
	}

	ctx.JSON(http.StatusOK, common.MakeSuccessResp(res))
}

type listJobItem struct {
	ID            uint   `json:"id"`
	InputPath     string `json:"input_path"`
	OutputPath    string `json:"output_path"`
	RunID         string `json:"run_id"`
	Status        string `json:"status"`
	RowCount      int    `json:"row_count"`
	FailedRows    int    `json:"failed_rows"`
	Cause         string `json:"cause,omitempty"`
	CreateTime    int64  `json:"create_time"`
	CreateTimeStr string `json:"create_time_str"`
}

func listJob() ([]listJobItem, error) {
	var jobList []metadata.InferenceJob
	res := metadata.DatabaseRaw().Order("id desc").Find(&jobList)
	err := res.Error
	if err != nil {
		return nil, utils.WrapError(err, "select all inference jobs fail")
	}

	ret := make([]listJobItem, 0, len(jobList))
	for _, job := range jobList {
		ret = append(ret, listJobItem{
			ID:            job.ID,
			InputPath:     job.InputPath,
			OutputPath:    job.OutputPath,
			RunID:         job.RunID,
			Status:        job.Status,
			RowCount:      job.RowCount,
			FailedRows:    job.FailedRows,
			Cause:         job.Cause,
			CreateTime:    job.CreatedAt.Unix(),
			CreateTimeStr: job.CreatedAt.Format(time.RFC3339),
		})
	}

	return ret, nil
}
