package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/errs"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/inference"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/logging"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/server/common"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

/*
Infer 对一个表格执行批量抽取，两种请求方式：

	multipart/form-data，file 字段为上传的 xlsx，其余参数取配置；
	application/json，字段见 inferReqSchema，为空的字段取配置；
	input_path 与 output_path 相对于配置的输入、输出目录解析，不能越出该目录。
*/
func Infer(ctx *gin.Context) {
	handler := inferHandler{
		ctx: ctx,
	}

	if err := handler.checkParam(); err != nil {
		logging.Default().WithError(err).Errorf("parse req error: %s", err.Error())
		ctx.JSON(http.StatusBadRequest, common.MakeErrorResp(common.CodeParamError, err.Error(), nil))
		return
	}

	resp, err := handler.produce()
	if err != nil {
		logging.Default().WithError(err).Errorf("produce error: %s", err.Error())

		var loadErr *errs.ModelLoadError
		if errors.As(err, &loadErr) {
			ctx.JSON(http.StatusServiceUnavailable, common.MakeErrorResp(common.CodeStageFailed, err.Error(), nil))
			return
		}
		ctx.JSON(http.StatusInternalServerError, common.MakeErrorResp(common.CodeUnknownError, err.Error(), nil))
		return
	}

	ctx.JSON(http.StatusOK, common.MakeSuccessResp(resp))
}

type inferHandler struct {
	ctx *gin.Context

	// params
	request  inference.JobRequest
	uploaded string
}

type inferReqSchema struct {
	InputPath   string `json:"input_path"`
	InputSheet  string `json:"input_sheet"`
	InputColumn *int   `json:"input_column"`
	OutputPath  string `json:"output_path"`
	OutputSheet string `json:"output_sheet"`
	GraphExport *bool  `json:"graph_export"`
}

type inferRespSchema struct {
	JobID       uint   `json:"job_id"`
	RunID       string `json:"run_id"`
	ArtifactDir string `json:"artifact_dir"`
	OutputPath  string `json:"output_path"`
	Rows        int    `json:"rows"`
	FailedRows  int    `json:"failed_rows"`
	EntityCSV   string `json:"entity_csv,omitempty"`
	RelationCSV string `json:"relation_csv,omitempty"`
}

func (h *inferHandler) checkParam() error {
	contentType := h.ctx.GetHeader("Content-Type")
	if strings.Contains(contentType, "multipart/form-data") {
		return h.checkUpload()
	}

	var req inferReqSchema
	if h.ctx.Request.ContentLength != 0 {
		if err := h.ctx.ShouldBindJSON(&req); err != nil {
			return utils.WrapError(err, "bind req fail")
		}
	}

	if req.InputColumn != nil && *req.InputColumn < 0 {
		return utils.WrapErrorf(common.ErrRequestParamInvalid, "input_column(%d) cannot be negative", *req.InputColumn)
	}

	inputPath, err := confinePath(globalSetting.InputDir, req.InputPath)
	if err != nil {
		return utils.WrapError(err, "check input_path fail")
	}
	outputPath, err := confinePath(globalSetting.OutputDir, req.OutputPath)
	if err != nil {
		return utils.WrapError(err, "check output_path fail")
	}

	h.request = inference.JobRequest{
		InputPath:   inputPath,
		InputSheet:  req.InputSheet,
		InputColumn: req.InputColumn,
		OutputPath:  outputPath,
		OutputSheet: req.OutputSheet,
		GraphExport: req.GraphExport,
	}
	return nil
}

// confinePath resolves path under root; an empty path stays empty so the configured default applies.
func confinePath(root, path string) (string, error) {
	if len(path) == 0 {
		return "", nil
	}
	if len(root) == 0 {
		return "", utils.WrapErrorf(common.ErrRequestParamInvalid, "path [%s] is not allowed", path)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", utils.WrapErrorf(err, "resolve [%s] fail", root)
	}

	target := path
	if !filepath.IsAbs(target) {
		target = filepath.Join(absRoot, target)
	}
	target = filepath.Clean(target)

	rel, err := filepath.Rel(absRoot, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", utils.WrapErrorf(common.ErrRequestParamInvalid, "path [%s] escapes [%s]", path, root)
	}
	return target, nil
}

func (h *inferHandler) checkUpload() error {
	header, err := h.ctx.FormFile("file")
	if err != nil {
		return utils.WrapError(common.ErrRequestParamEmpty, "form file 'file' is missing")
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".xlsx" {
		return utils.WrapErrorf(common.ErrRequestParamInvalid, "file [%s] is not an xlsx sheet", header.Filename)
	}

	dir := globalSetting.UploadDir
	if len(dir) == 0 {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return utils.WrapErrorf(err, "mkdir [%s] fail", dir)
	}

	h.uploaded = filepath.Join(dir, uuid.NewString()+ext)
	if err := h.ctx.SaveUploadedFile(header, h.uploaded); err != nil {
		return utils.WrapError(err, "save uploaded file fail")
	}

	h.request = inference.JobRequest{
		InputPath:  h.uploaded,
		InputSheet: h.ctx.PostForm("sheet"),
	}
	return nil
}

func (h *inferHandler) produce() (*inferRespSchema, error) {
	if len(h.uploaded) != 0 {
		defer os.Remove(h.uploaded)
	}

	result, err := inference.RunJob(h.ctx.Request.Context(), h.request)
	if err != nil {
		return nil, utils.WrapErrorf(err, "inference job on [%s] fail", h.request.InputPath)
	}

	resp := &inferRespSchema{
		JobID:       result.JobID,
		RunID:       result.RunID,
		ArtifactDir: result.ArtifactDir,
		OutputPath:  result.OutputPath,
		Rows:        result.Rows,
		FailedRows:  result.FailedRows,
	}
	if result.Graph != nil {
		resp.EntityCSV = result.Graph.EntityCSV
		resp.RelationCSV = result.Graph.RelationCSV
	}
	return resp, nil
}
