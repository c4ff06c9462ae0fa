package common

import (
	"time"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/logging"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func LogRequest(ctx *gin.Context) {
	start := time.Now()

	ctx.Next()

	entry := logging.Default().WithFields(logrus.Fields{
		"method":  ctx.Request.Method,
		"path":    ctx.Request.URL.Path,
		"status":  ctx.Writer.Status(),
		"latency": time.Since(start).String(),
		"client":  ctx.ClientIP(),
	})

	if len(ctx.Errors) != 0 {
		entry.Warn(ctx.Errors.String())
		return
	}
	entry.Info("request")
}
