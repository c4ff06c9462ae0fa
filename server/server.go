package server

import (
	"fmt"
	"net/http"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/server/common"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/server/handler"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Config struct {
	Host      string
	Port      int
	DebugMode bool
}

type Server struct {
	engine *gin.Engine
	config *Config
}

func New(config *Config) *Server {
	if !config.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	eng := gin.New()

	eng.Use(gin.Recovery())
	eng.Use(common.LogRequest)
	eng.Use(cors.Default())

	eng.GET("/test/coffee", coffeeHandler)

	adminGroup := eng.Group("admin")
	{
		adminGroup.POST("/train", handler.Train)
		adminGroup.POST("/infer", handler.Infer)
		adminGroup.GET("/listrun", handler.ListRun)
		adminGroup.GET("/runinfo", handler.GetRunInfo)
		adminGroup.GET("/listartifact", handler.ListArtifact)
		adminGroup.GET("/listjob", handler.ListJob)
	}

	return &Server{
		engine: eng,
		config: config,
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) RunServer() error {
	return s.engine.Run(fmt.Sprintf("%s:%d", s.config.Host, s.config.Port))
}

func coffeeHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, common.MakeSuccessResp("coffee is ready"))
}
