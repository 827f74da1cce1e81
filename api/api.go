/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	exporter "github.com/market-exporter/exporter"
	"github.com/market-exporter/exporter/api/middleware"
	"github.com/market-exporter/exporter/config"
)

type Api struct {
	exporter *exporter.Exporter
	router   *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/export", a.StartExport)
	router.POST("/export/step", a.RunExportStep)
	router.GET("/export/status", a.GetExportStatus)
	router.DELETE("/export", a.StopExport)

	router.GET("/export/runs", a.GetExportRuns)
	router.GET("/export/runs/last", a.GetLastExportRun)

	router.GET("/feed", a.DownloadFeed)
	return a.router
}

func NewAPI(e *exporter.Exporter) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(otelgin.Middleware(conf.ProjectName))
	r.Use(middleware.RateLimitMiddleware(conf))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, "server running...")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	return &Api{exporter: e, router: r}
}
