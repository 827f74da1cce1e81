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
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	exporter "github.com/market-exporter/exporter"
	model2 "github.com/market-exporter/exporter/api/model"
	"github.com/market-exporter/exporter/internal/apierror"
	"github.com/market-exporter/exporter/model"
)

// exportError converts an engine error into an APIError carrying the matching code.
func exportError(err error) apierror.APIError {
	var apiErr apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, exporter.ErrJobBusy),
		errors.Is(err, exporter.ErrProgressMismatch),
		errors.Is(err, exporter.ErrJobCancelled):
		return apierror.NewAPIError(apierror.ErrConflict, err.Error(), nil)
	case errors.Is(err, exporter.ErrUnsupportedCurrency):
		return apierror.NewAPIError(apierror.ErrNotImplemented, err.Error(), nil)
	case errors.Is(err, exporter.ErrNoProductsFound):
		return apierror.NewAPIError(apierror.ErrUnavailable, err.Error(), nil)
	default:
		return apierror.NewAPIError(apierror.ErrInternalServer, "export failed", err.Error())
	}
}

func respondError(c *gin.Context, err error) {
	apiErr := exportError(err)
	c.JSON(apierror.MapErrorToHTTPStatus(apiErr), gin.H{"error": apiErr.Message, "code": apiErr.Code})
}

// StartExport queues a new export job. The steps run on the workers.
func (a Api) StartExport(c *gin.Context) {
	if err := a.exporter.Trigger(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

// RunExportStep runs one page of the export synchronously. A body of {"step":0,"total_steps":0}
// starts a job; later calls pass back the progress from the previous response.
func (a Api) RunExportStep(c *gin.Context) {
	var req model2.RunStep
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := req.ValidateRunStep(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	result, err := a.exporter.RunStep(c.Request.Context(), req.Step, req.TotalSteps)
	if err != nil {
		apiErr := exportError(err)
		c.JSON(apierror.MapErrorToHTTPStatus(apiErr), gin.H{"error": apiErr.Message, "code": apiErr.Code, "result": result})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (a Api) GetExportStatus(c *gin.Context) {
	state, err := a.exporter.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model2.ExportStatus{Running: state != nil, State: state})
}

// StopExport cancels the job in progress and discards its partial feed.
func (a Api) StopExport(c *gin.Context) {
	state, err := a.exporter.Stop(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model2.ExportStatus{Running: false, State: state})
}

func (a Api) GetExportRuns(c *gin.Context) {
	runs := a.exporter.Runs()
	if runs == nil {
		respondError(c, apierror.NewAPIError(apierror.ErrNotImplemented, "run history needs a database", nil))
		return
	}

	var query model2.ListRuns
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	query.AddDefaults()
	if err := query.ValidateListRuns(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := runs.ListRuns(c.Request.Context(), query.Limit, query.Offset)
	if err != nil {
		respondError(c, err)
		return
	}
	if resp == nil {
		resp = []model.ExportRun{}
	}
	c.JSON(http.StatusOK, resp)
}

func (a Api) GetLastExportRun(c *gin.Context) {
	runs := a.exporter.Runs()
	if runs == nil {
		respondError(c, apierror.NewAPIError(apierror.ErrNotImplemented, "run history needs a database", nil))
		return
	}

	resp, err := runs.GetLastRun(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DownloadFeed serves the most recently published feed file.
func (a Api) DownloadFeed(c *gin.Context) {
	path, err := a.exporter.Sink().Latest()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no feed has been published yet"})
		return
	}
	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.FileAttachment(path, filepath.Base(path))
}
