package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v5"

	"github.com/datallboy/comexdown/internal/app"
	"github.com/datallboy/comexdown/internal/domain"
	"github.com/datallboy/comexdown/internal/store"
)

const maxHistoryLimit = 1000

type StatusController struct {
	App *app.Context
}

func (ctrl *StatusController) Health(c *echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", OutputDir: ctrl.App.Config.OutputDir})
}

// GetIndex returns the stored manifest without touching the files.
func (ctrl *StatusController) GetIndex(c *echo.Context) error {
	idx, err := ctrl.App.Index.Load()
	if err != nil {
		if errors.Is(err, domain.ErrManifestParse) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, idx)
}

// RebuildIndex rescans the data root. A second caller gets 409 while one runs.
func (ctrl *StatusController) RebuildIndex(c *echo.Context) error {
	idx, err := ctrl.App.Index.Rebuild(c.Request().Context())
	if err != nil {
		if errors.Is(err, domain.ErrRebuildInProgress) {
			return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		}
		ctrl.App.Logger.Error("Index rebuild failed: %v", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, RebuildResponse{Files: len(idx.Files()), Index: idx})
}

// ListHistory supports ?limit=N (default 50) and ?run=<run id>.
func (ctrl *StatusController) ListHistory(c *echo.Context) error {
	f := store.Filter{RunID: c.QueryParam("run"), Limit: 50}

	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
		}
		f.Limit = min(n, maxHistoryLimit)
	}

	records, err := ctrl.App.History.ListTransfers(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, records)
}

func (ctrl *StatusController) ListTables(c *echo.Context) error {
	tables := ctrl.App.Catalog.Tables()
	out := make([]TableResponse, 0, len(tables))
	for _, t := range tables {
		out = append(out, TableResponse{Name: t.Name, File: t.File, Title: t.Title, Description: t.Description})
	}
	return c.JSON(http.StatusOK, out)
}
