package controllers

import "github.com/datallboy/comexdown/internal/domain"

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	OutputDir string `json:"output_dir"`
}

type RebuildResponse struct {
	Files int                   `json:"files"`
	Index domain.DirectoryIndex `json:"index"`
}

type TableResponse struct {
	Name        string `json:"name"`
	File        string `json:"file"`
	Title       string `json:"title"`
	Description string `json:"description"`
}
