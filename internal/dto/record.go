package dto

import "github.com/noah-isme/regdocs-api/internal/models"

// CreateRecordRequest contains metadata submitted alongside a document upload.
type CreateRecordRequest struct {
	Title         string   `form:"title" json:"title" validate:"required"`
	TitleAr       *string  `form:"titleAr" json:"titleAr"`
	Department    string   `form:"department" json:"department" validate:"required"`
	Sections      []string `form:"sections" json:"sections"`
	DocumentTypes []string `form:"documentTypes" json:"documentTypes"`
	VersionDate   string   `form:"versionDate" json:"versionDate"`
}

// UpdateRecordRequest carries partial updates to record metadata.
type UpdateRecordRequest struct {
	Title         *string  `json:"title"`
	TitleAr       *string  `json:"titleAr"`
	Department    *string  `json:"department"`
	Sections      []string `json:"sections"`
	DocumentTypes []string `json:"documentTypes"`
	VersionDate   *string  `json:"versionDate"`
}

// RecordListQuery captures the browse filter and sort query parameters.
type RecordListQuery struct {
	Department    string   `form:"department"`
	Sections      []string `form:"sections"`
	DocumentTypes []string `form:"documentTypes"`
	Title         string   `form:"title"`
	DateFrom      string   `form:"dateFrom"`
	DateTo        string   `form:"dateTo"`
	SavedOnly     bool     `form:"savedOnly"`
	Sort          string   `form:"sort" validate:"omitempty,oneof=alphabetical alphabetical_desc newest oldest"`
}

// RecordDownloadResponse enriches record metadata with a signed download URL.
type RecordDownloadResponse struct {
	models.Record
	DownloadURL string `json:"downloadUrl"`
}
