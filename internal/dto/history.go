package dto

import "github.com/noah-isme/regdocs-api/internal/models"

// LogActionRequest captures POST /history payload.
type LogActionRequest struct {
	RecordID int64             `json:"recordId" validate:"required"`
	Action   models.ActionType `json:"action" validate:"required,oneof=view download show_details"`
}

// HistoryResponse is the aggregated per-record activity list.
type HistoryResponse struct {
	Records []models.HistoryAggregate `json:"records"`
}
