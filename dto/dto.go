package dto

import "github.com/google/uuid"

// Queue messages.

type AnalysisJobMessage struct {
	AnalysisID        uuid.UUID `json:"analysisId"`
	ForceRetranscribe bool      `json:"forceRetranscribe"`
}

type RetranscribeMessage struct {
	CallID uuid.UUID `json:"callId"`
}

// API payloads.

type CreateAnalysisRequest struct {
	Name              string      `json:"name" binding:"required"`
	QueryText         string      `json:"query_text" binding:"required"`
	CallIDs           []uuid.UUID `json:"call_ids" binding:"required"`
	ForceRetranscribe bool        `json:"force_retranscribe"`
}

type AnalysisStatusResponse struct {
	ID             uuid.UUID `json:"id"`
	Status         string    `json:"status"`
	Progress       int       `json:"progress"`
	TotalCalls     int       `json:"total_calls"`
	ProcessedCalls int       `json:"processed_calls"`
	ErrorCount     int       `json:"error_count"`
}

type AnalysisResultRow struct {
	ID         uuid.UUID `json:"id"`
	AnalysisID uuid.UUID `json:"analysis_id"`
	CallID     uuid.UUID `json:"call_id"`
	Filename   string    `json:"filename"`
	Summary    string    `json:"summary"`
	JSONResult string    `json:"json_result"`
}

type CreateTemplateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	QueryText   string `json:"query_text" binding:"required"`
	Category    string `json:"category"`
}

// Dashboard aggregation.

type Incident struct {
	FileID      uuid.UUID `json:"file_id"`
	Filename    string    `json:"filename"`
	StartTime   float64   `json:"start_time"`
	EndTime     float64   `json:"end_time"`
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Description string    `json:"description"`
	Quote       string    `json:"quote"`
}

type IncidentStats struct {
	TotalFiles           int            `json:"total_files"`
	FilesWithIncidents   int            `json:"files_with_incidents"`
	TotalIncidents       int            `json:"total_incidents"`
	IncidentsByType      map[string]int `json:"incidents_by_type"`
	SeverityDistribution map[string]int `json:"severity_distribution"`
}

type DashboardResponse struct {
	AnalysisID   uuid.UUID     `json:"analysis_id"`
	AnalysisName string        `json:"analysis_name"`
	Stats        IncidentStats `json:"stats"`
	Incidents    []Incident    `json:"incidents"`
}
