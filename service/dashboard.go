package service

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/google/uuid"

	"call-insights/dto"
	"call-insights/entities"
	"call-insights/repository"
)

var severityOrder = map[string]int{"high": 0, "medium": 1, "low": 2, "unknown": 3}

// DashboardService aggregates incident findings out of the structured
// JSON of every result in an analysis.
type DashboardService struct {
	repo repository.Repository
}

func NewDashboardService(repo repository.Repository) *DashboardService {
	return &DashboardService{repo: repo}
}

type incidentPayload struct {
	StartTime   float64 `json:"start_time"`
	EndTime     float64 `json:"end_time"`
	Type        string  `json:"type"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
	Quote       string  `json:"quote"`
}

type resultPayload struct {
	Incidents       []incidentPayload `json:"incidents"`
	HasIncidents    *bool             `json:"has_incidents"`
	OverallSeverity string            `json:"overall_severity"`
}

func (s *DashboardService) Build(ctx context.Context, analysisID uuid.UUID) (*dto.DashboardResponse, error) {
	analysis, err := s.repo.FindAnalysisByID(ctx, analysisID)
	if err != nil {
		return nil, ErrAnalysisNotFound
	}
	results, err := s.repo.ListAnalysisResults(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	filenames, err := s.filenamesByCall(ctx, results)
	if err != nil {
		return nil, err
	}

	stats := dto.IncidentStats{
		TotalFiles:           len(results),
		IncidentsByType:      map[string]int{},
		SeverityDistribution: map[string]int{"none": 0, "low": 0, "medium": 0, "high": 0},
	}
	incidents := []dto.Incident{}

	for _, result := range results {
		var payload resultPayload
		// Malformed result JSON counts as a file without incidents.
		_ = json.Unmarshal([]byte(result.JSONResult), &payload)

		hasIncidents := len(payload.Incidents) > 0
		if payload.HasIncidents != nil {
			hasIncidents = *payload.HasIncidents
		}
		if hasIncidents && len(payload.Incidents) > 0 {
			stats.FilesWithIncidents++
		}

		severity := payload.OverallSeverity
		if severity == "" {
			severity = "none"
		}
		stats.SeverityDistribution[severity]++

		for _, incident := range payload.Incidents {
			stats.TotalIncidents++
			incidentType := incident.Type
			if incidentType == "" {
				incidentType = "unknown"
			}
			stats.IncidentsByType[incidentType]++

			severity := incident.Severity
			if severity == "" {
				severity = "unknown"
			}
			incidents = append(incidents, dto.Incident{
				FileID:      result.CallID,
				Filename:    filenames[result.CallID],
				StartTime:   incident.StartTime,
				EndTime:     incident.EndTime,
				Type:        incidentType,
				Severity:    severity,
				Description: incident.Description,
				Quote:       incident.Quote,
			})
		}
	}

	sort.SliceStable(incidents, func(i, j int) bool {
		return severityRank(incidents[i].Severity) < severityRank(incidents[j].Severity)
	})

	return &dto.DashboardResponse{
		AnalysisID:   analysis.ID,
		AnalysisName: analysis.Name,
		Stats:        stats,
		Incidents:    incidents,
	}, nil
}

func severityRank(severity string) int {
	if rank, ok := severityOrder[severity]; ok {
		return rank
	}
	return severityOrder["unknown"]
}

func (s *DashboardService) filenamesByCall(ctx context.Context, results []*entities.AnalysisResult) (map[uuid.UUID]string, error) {
	ids := make([]uuid.UUID, 0, len(results))
	seen := make(map[uuid.UUID]bool, len(results))
	for _, result := range results {
		if !seen[result.CallID] {
			seen[result.CallID] = true
			ids = append(ids, result.CallID)
		}
	}
	if len(ids) == 0 {
		return map[uuid.UUID]string{}, nil
	}

	calls, err := s.repo.FindCallsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]string, len(calls))
	for _, call := range calls {
		out[call.ID] = call.Filename
	}
	return out, nil
}
