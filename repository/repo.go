package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"call-insights/constant"
	"call-insights/entities"
)

type Repository interface {
	// calls
	CreateCall(ctx context.Context, call *entities.Call) error
	FindCallByID(ctx context.Context, id uuid.UUID) (*entities.Call, error)
	FindCallsByIDs(ctx context.Context, ids []uuid.UUID) ([]*entities.Call, error)
	ListCalls(ctx context.Context, status constant.CallStatus, search string) ([]*entities.Call, error)
	UpdateCallStatus(ctx context.Context, id uuid.UUID, status constant.CallStatus) error
	// BeginCallProcessing flips a call to processing unless it already is;
	// false means another run holds the call.
	BeginCallProcessing(ctx context.Context, id uuid.UUID) (bool, error)
	MarkCallTranscribed(ctx context.Context, id uuid.UUID, durationSec int, at time.Time) error
	DeleteCall(ctx context.Context, id uuid.UUID) error

	// analyses
	CreateAnalysis(ctx context.Context, analysis *entities.Analysis, callIDs []uuid.UUID) error
	FindAnalysisByID(ctx context.Context, id uuid.UUID) (*entities.Analysis, error)
	ListAnalyses(ctx context.Context) ([]*entities.Analysis, error)
	FindAnalysisCallIDs(ctx context.Context, analysisID uuid.UUID) ([]uuid.UUID, error)
	UpdateAnalysisStatus(ctx context.Context, id uuid.UUID, status constant.AnalysisStatus) error
	UpdateAnalysisProgress(ctx context.Context, id uuid.UUID, progress int) error
	CreateAnalysisResult(ctx context.Context, result *entities.AnalysisResult) error
	ListAnalysisResults(ctx context.Context, analysisID uuid.UUID) ([]*entities.AnalysisResult, error)
	CountProcessedCalls(ctx context.Context, analysisID uuid.UUID) (int, error)
	CountErrorCalls(ctx context.Context, analysisID uuid.UUID) (int, error)

	// templates
	ListTemplates(ctx context.Context) ([]*entities.AnalysisTemplate, error)
	CreateTemplate(ctx context.Context, template *entities.AnalysisTemplate) error
	CountSystemTemplates(ctx context.Context) (int, error)
}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *sql.DB) Repository {
	gormDB, _ := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		},
	)
	return &repo{
		db: gormDB,
	}
}

func (r *repo) CreateCall(ctx context.Context, call *entities.Call) error {
	return r.db.WithContext(ctx).Create(call).Error
}

func (r *repo) FindCallByID(ctx context.Context, id uuid.UUID) (*entities.Call, error) {
	call := &entities.Call{}
	err := r.db.WithContext(ctx).First(call, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return call, nil
}

func (r *repo) FindCallsByIDs(ctx context.Context, ids []uuid.UUID) ([]*entities.Call, error) {
	var calls []*entities.Call
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&calls).Error
	if err != nil {
		return nil, err
	}
	return calls, nil
}

func (r *repo) ListCalls(ctx context.Context, status constant.CallStatus, search string) ([]*entities.Call, error) {
	q := r.db.WithContext(ctx).Model(&entities.Call{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if search != "" {
		q = q.Where("filename LIKE ?", "%"+search+"%")
	}
	var calls []*entities.Call
	err := q.Order("created_at DESC").Find(&calls).Error
	if err != nil {
		return nil, err
	}
	return calls, nil
}

func (r *repo) UpdateCallStatus(ctx context.Context, id uuid.UUID, status constant.CallStatus) error {
	return r.db.WithContext(ctx).Model(&entities.Call{}).Where("id = ?", id).Update("status", status).Error
}

func (r *repo) BeginCallProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entities.Call{}).
		Where("id = ? AND status <> ?", id, constant.CallStatusProcessing).
		Update("status", constant.CallStatusProcessing)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) MarkCallTranscribed(ctx context.Context, id uuid.UUID, durationSec int, at time.Time) error {
	updates := map[string]interface{}{
		"has_transcript":        true,
		"transcript_updated_at": at,
		"duration_sec":          durationSec,
	}
	return r.db.WithContext(ctx).Model(&entities.Call{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repo) DeleteCall(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("call_id = ?", id).Delete(&entities.AnalysisResult{}).Error; err != nil {
			return err
		}
		if err := tx.Where("call_id = ?", id).Delete(&entities.AnalysisCall{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Call{}, "id = ?", id).Error
	})
}

func (r *repo) CreateAnalysis(ctx context.Context, analysis *entities.Analysis, callIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(analysis).Error; err != nil {
			return err
		}
		for i, callID := range callIDs {
			link := &entities.AnalysisCall{AnalysisID: analysis.ID, CallID: callID, Position: i}
			if err := tx.Create(link).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repo) FindAnalysisByID(ctx context.Context, id uuid.UUID) (*entities.Analysis, error) {
	analysis := &entities.Analysis{}
	err := r.db.WithContext(ctx).First(analysis, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return analysis, nil
}

func (r *repo) ListAnalyses(ctx context.Context) ([]*entities.Analysis, error) {
	var analyses []*entities.Analysis
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&analyses).Error
	if err != nil {
		return nil, err
	}
	return analyses, nil
}

func (r *repo) FindAnalysisCallIDs(ctx context.Context, analysisID uuid.UUID) ([]uuid.UUID, error) {
	var links []*entities.AnalysisCall
	err := r.db.WithContext(ctx).Where("analysis_id = ?", analysisID).Order("position ASC").Find(&links).Error
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(links))
	for i, link := range links {
		ids[i] = link.CallID
	}
	return ids, nil
}

func (r *repo) UpdateAnalysisStatus(ctx context.Context, id uuid.UUID, status constant.AnalysisStatus) error {
	return r.db.WithContext(ctx).Model(&entities.Analysis{}).Where("id = ?", id).Update("status", status).Error
}

func (r *repo) UpdateAnalysisProgress(ctx context.Context, id uuid.UUID, progress int) error {
	return r.db.WithContext(ctx).Model(&entities.Analysis{}).Where("id = ?", id).Update("progress", progress).Error
}

func (r *repo) CreateAnalysisResult(ctx context.Context, result *entities.AnalysisResult) error {
	return r.db.WithContext(ctx).Create(result).Error
}

func (r *repo) ListAnalysisResults(ctx context.Context, analysisID uuid.UUID) ([]*entities.AnalysisResult, error) {
	var results []*entities.AnalysisResult
	err := r.db.WithContext(ctx).Where("analysis_id = ?", analysisID).Order("created_at ASC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *repo) CountProcessedCalls(ctx context.Context, analysisID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.AnalysisResult{}).
		Where("analysis_id = ?", analysisID).
		Distinct("call_id").
		Count(&count).Error
	return int(count), err
}

func (r *repo) CountErrorCalls(ctx context.Context, analysisID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.AnalysisCall{}).
		Joins("JOIN calls ON calls.id = analysis_calls.call_id").
		Where("analysis_calls.analysis_id = ? AND calls.status = ?", analysisID, constant.CallStatusError).
		Count(&count).Error
	return int(count), err
}

func (r *repo) ListTemplates(ctx context.Context) ([]*entities.AnalysisTemplate, error) {
	var templates []*entities.AnalysisTemplate
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *repo) CreateTemplate(ctx context.Context, template *entities.AnalysisTemplate) error {
	return r.db.WithContext(ctx).Create(template).Error
}

func (r *repo) CountSystemTemplates(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.AnalysisTemplate{}).Where("is_system = ?", true).Count(&count).Error
	return int(count), err
}
