package events

import (
	"context"

	"github.com/platformkit/scaling-engine/internal/logger"
	"github.com/platformkit/scaling-engine/pkg/database"
	"github.com/platformkit/scaling-engine/pkg/database/queries"
	"github.com/platformkit/scaling-engine/pkg/models"
)

// Sink consumes all bus events, logs them with structured fields, and
// archives scaling outcomes, alerts, and recommendations to Postgres.
// A nil db disables persistence but keeps the structured logging.
type Sink struct {
	scalingRepo *queries.ScalingRecordRepository
	alertRepo   *queries.AlertRepository
	recRepo     *queries.RecommendationRepository
	eventChan   <-chan *models.Event
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
}

func NewSink(db *database.DB, eventChan <-chan *models.Event) *Sink {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Sink{
		eventChan: eventChan,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	if db != nil {
		s.scalingRepo = queries.NewScalingRecordRepository(db.DB)
		s.alertRepo = queries.NewAlertRepository(db.DB)
		s.recRepo = queries.NewRecommendationRepository(db.DB)
	}
	return s
}

func (s *Sink) Start() {
	go s.run()
}

func (s *Sink) Stop() {
	s.cancel()
	<-s.done
}

func (s *Sink) run() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-s.eventChan:
			if !ok {
				return
			}
			s.processEvent(event)
		}
	}
}

func (s *Sink) processEvent(event *models.Event) {
	entry := logger.WithFields(map[string]interface{}{
		"event_type":  event.Type,
		"resource_id": event.ResourceID,
		"severity":    event.Severity,
		"trace_id":    event.TraceID,
	})

	switch event.Severity {
	case models.EventSeverityCritical:
		entry.Error(event.Message)
	case models.EventSeverityWarning:
		entry.Warn(event.Message)
	default:
		entry.Info(event.Message)
	}

	if s.scalingRepo == nil {
		return
	}

	switch event.Type {
	case models.EventTypeScalingExecuted:
		s.persistScalingRecord(event)
	case models.EventTypeAlertCreated, models.EventTypeAlertResolved,
		models.EventTypeAlertAcknowledged, models.EventTypeAlertEscalated:
		s.persistAlert(event)
	case models.EventTypeRecommendationGenerated:
		s.persistRecommendation(event)
	}
}

func (s *Sink) persistScalingRecord(event *models.Event) {
	record, ok := event.Data.(*models.ScalingRecord)
	if !ok {
		return
	}
	if err := s.scalingRepo.Insert(s.ctx, record); err != nil {
		logger.Errorf("Failed to persist scaling record: %v", err)
	}
}

func (s *Sink) persistAlert(event *models.Event) {
	alert, ok := event.Data.(*models.Alert)
	if !ok {
		return
	}
	if err := s.alertRepo.Upsert(s.ctx, alert); err != nil {
		logger.Errorf("Failed to persist alert: %v", err)
	}
}

func (s *Sink) persistRecommendation(event *models.Event) {
	rec, ok := event.Data.(*models.ScalingRecommendation)
	if !ok {
		return
	}
	if err := s.recRepo.Insert(s.ctx, rec); err != nil {
		logger.Errorf("Failed to persist recommendation: %v", err)
	}
}
