package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-room-api/internal/models"
	"github.com/noah-isme/campus-room-api/pkg/jobs"
)

type notificationWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// NotificationService records allocation outcome notifications through the
// background jobs queue so the agent loop never blocks on persistence.
// Delivery transport stays external; only the record is written here.
type NotificationService struct {
	repo   notificationWriter
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService constructs a NotificationService and its queue.
func NewNotificationService(repo notificationWriter, cfg jobs.QueueConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{repo: repo, logger: logger}
	cfg.Logger = logger
	s.queue = jobs.NewQueue("notifications", s.handle, cfg)
	return s
}

// Start begins queue consumption.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(models.Notification)
	if !ok {
		return fmt.Errorf("unexpected notification payload type %T", job.Payload)
	}
	return s.repo.Create(ctx, &notification)
}

// NotifyAllocated records a success notification for the requester.
func (s *NotificationService) NotifyAllocated(req models.RoomRequest, room models.Classroom) {
	s.enqueue(models.Notification{
		Audience:     models.NotificationAudienceRequester,
		RequesterRef: req.RequesterRef,
		Title:        "Room Allocated",
		Body: fmt.Sprintf("%s: %s %s from %s to %s",
			req.Purpose, room.Building, room.Code,
			req.StartAt.Format("2006-01-02 15:04"), req.EndAt.Format("15:04")),
		Priority:    models.NotificationPriorityNormal,
		RelatedType: "room_request",
		RelatedID:   req.ID,
	})
}

// NotifyConflict records a high-priority failure notification for the
// requester and an alert for administrators.
func (s *NotificationService) NotifyConflict(req models.RoomRequest, reason string) {
	s.enqueue(models.Notification{
		Audience:     models.NotificationAudienceRequester,
		RequesterRef: req.RequesterRef,
		Title:        "Room Allocation Conflict",
		Body:         fmt.Sprintf("%s: %s", req.Purpose, reason),
		Priority:     models.NotificationPriorityHigh,
		RelatedType:  "room_request",
		RelatedID:    req.ID,
	})
	s.enqueue(models.Notification{
		Audience:    models.NotificationAudienceAdmins,
		Title:       "Allocation Conflict Requires Attention",
		Body:        fmt.Sprintf("Request %s (%s): %s", req.ID, req.Purpose, reason),
		Priority:    models.NotificationPriorityHigh,
		RelatedType: "room_request",
		RelatedID:   req.ID,
	})
}

func (s *NotificationService) enqueue(notification models.Notification) {
	job := jobs.Job{ID: uuid.NewString(), Type: "notification", Payload: notification}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("notification enqueue failed",
			zap.String("related_id", notification.RelatedID), zap.Error(err))
	}
}
