package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coursehunter/internal/model"
	"coursehunter/internal/notify"

	"github.com/rs/zerolog"
)

// requestService implements RequestService.
type requestService struct {
	sender    notify.Sender
	channelID string
	logger    zerolog.Logger
}

// NewRequestService creates a new course request service.
func NewRequestService(sender notify.Sender, channelID string, logger zerolog.Logger) RequestService {
	return &requestService{
		sender:    sender,
		channelID: channelID,
		logger:    logger.With().Str("service", "course_request").Logger(),
	}
}

// RequestCourse validates the request and forwards it to the operator channel.
func (s *requestService) RequestCourse(ctx context.Context, handle string, req *model.CourseRequest, now time.Time) error {
	handle, err := model.NormalizeHandle(handle)
	if err != nil {
		return err
	}

	if req == nil || strings.TrimSpace(req.CourseName) == "" {
		return model.ErrCourseNameRequired
	}

	text := notify.CourseRequestMessage(
		strings.TrimSpace(req.CourseName),
		handle,
		strings.TrimSpace(req.AdditionalInfo),
		now,
	)
	if err := s.sender.Send(ctx, s.channelID, text); err != nil {
		s.logger.Error().Err(err).Str("buyer", handle).Msg("failed to send course request")
		return fmt.Errorf("course request: %w", model.ErrNotificationFailed)
	}

	s.logger.Info().
		Str("buyer", handle).
		Str("course_name", req.CourseName).
		Msg("course request sent")

	return nil
}
