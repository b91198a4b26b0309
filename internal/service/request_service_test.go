package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"coursehunter/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRequestService_RequestCourse(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		handle      string
		req         *model.CourseRequest
		sendErr     error
		expectSend  bool
		expectedErr error
	}{
		{
			name:       "Success",
			handle:     "@alice_01",
			req:        &model.CourseRequest{CourseName: "Advanced Rust", AdditionalInfo: "2024 edition"},
			expectSend: true,
		},
		{
			name:        "Missing handle",
			handle:      "",
			req:         &model.CourseRequest{CourseName: "Advanced Rust"},
			expectedErr: model.ErrHandleRequired,
		},
		{
			name:        "Missing course name",
			handle:      "alice_01",
			req:         &model.CourseRequest{CourseName: "  "},
			expectedErr: model.ErrCourseNameRequired,
		},
		{
			name:        "Nil request",
			handle:      "alice_01",
			req:         nil,
			expectedErr: model.ErrCourseNameRequired,
		},
		{
			name:        "Notification fails",
			handle:      "alice_01",
			req:         &model.CourseRequest{CourseName: "Advanced Rust"},
			sendErr:     errors.New("telegram down"),
			expectSend:  true,
			expectedErr: model.ErrNotificationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := new(MockSender)
			svc := NewRequestService(sender, "@orders", zerolog.Nop())

			if tt.expectSend {
				sender.On("Send", ctx, "@orders", mock.MatchedBy(func(text string) bool {
					return strings.Contains(text, "Advanced Rust") && strings.Contains(text, `alice\_01`)
				})).Return(tt.sendErr)
			}

			err := svc.RequestCourse(ctx, tt.handle, tt.req, purchaseTime)

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
			}

			if tt.expectSend {
				sender.AssertExpectations(t)
			} else {
				sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}
