package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"timeline/mocks"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestHealthReporter_Report(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storage := mocks.NewMockIPostRepository(ctrl)
	reporter := NewHealthReporter(slog.Default(), storage)
	ctx := context.Background()

	t.Run("should be ok when storage answers", func(t *testing.T) {
		req := require.New(t)
		storage.EXPECT().Ping(ctx).Return(nil).Times(1)

		report := reporter.Report(ctx)

		req.True(report.Healthy())
		req.Equal("up", report.Storage)
		req.Equal(int32(os.Getpid()), report.PID)
		req.Positive(report.Goroutines)
	})

	t.Run("should be degraded when storage ping fails", func(t *testing.T) {
		req := require.New(t)
		storage.EXPECT().Ping(ctx).Return(fmt.Errorf("closed")).Times(1)

		report := reporter.Report(ctx)

		req.False(report.Healthy())
		req.Equal(StatusDegraded, report.Status)
		req.Equal("down", report.Storage)
	})
}
