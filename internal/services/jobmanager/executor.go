package jobmanager

import (
	"context"
	"fmt"
	"time"

	"github.com/jcalder/brokerd/internal/models"
)

// executeJob dispatches a job to the correct service method based on job type.
func (jm *JobManager) executeJob(ctx context.Context, job *models.Job) error {
	switch job.JobType {
	case models.JobTypeDailyReport:
		date, err := time.Parse("2006-01-02", job.Date)
		if err != nil {
			return fmt.Errorf("invalid report date '%s': %w", job.Date, err)
		}
		_, err = jm.reports.GenerateDailyReport(ctx, date)
		return err
	default:
		return fmt.Errorf("unknown job type: %s", job.JobType)
	}
}
