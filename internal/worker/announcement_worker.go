package worker

import (
	"github.com/spec-kit/queue-service/internal/service"
)

// StartAnnouncementWorker registers the display announcement handlers.
func StartAnnouncementWorker(announcements *service.AnnouncementService) {
	if announcements == nil {
		return
	}
	announcements.RegisterHandlers()
}
