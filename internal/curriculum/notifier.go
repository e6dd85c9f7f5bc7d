package curriculum

import (
	"sync"

	"github.com/coursehub/backend/internal/models"
	"go.uber.org/zap"
)

// Notice levels
const (
	LevelSuccess = "success"
	LevelInfo    = "info"
)

// Notifier receives the user-facing confirmations emitted by an Editor
type Notifier interface {
	Notify(notice models.Notice)
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(models.Notice)

// Notify calls f(notice)
func (f NotifierFunc) Notify(notice models.Notice) {
	f(notice)
}

// NoticeCollector gathers notices so they can be returned to the client
type NoticeCollector struct {
	mu      sync.Mutex
	notices []models.Notice
}

// Notify records a notice
func (c *NoticeCollector) Notify(notice models.Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, notice)
}

// Notices returns the recorded notices
func (c *NoticeCollector) Notices() []models.Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Notice, len(c.notices))
	copy(out, c.notices)
	return out
}

// LogNotifier writes notices to a zap logger
type LogNotifier struct {
	Logger *zap.Logger
}

// Notify logs a notice
func (n LogNotifier) Notify(notice models.Notice) {
	n.Logger.Debug("curriculum notice",
		zap.String("level", notice.Level),
		zap.String("message", notice.Message),
	)
}

func noticeFor(action Action) models.Notice {
	var msg string
	switch action.(type) {
	case AddSection:
		msg = "Section added successfully"
	case UpdateSection:
		msg = "Section updated successfully"
	case DeleteSection:
		msg = "Section deleted successfully"
	case AddLesson:
		msg = "Lesson added successfully"
	case UpdateLesson:
		msg = "Lesson updated successfully"
	case DeleteLesson:
		msg = "Lesson deleted successfully"
	case ReorderSections:
		msg = "Sections reordered"
	case ReorderLessons:
		msg = "Lessons reordered"
	case SetCurriculum:
		return models.Notice{Level: LevelInfo, Message: "Curriculum loaded"}
	}
	return models.Notice{Level: LevelSuccess, Message: msg}
}
