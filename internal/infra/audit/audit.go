package audit

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

// Action вид доступа к медицинским данным пациента
type Action string

const (
	ActionRead   Action = "read"
	ActionSearch Action = "search"
	ActionUpdate Action = "update"
)

const recordType = "phi_access"

// Entry запись журнала доступа к данным пациента
type Entry struct {
	UserID     int64
	PatientID  int64
	Resource   string
	ResourceID int64
	Action     Action
	Fields     []string // какие поля были прочитаны или изменены, пусто = вся запись
	At         time.Time
}

// Recorder журнал доступа к данным пациента поверх структурированного лога
// Каждая запись помечена type=phi_access, чтобы отделить ее от служебных логов при сборе
type Recorder struct {
	logger *logger.Logger
}

// NewRecorder создает журнал доступа
func NewRecorder(l *logger.Logger) *Recorder {
	return &Recorder{logger: l}
}

// Record пишет запись журнала, ошибка записи лога не влияет на запрос
func (r *Recorder) Record(_ context.Context, e Entry) {
	fields := map[string]interface{}{
		"type":        recordType,
		"user_id":     e.UserID,
		"patient_id":  e.PatientID,
		"resource":    e.Resource,
		"resource_id": e.ResourceID,
		"action":      string(e.Action),
		"accessed_at": e.At.UTC().Format(time.RFC3339),
	}
	if len(e.Fields) > 0 {
		fields["fields"] = e.Fields
	}
	r.logger.WithFields(fields).Info("%s %s id=%d by user=%d", e.Action, e.Resource, e.ResourceID, e.UserID)
}
