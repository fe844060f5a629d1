package events

import (
	"encoding/json"
	"log"

	"github.com/tasknest/tasknest-api/internal/realtime"
)

// Publisher delivers a payload to the live subscribers of a topic.
type Publisher interface {
	Publish(topic string, payload []byte)
}

// Fanout resolves each event's target topics and hands delivery to the
// publisher. Task-scoped events go to both the task topic and the global
// topic: list views subscribe once to global instead of joining every task,
// so the duplication is deliberate.
type Fanout struct {
	publisher Publisher
}

// NewFanout creates a Fanout on top of a publisher.
func NewFanout(publisher Publisher) *Fanout {
	return &Fanout{publisher: publisher}
}

type envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Publish routes one committed domain event. Delivery is best effort; the
// mutation the event describes has already been persisted.
func (f *Fanout) Publish(ev Event) {
	payload, err := json.Marshal(envelope{Event: ev.Name(), Data: ev})
	if err != nil {
		log.Printf("fanout: failed to encode %s event: %v", ev.Name(), err)
		return
	}

	switch e := ev.(type) {
	case TaskCreated:
		f.toTaskAndGlobal(e.TaskID, payload)
	case TaskUpdated:
		f.toTaskAndGlobal(e.TaskID, payload)
	case TaskStageChanged:
		f.toTaskAndGlobal(e.TaskID, payload)
	case TaskTrashed:
		f.toTaskAndGlobal(e.TaskID, payload)
	case TaskDeleted:
		f.toTaskAndGlobal(e.TaskID, payload)
	case ReminderAdded:
		f.toTaskAndGlobal(e.TaskID, payload)
	case ReminderDeleted:
		f.toTaskAndGlobal(e.TaskID, payload)
	case ReminderSent:
		f.toTaskAndGlobal(e.TaskID, payload)
	case CommentAdded:
		f.toTaskAndGlobal(e.TaskID, payload)
	case NotificationCreated:
		f.publisher.Publish(realtime.UserTopic(e.UserID), payload)
	case NotificationRead:
		f.publisher.Publish(realtime.UserTopic(e.UserID), payload)
	case NotificationDeleted:
		f.publisher.Publish(realtime.UserTopic(e.UserID), payload)
	default:
		// Event is a closed set; a new variant must be routed here.
		log.Printf("fanout: unrouted event type %T", ev)
	}
}

func (f *Fanout) toTaskAndGlobal(taskID uint64, payload []byte) {
	f.publisher.Publish(realtime.TaskTopic(taskID), payload)
	f.publisher.Publish(realtime.TopicGlobal, payload)
}
