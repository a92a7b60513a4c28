package webhook

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskTypePrefix namespaces webhook jobs; the full task type is the prefix
// plus the route name, e.g. "webhook:checkin".
const TaskTypePrefix = "webhook:"

// JobPayload is the durable unit of work: the route's event-signature tag and
// the original delivery body, untouched.
type JobPayload struct {
	Route          string          `json:"route"`
	EventSignature string          `json:"event_signature"`
	Webhook        json.RawMessage `json:"webhook_event"`
}

func NewWebhookTask(p JobPayload, queue string) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePrefix+p.Route, payload,
		asynq.Queue(queue)), nil
}
