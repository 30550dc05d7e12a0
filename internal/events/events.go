package events

import (
	"time"

	"github.com/falmar/swarmkeeper/internal/model"
	"github.com/falmar/swarmkeeper/internal/queue"
)

const StatusChangedEvent queue.EventName = "service.status_changed"

// StatusChange is the payload of StatusChangedEvent.
type StatusChange struct {
	Name      string       `json:"name"`
	From      model.Status `json:"from"`
	To        model.Status `json:"to"`
	ClusterID string       `json:"cluster_id,omitempty"`
	Time      time.Time    `json:"time"`
}
