package model

const (
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
)

// ClusterHealth summarises the cluster; Status is degraded when any
// sub-query failed.
type ClusterHealth struct {
	Status       string         `json:"status"`
	ClusterID    string         `json:"swarm_id"`
	NodeCount    int            `json:"node_count"`
	ServiceCount int            `json:"service_count"`
	Nodes        []ObservedNode `json:"nodes"`
	Errors       []string       `json:"errors"`
}
