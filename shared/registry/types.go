// shared/registry/types.go
package registry

// ServiceInfo is one registered instance as stored in Redis.
type ServiceInfo struct {
	ServiceID   string            `json:"serviceId"`
	ServiceType string            `json:"serviceType"`
	IP          string            `json:"ip"`
	Port        int               `json:"port"`
	LastSeen    int64             `json:"last_seen"`          // unix ms of the last heartbeat
	Metadata    map[string]string `json:"metadata,omitempty"` // e.g. player and bot counts
}
