package query

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

// Health reports "degraded" when grammars import each other in a cycle or
// name dependencies that are not loaded.
func (s *Service) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	graph := s.ws.Graph()
	status.Components["workspace"] = fmt.Sprintf("ok (%d grammars, %d edges)", graph.Len(), graph.EdgeCount())

	if cycles := s.ws.Cycles(); len(cycles) > 0 {
		status.Status = "degraded"
		parts := make([]string, 0, len(cycles))
		for _, cycle := range cycles {
			parts = append(parts, strings.Join(cycle, " -> "))
		}
		status.Components["cycles"] = strings.Join(parts, "; ")
	}

	var missing []string
	for _, name := range s.ws.Names() {
		details, err := s.GrammarDetails(ctx, name)
		if err != nil {
			continue
		}
		for _, dep := range details.Missing {
			missing = append(missing, name+" -> "+dep)
		}
	}
	if len(missing) > 0 {
		status.Status = "degraded"
		status.Components["dependencies"] = "missing " + strings.Join(missing, ", ")
	} else {
		status.Components["dependencies"] = "ok"
	}
	return status
}
