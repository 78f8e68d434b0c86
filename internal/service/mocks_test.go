package service

import "context"

// recordingAudit captures published audit events for assertions
type recordingAudit struct {
	events []auditEvent
}

type auditEvent struct {
	ActorID    int64
	EventType  string
	EntityType string
	EntityID   int64
	Details    string
}

func (a *recordingAudit) Publish(_ context.Context, actorID int64, eventType, entityType string, entityID int64, details string) {
	a.events = append(a.events, auditEvent{
		ActorID:    actorID,
		EventType:  eventType,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	})
}

func (a *recordingAudit) actions() []string {
	out := make([]string, 0, len(a.events))
	for _, e := range a.events {
		out = append(out, e.EventType)
	}
	return out
}
