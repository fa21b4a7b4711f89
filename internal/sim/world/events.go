package world

import "gridhaul.gg/internal/protocol"

func actionResult(tick uint64, ref string, ok bool, code string, msg string) protocol.Event {
	e := protocol.Event{
		"t":    tick,
		"type": "ACTION_RESULT",
		"ref":  ref,
		"ok":   ok,
	}
	if code != "" {
		e["code"] = code
	}
	if msg != "" {
		e["msg"] = msg
	}
	return e
}

// broadcastEvent queues an event for every connected client.
func (w *World) broadcastEvent(e protocol.Event) {
	for _, id := range w.sortedClientIDs() {
		w.clients[id].AddEvent(e)
	}
}

func (w *World) auditEvent(tick uint64, actor, action string, cell Vec2i, detail map[string]any) {
	if w.auditLogger == nil {
		return
	}
	_ = w.auditLogger.WriteAudit(AuditEntry{
		Tick:   tick,
		Actor:  actor,
		Action: action,
		Cell:   cell.ToArray(),
		Detail: detail,
	})
}
