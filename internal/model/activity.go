package model

// SessionRef points at a session by name, optionally scoped by scid and
// template.
type SessionRef struct {
	Scid         string `json:"scid,omitempty"`
	TemplateName string `json:"templateName,omitempty"`
	Name         string `json:"name"`
}

// ActivityResult is one entry in a user's activity handle. The directory
// keeps at most one per user; the list shape matches the wire format.
type ActivityResult struct {
	ID         string     `json:"id"`
	SessionRef SessionRef `json:"sessionRef"`
}

// ActivityHandle is a user's primary-activity record.
type ActivityHandle struct {
	Results []ActivityResult `json:"results"`
}

// Clone returns a copy with its own results slice, for responses serialized
// outside the directory lock.
func (h *ActivityHandle) Clone() *ActivityHandle {
	if h == nil {
		return nil
	}
	out := &ActivityHandle{Results: make([]ActivityResult, len(h.Results))}
	copy(out.Results, h.Results)
	return out
}

// TeamSessionRef is one entry in a user's tournament team-session list.
type TeamSessionRef struct {
	SessionRef SessionRef `json:"sessionRef"`
}

// SetActivityRequest is the body of POST /handles.
type SetActivityRequest struct {
	Type       string     `json:"type,omitempty"`
	SessionRef SessionRef `json:"sessionRef"`
}

// SetActivityResponse echoes the derived handle id.
type SetActivityResponse struct {
	ID string `json:"id"`
}

// ActivityQueryOwners scopes an activity query to a xuid list.
type ActivityQueryOwners struct {
	Xuids []string `json:"xuids"`
}

// ActivityQueryRequest is the body of POST /handles/query. The mock supports
// exactly one owner xuid per call.
type ActivityQueryRequest struct {
	Type   string              `json:"type,omitempty"`
	Owners ActivityQueryOwners `json:"owners"`
}

// TemplateResponse is the fixed session-template body.
type TemplateResponse struct {
	Fixed           map[string]any `json:"fixed"`
	ContractVersion int            `json:"contractVersion"`
}

// UserSessionsResponse lists a user's tournament team sessions.
type UserSessionsResponse struct {
	Results []TeamSessionRef `json:"results"`
}
