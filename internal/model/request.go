package model

// PutSessionRequest is the decoded body of a session PUT. Members is a map of
// request keys to entries; a JSON null entry survives decoding as a nil value,
// so "present but null" (a leave marker) stays distinct from "absent".
type PutSessionRequest struct {
	CorrelationID string                    `json:"correlationId,omitempty"`
	Constants     *SessionConstants         `json:"constants,omitempty"`
	Properties    *SessionProperties        `json:"properties,omitempty"`
	Servers       *Servers                  `json:"servers,omitempty"`
	Members       map[string]*MemberRequest `json:"members,omitempty"`
}

// HasLeaveMarker reports whether any member entry is a null marker. If so,
// the whole call is treated as a leave.
func (r *PutSessionRequest) HasLeaveMarker() bool {
	for _, m := range r.Members {
		if m == nil {
			return true
		}
	}
	return false
}

// HasPropertyUpdate reports whether the body carries session property keys.
func (r *PutSessionRequest) HasPropertyUpdate() bool {
	return !r.Properties.IsEmpty()
}

// HasServerUpdate reports whether the body carries server block data.
func (r *PutSessionRequest) HasServerUpdate() bool {
	return !r.Servers.IsEmpty()
}

// ExternalSessionID returns constants.custom.externalSessionId, required on
// create for non-team sessions.
func (r *PutSessionRequest) ExternalSessionID() string {
	if r.Constants == nil || r.Constants.Custom == nil {
		return ""
	}
	return r.Constants.Custom.ExternalSessionID
}

// Caller is the identity context extracted from request headers by the
// transport layer.
type Caller struct {
	// BearerXuid is the bearer-token identity; empty for certificate-only
	// callers.
	BearerXuid string
	// OnBehalfOf lists delegated xuids, in header order.
	OnBehalfOf []string
	// DenyManageScope marks a non-privileged caller subject to join
	// restriction checks.
	DenyManageScope bool
}

// HasIdentity reports whether the caller proved any bearer-token identity.
func (c Caller) HasIdentity() bool {
	return c.BearerXuid != "" || len(c.OnBehalfOf) > 0
}
