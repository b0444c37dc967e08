package model

import (
	"encoding/json"
	"strings"

	"github.com/RPwnage/EA-Software-sub002/pkg/nested"
)

// Member-level derived arbitration status values.
const (
	MemberArbitrationJoining  = "joining"
	MemberArbitrationPlaying  = "playing"
	MemberArbitrationComplete = "complete"
)

// Request member keys: "me" resolves against the caller's identity,
// "reserve_<token>" entries carry their own xuid.
const (
	MemberKeyMe         = "me"
	MemberReservePrefix = "reserve_"
)

// InvalidXuid is the "no identity" sentinel; never accepted as a resolved
// identity.
const InvalidXuid = "0"

// IsReserveKey reports whether a request member key is a reservation.
func IsReserveKey(key string) bool {
	return strings.HasPrefix(key, MemberReservePrefix)
}

// MemberSystemConstants carry the resolved identity stamped at join time.
type MemberSystemConstants struct {
	Xuid string `json:"xuid,omitempty"`
	Team string `json:"team,omitempty"`
}

// MemberConstants are immutable per member.
type MemberConstants struct {
	System *MemberSystemConstants `json:"system,omitempty"`
}

// Well-known keys inside a member's property bag.
const (
	MemberPropActive      = "active"
	MemberPropGroups      = "groups"
	MemberPropArbitration = "arbitration"
)

// MemberProperties is the mutable per-member bag; arbitration and groups live
// under system alongside verbatim-copied keys.
type MemberProperties struct {
	System map[string]json.RawMessage `json:"system,omitempty"`
}

// Member is one stored session member.
type Member struct {
	Constants         *MemberConstants  `json:"constants,omitempty"`
	Properties        *MemberProperties `json:"properties,omitempty"`
	ArbitrationStatus string            `json:"arbitrationStatus,omitempty"`
}

// Xuid returns the stamped identity, or "" before stamping.
func (m *Member) Xuid() string {
	if m == nil || m.Constants == nil || m.Constants.System == nil {
		return ""
	}
	return m.Constants.System.Xuid
}

// IsActive reports properties.system.active.
func (m *Member) IsActive() bool {
	if m == nil || m.Properties == nil {
		return false
	}
	return nested.BoolBag(m.Properties.System, MemberPropActive)
}

// HasArbitrationResults reports whether properties.system.arbitration.results
// is present, which completes the member's arbitration.
func (m *Member) HasArbitrationResults() bool {
	if m == nil || m.Properties == nil {
		return false
	}
	return nested.HasBag(m.Properties.System, MemberPropArbitration, "results")
}

// MemberRequest is a request-side member entry. A JSON null entry decodes to
// a nil *MemberRequest in the request map, which is the leave marker.
type MemberRequest struct {
	Constants  *MemberConstants  `json:"constants,omitempty"`
	Properties *MemberProperties `json:"properties,omitempty"`
}

// ReservedXuid returns constants.system.xuid supplied inline on a
// reservation entry.
func (r *MemberRequest) ReservedXuid() string {
	if r == nil || r.Constants == nil || r.Constants.System == nil {
		return ""
	}
	return r.Constants.System.Xuid
}

// Groups returns the raw properties.system.groups value, if supplied.
func (r *MemberRequest) Groups() (json.RawMessage, bool) {
	if r == nil || r.Properties == nil {
		return nil, false
	}
	return nested.LookupBag(r.Properties.System, MemberPropGroups)
}

// ArbitrationUpdate returns the raw properties.system.arbitration value, if
// supplied.
func (r *MemberRequest) ArbitrationUpdate() (json.RawMessage, bool) {
	if r == nil || r.Properties == nil {
		return nil, false
	}
	return nested.LookupBag(r.Properties.System, MemberPropArbitration)
}
