package model

import (
	"encoding/json"

	"github.com/RPwnage/EA-Software-sub002/pkg/nested"
)

// ExternalSessionType selects which directory map a session lives in.
type ExternalSessionType int

const (
	ExternalSessionTypeGame                ExternalSessionType = 1
	ExternalSessionTypeMatchmakingSession  ExternalSessionType = 2
	ExternalSessionTypeGameGroup           ExternalSessionType = 3
	ExternalSessionTypeMatchmakingScenario ExternalSessionType = 4
)

// IsMatchmaking reports whether sessions of this type belong to the
// matchmaking map rather than the game map.
func (t ExternalSessionType) IsMatchmaking() bool {
	return t == ExternalSessionTypeMatchmakingSession || t == ExternalSessionTypeMatchmakingScenario
}

const (
	VisibilityVisible = "visible"
	VisibilityPrivate = "private"

	JoinRestrictionNone     = "none"
	JoinRestrictionLocal    = "local"
	JoinRestrictionFollowed = "followed"
)

// Session-level arbitration status values.
const (
	ArbitrationStatusWaiting    = "waiting"
	ArbitrationStatusInProgress = "inprogress"
	ArbitrationStatusComplete   = "complete"
)

// Capabilities are the session capability flags the mock models.
type Capabilities struct {
	Large       bool `json:"large"`
	Crossplay   bool `json:"crossplay"`
	Arbitration bool `json:"arbitration,omitempty"`
	Team        bool `json:"team,omitempty"`
}

// SystemConstants is the system half of a session's immutable configuration.
type SystemConstants struct {
	Visibility      string        `json:"visibility,omitempty"`
	MaxMembersCount int           `json:"maxMembersCount,omitempty"`
	Capabilities    *Capabilities `json:"capabilities,omitempty"`
}

// CustomConstants carries the external session identity supplied at create.
type CustomConstants struct {
	ExternalSessionID   string              `json:"externalSessionId,omitempty"`
	ExternalSessionType ExternalSessionType `json:"externalSessionType,omitempty"`
}

// SessionConstants are immutable after create.
type SessionConstants struct {
	System *SystemConstants `json:"system,omitempty"`
	Custom *CustomConstants `json:"custom,omitempty"`
}

// Well-known keys in the session property bag. Everything else under
// properties.system is copied verbatim.
const (
	PropJoinRestriction = "joinRestriction"
	PropClosed          = "closed"
)

// SessionProperties is the mutable property bag. Keys under system are merged
// per-key on update, with no deep merge.
type SessionProperties struct {
	System map[string]json.RawMessage `json:"system,omitempty"`
}

// JoinRestriction returns the current join restriction, or "" if unset.
func (p *SessionProperties) JoinRestriction() string {
	if p == nil {
		return ""
	}
	s, _ := nested.StringBag(p.System, PropJoinRestriction)
	return s
}

// SetJoinRestriction overwrites the join restriction key.
func (p *SessionProperties) SetJoinRestriction(v string) {
	raw, _ := json.Marshal(v)
	p.System = nested.MergeBag(p.System, map[string]json.RawMessage{PropJoinRestriction: raw})
}

// Closed reports whether the session is closed to new joins.
func (p *SessionProperties) Closed() bool {
	if p == nil {
		return false
	}
	return nested.BoolBag(p.System, PropClosed)
}

// IsEmpty reports whether the bag carries no system keys.
func (p *SessionProperties) IsEmpty() bool {
	return p == nil || len(p.System) == 0
}

// ServerAttr is one constants/properties block inside a servers entry.
type ServerAttr struct {
	System map[string]json.RawMessage `json:"system,omitempty"`
}

// ServerBlock is a named entry under servers (tournaments, arbitration).
type ServerBlock struct {
	Constants  *ServerAttr `json:"constants,omitempty"`
	Properties *ServerAttr `json:"properties,omitempty"`
}

// Servers is the nested server bag: tournament and arbitration blocks are
// created and merged independently.
type Servers struct {
	Tournaments *ServerBlock `json:"tournaments,omitempty"`
	Arbitration *ServerBlock `json:"arbitration,omitempty"`
}

// IsEmpty reports whether no server block carries data.
func (s *Servers) IsEmpty() bool {
	if s == nil {
		return true
	}
	return blockEmpty(s.Tournaments) && blockEmpty(s.Arbitration)
}

func blockEmpty(b *ServerBlock) bool {
	if b == nil {
		return true
	}
	return (b.Constants == nil || len(b.Constants.System) == 0) &&
		(b.Properties == nil || len(b.Properties.System) == 0)
}

// ArbitrationState is the session-level derived arbitration status.
type ArbitrationState struct {
	Status string `json:"status,omitempty"`
}

// Session is a stored multiplayer session record, keyed by session name in
// one of the directory maps.
type Session struct {
	CorrelationID string             `json:"correlationId,omitempty"`
	Constants     *SessionConstants  `json:"constants,omitempty"`
	Properties    *SessionProperties `json:"properties,omitempty"`
	Servers       *Servers           `json:"servers,omitempty"`
	Members       map[string]*Member `json:"members,omitempty"`
	Arbitration   *ArbitrationState  `json:"arbitration,omitempty"`
}

// Visibility returns constants.system.visibility, or "" if unset.
func (s *Session) Visibility() string {
	if s.Constants == nil || s.Constants.System == nil {
		return ""
	}
	return s.Constants.System.Visibility
}

// ExternalSessionType returns constants.custom.externalSessionType, defaulting
// to the game type when unset.
func (s *Session) ExternalSessionType() ExternalSessionType {
	if s.Constants == nil || s.Constants.Custom == nil || s.Constants.Custom.ExternalSessionType == 0 {
		return ExternalSessionTypeGame
	}
	return s.Constants.Custom.ExternalSessionType
}

func (s *Session) capabilities() *Capabilities {
	if s.Constants == nil || s.Constants.System == nil {
		return nil
	}
	return s.Constants.System.Capabilities
}

// IsLarge reports the large-session capability flag.
func (s *Session) IsLarge() bool {
	c := s.capabilities()
	return c != nil && c.Large
}

// TournamentID returns servers.tournaments.constants.system.tournamentRef.tournamentId.
func (s *Session) TournamentID() (string, bool) {
	if s.Servers == nil || s.Servers.Tournaments == nil || s.Servers.Tournaments.Constants == nil {
		return "", false
	}
	return nested.StringBag(s.Servers.Tournaments.Constants.System, "tournamentRef", "tournamentId")
}

// IsTournamentGameSession reports whether arbitration scheduling applies:
// the arbitration capability plus a tournament id.
func (s *Session) IsTournamentGameSession() bool {
	c := s.capabilities()
	if c == nil || !c.Arbitration {
		return false
	}
	_, ok := s.TournamentID()
	return ok
}

// IsTeamSession reports whether this is a tournament team session: the team
// capability plus a tournament id.
func (s *Session) IsTeamSession() bool {
	c := s.capabilities()
	if c == nil || !c.Team {
		return false
	}
	_, ok := s.TournamentID()
	return ok
}

// ArbitrationStartTime returns servers.arbitration.constants.system.startTime.
func (s *Session) ArbitrationStartTime() (string, bool) {
	if s.Servers == nil || s.Servers.Arbitration == nil || s.Servers.Arbitration.Constants == nil {
		return "", false
	}
	return nested.StringBag(s.Servers.Arbitration.Constants.System, "startTime")
}

// SetArbitrationStartTime overwrites the stored start time, creating the
// arbitration constants block if needed.
func (s *Session) SetArbitrationStartTime(iso string) {
	raw, _ := json.Marshal(iso)
	if s.Servers == nil {
		s.Servers = &Servers{}
	}
	if s.Servers.Arbitration == nil {
		s.Servers.Arbitration = &ServerBlock{}
	}
	if s.Servers.Arbitration.Constants == nil {
		s.Servers.Arbitration.Constants = &ServerAttr{}
	}
	s.Servers.Arbitration.Constants.System = nested.MergeBag(s.Servers.Arbitration.Constants.System, map[string]json.RawMessage{"startTime": raw})
}

// MemberByXuid returns the member record carrying the given resolved xuid.
// Members joined via reservation keep their reserve_* map key, so lookup goes
// through the stamped constant rather than the map key.
func (s *Session) MemberByXuid(xuid string) (string, *Member, bool) {
	for key, m := range s.Members {
		if m.Xuid() == xuid {
			return key, m, true
		}
	}
	return "", nil, false
}

// Clone returns a deep copy via a JSON round trip. Stored records are mutated
// in place under the directory lock, and responses are serialized after the
// lock is released, so every read path hands out a clone rather than the
// stored record.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	cp := &Session{}
	if err := json.Unmarshal(raw, cp); err != nil {
		return nil
	}
	return cp
}
