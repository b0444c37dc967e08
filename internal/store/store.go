// Package store holds the in-memory state of the mock session directory:
// the game and matchmaking session maps, per-user tournament team lists, and
// the per-user activity registry. The store does no locking of its own; the
// directory service serializes whole operations.
package store

import "github.com/RPwnage/EA-Software-sub002/internal/model"

// Store is the directory's backing state.
type Store struct {
	game        map[string]*model.Session
	matchmaking map[string]*model.Session
	teams       map[string][]model.TeamSessionRef
	activities  map[string]*model.ActivityHandle
}

// New returns an empty store.
func New() *Store {
	return &Store{
		game:        make(map[string]*model.Session),
		matchmaking: make(map[string]*model.Session),
		teams:       make(map[string][]model.TeamSessionRef),
		activities:  make(map[string]*model.ActivityHandle),
	}
}

// GetSession searches the matchmaking map first, then the game map.
func (s *Store) GetSession(name string) (*model.Session, bool) {
	if sess, ok := s.matchmaking[name]; ok {
		return sess, true
	}
	sess, ok := s.game[name]
	return sess, ok
}

// PutSession stores a session in the map selected by its external session
// type. A session lives in exactly one of the two maps.
func (s *Store) PutSession(name string, sess *model.Session) {
	if sess.ExternalSessionType().IsMatchmaking() {
		s.matchmaking[name] = sess
		return
	}
	s.game[name] = sess
}

// DeleteSession removes a session from whichever map holds it.
func (s *Store) DeleteSession(name string) {
	delete(s.matchmaking, name)
	delete(s.game, name)
}

// SessionCount returns the total number of stored sessions.
func (s *Store) SessionCount() int {
	return len(s.game) + len(s.matchmaking)
}

// MemberCount returns the total number of members across all sessions.
func (s *Store) MemberCount() int {
	n := 0
	for _, sess := range s.game {
		n += len(sess.Members)
	}
	for _, sess := range s.matchmaking {
		n += len(sess.Members)
	}
	return n
}

// TeamSessionsForUser returns a copy of the user's tournament team-session
// list. The stored slice is filtered in place on removal, so callers that
// serialize outside the directory lock get their own backing array.
func (s *Store) TeamSessionsForUser(xuid string) ([]model.TeamSessionRef, bool) {
	refs, ok := s.teams[xuid]
	if !ok {
		return nil, false
	}
	out := make([]model.TeamSessionRef, len(refs))
	copy(out, refs)
	return out, true
}

// AddTeamSession appends a team-session reference for the user.
func (s *Store) AddTeamSession(xuid string, ref model.TeamSessionRef) {
	s.teams[xuid] = append(s.teams[xuid], ref)
}

// RemoveTeamSession drops the user's references to the named session.
func (s *Store) RemoveTeamSession(xuid, sessionName string) {
	refs, ok := s.teams[xuid]
	if !ok {
		return
	}
	kept := refs[:0]
	for _, r := range refs {
		if r.SessionRef.Name != sessionName {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		delete(s.teams, xuid)
		return
	}
	s.teams[xuid] = kept
}

// Activity returns the user's activity handle.
func (s *Store) Activity(xuid string) (*model.ActivityHandle, bool) {
	h, ok := s.activities[xuid]
	return h, ok
}

// SetActivity overwrites the user's activity handle.
func (s *Store) SetActivity(xuid string, h *model.ActivityHandle) {
	s.activities[xuid] = h
}

// ClearActivity removes the user's activity handle.
func (s *Store) ClearActivity(xuid string) {
	delete(s.activities, xuid)
}
