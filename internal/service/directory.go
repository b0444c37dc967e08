package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/RPwnage/EA-Software-sub002/internal/errs"
	"github.com/RPwnage/EA-Software-sub002/internal/model"
	"github.com/RPwnage/EA-Software-sub002/internal/store"
	"github.com/RPwnage/EA-Software-sub002/pkg/constants"
	"github.com/RPwnage/EA-Software-sub002/pkg/nested"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Directory is the mock multiplayer session directory. Every public
// operation runs under one mutex: a single inbound call reads and mutates
// several maps and must stay atomic with respect to other calls.
type Directory struct {
	mu      sync.Mutex
	store   *store.Store
	metrics *Metrics
	events  *EventHub
	log     *zap.Logger
	verbose bool
	now     func() time.Time
}

// NewDirectory creates the directory service. events may be nil when no
// harness subscribers are expected.
func NewDirectory(st *store.Store, metrics *Metrics, events *EventHub, log *zap.Logger, verbose bool) *Directory {
	return &Directory{
		store:   st,
		metrics: metrics,
		events:  events,
		log:     log,
		verbose: verbose,
		now:     time.Now,
	}
}

// recoverOperation is the never-crash boundary: a panic inside an operation
// is logged and surfaces as ErrInternal instead of taking the mock down.
func (d *Directory) recoverOperation(op string, err *error) {
	if r := recover(); r != nil {
		d.log.Error("operation panicked",
			zap.String("operation", op), zap.Any("panic", r))
		*err = errs.ErrInternal
	}
}

// GetTemplate returns the fixed session-template body. The mock treats every
// template name as known.
func (d *Directory) GetTemplate(templateName string) *model.TemplateResponse {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.metrics.operation(d.store)
	if d.verbose {
		d.log.Debug("template requested", zap.String("templateName", templateName))
	}
	return &model.TemplateResponse{Fixed: map[string]any{}, ContractVersion: constants.ContractVersion}
}

// GetSession looks a session up by name, matchmaking map first, normalizes
// time-driven arbitration state, and returns the caller's filtered view.
func (d *Directory) GetSession(name string, caller model.Caller) (resp *model.Session, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	defer d.recoverOperation("GetSession", &err)
	d.metrics.operation(d.store)

	sess, ok := d.store.GetSession(name)
	if !ok {
		return nil, fmt.Errorf("session %q: %w", name, errs.ErrNotFound)
	}
	d.normalizeArbitration(sess)
	return filterForCaller(sess, caller)
}

// GetSessionsForUser returns the user's tournament team-session list.
func (d *Directory) GetSessionsForUser(xuid string) (resp *model.UserSessionsResponse, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	defer d.recoverOperation("GetSessionsForUser", &err)
	d.metrics.operation(d.store)

	refs, ok := d.store.TeamSessionsForUser(xuid)
	if !ok {
		return nil, fmt.Errorf("no team sessions for %s: %w", xuid, errs.ErrNotFound)
	}
	return &model.UserSessionsResponse{Results: refs}, nil
}

// PutSession is the central create-or-update operation. A single call may
// combine an update with a join or a leave; create and leave are mutually
// exclusive. With commit false the same validation runs and the same response
// shape comes back, but nothing is persisted and no metrics move.
func (d *Directory) PutSession(ref model.SessionRef, caller model.Caller, req *model.PutSessionRequest, commit bool) (resp *model.Session, created bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	defer d.recoverOperation("PutSession", &err)
	if commit {
		d.metrics.operation(d.store)
	}

	name := ref.Name
	sess, exists := d.store.GetSession(name)
	isLeave := req.HasLeaveMarker()

	// Redundant call: nothing to apply.
	if req.Constants == nil && !req.HasPropertyUpdate() && !req.HasServerUpdate() && len(req.Members) == 0 {
		if !exists {
			return nil, false, nil
		}
		d.normalizeArbitration(sess)
		resp, err = filterForCaller(sess, caller)
		return resp, false, err
	}

	// A bare property/server update racing a deleted session is tolerated
	// rather than failed; only identity-based callers hit this path, since
	// on-behalf-of and certificate callers carry create semantics.
	if !exists && !isLeave && len(req.Members) == 0 && req.Constants == nil &&
		caller.BearerXuid != "" && len(caller.OnBehalfOf) == 0 {
		if d.verbose {
			d.log.Debug("update for unknown session ignored", zap.String("sessionName", name))
		}
		return nil, false, nil
	}

	if isLeave {
		var deleted bool
		deleted, err = d.leaveMembers(ref, sess, exists, caller, req, commit)
		if err != nil || deleted || !exists {
			return nil, false, err
		}
		// The session survived the leave; property and server updates in
		// the same body still apply below.
	} else {
		if !exists {
			return d.createSession(ref, caller, req, commit)
		}
		if len(req.Members) > 0 {
			if !sess.IsTeamSession() {
				if err = d.checkJoinRestrictions(sess, req.Members, caller); err != nil {
					return nil, false, err
				}
			}
			if err = d.addMembers(sess, ref, req.Members, caller, commit); err != nil {
				return nil, false, err
			}
		}
	}

	if commit && req.HasPropertyUpdate() {
		if sess.Properties == nil {
			sess.Properties = &model.SessionProperties{}
		}
		sess.Properties.System = nested.MergeBag(sess.Properties.System, req.Properties.System)
	}

	if err = d.applyMemberUpdates(sess, req.Members, caller, commit); err != nil {
		return nil, false, err
	}

	if commit && req.HasServerUpdate() {
		mergeServerProperties(sess, req.Servers)
	}

	if commit {
		d.fixupPrivateVisibility(sess)
	}
	d.normalizeArbitration(sess)
	resp, err = filterForCaller(sess, caller)
	return resp, false, err
}

// createSession instantiates a session from the request body, defaults
// missing constants, validates tournament scheduling, and seeds the initial
// member set.
func (d *Directory) createSession(ref model.SessionRef, caller model.Caller, req *model.PutSessionRequest, commit bool) (resp *model.Session, created bool, err error) {
	candidate := d.buildSession(req)

	// Team sessions are exempt from the external id requirement. A caller
	// that cannot satisfy create requirements is assumed to be racing a
	// session torn down upstream; respond success with an empty body.
	if !caller.HasIdentity() || (req.ExternalSessionID() == "" && !candidate.IsTeamSession()) {
		d.log.Warn("create requirements unmet, responding empty",
			zap.String("sessionName", ref.Name),
			zap.Bool("hasIdentity", caller.HasIdentity()))
		return nil, false, nil
	}

	if candidate.IsTournamentGameSession() {
		if err = d.validateTournamentStartTime(candidate); err != nil {
			return nil, false, err
		}
	}
	d.normalizeArbitration(candidate)

	if err = d.addMembers(candidate, ref, req.Members, caller, commit); err != nil {
		return nil, false, err
	}
	d.fixupPrivateVisibility(candidate)

	if commit {
		d.store.PutSession(ref.Name, candidate)
		d.metrics.sessionsCreated++
		d.events.Publish(Event{Event: EventSessionCreated, SessionName: ref.Name})
		if d.verbose {
			d.log.Debug("session created",
				zap.String("sessionName", ref.Name),
				zap.String("correlationId", candidate.CorrelationID),
				zap.Int("members", len(candidate.Members)))
		}
	}
	resp, err = filterForCaller(candidate, caller)
	return resp, true, err
}

// buildSession turns a create body into a stored record with defaults for
// any missing constants.
func (d *Directory) buildSession(req *model.PutSessionRequest) *model.Session {
	sess := &model.Session{
		CorrelationID: req.CorrelationID,
		Constants:     req.Constants,
		Properties:    req.Properties,
		Servers:       req.Servers,
		Members:       make(map[string]*model.Member),
	}
	if sess.CorrelationID == "" {
		sess.CorrelationID = uuid.NewString()
	}
	if sess.Constants == nil {
		sess.Constants = &model.SessionConstants{}
	}
	if sess.Constants.System == nil {
		sess.Constants.System = &model.SystemConstants{}
	}
	if sess.Constants.System.MaxMembersCount == 0 {
		sess.Constants.System.MaxMembersCount = constants.DefaultMaxMembersCount
	}
	if sess.Constants.System.Capabilities == nil {
		sess.Constants.System.Capabilities = &model.Capabilities{}
	}
	if sess.Properties == nil {
		sess.Properties = &model.SessionProperties{}
	}
	return sess
}

// leaveMembers processes the membership half of a leave call: every member
// entry in the request is treated as leaving. Unknown members are idempotent
// no-ops; a session left empty is deleted, reported through the return value
// so the caller skips the update steps.
func (d *Directory) leaveMembers(ref model.SessionRef, sess *model.Session, exists bool, caller model.Caller, req *model.PutSessionRequest, commit bool) (bool, error) {
	if !caller.HasIdentity() {
		return false, fmt.Errorf("leave requires bearer identity: %w", errs.ErrUnauthorized)
	}
	if !exists {
		return false, nil
	}
	for _, key := range sortedKeys(req.Members) {
		storageKey, member, ok, err := d.findLeavingMember(sess, key, caller)
		if err != nil {
			return false, err
		}
		if !ok {
			if commit {
				d.metrics.idempotentLeaves++
			}
			if d.verbose {
				d.log.Debug("leave for non-member ignored",
					zap.String("sessionName", ref.Name), zap.String("memberKey", key))
			}
			continue
		}
		if !commit {
			continue
		}
		xuid := member.Xuid()
		d.clearActivityOnLeave(ref.Name, xuid, sess)
		if sess.IsTeamSession() {
			d.store.RemoveTeamSession(xuid, ref.Name)
		}
		delete(sess.Members, storageKey)
		d.metrics.membersLeft++
		d.events.Publish(Event{Event: EventMemberLeft, SessionName: ref.Name, Xuid: xuid})
	}
	if commit && len(sess.Members) == 0 {
		d.store.DeleteSession(ref.Name)
		d.metrics.sessionsDeleted++
		d.events.Publish(Event{Event: EventSessionDeleted, SessionName: ref.Name})
		return true, nil
	}
	return false, nil
}

// findLeavingMember locates the stored member a leave entry addresses: "me"
// through the caller's identity, other keys by map key first and stamped
// xuid second.
func (d *Directory) findLeavingMember(sess *model.Session, key string, caller model.Caller) (string, *model.Member, bool, error) {
	if key == model.MemberKeyMe {
		xuid, err := resolveIdentity(key, nil, caller)
		if err != nil {
			return "", nil, false, err
		}
		k, m, ok := sess.MemberByXuid(xuid)
		return k, m, ok, nil
	}
	if m, ok := sess.Members[key]; ok {
		return key, m, true, nil
	}
	k, m, ok := sess.MemberByXuid(key)
	return k, m, ok, nil
}

// fixupPrivateVisibility forces joinRestriction to none on private sessions,
// tolerating the mismatch instead of rejecting it.
func (d *Directory) fixupPrivateVisibility(sess *model.Session) {
	if sess.Visibility() != model.VisibilityPrivate {
		return
	}
	if sess.Properties == nil {
		sess.Properties = &model.SessionProperties{}
	}
	sess.Properties.SetJoinRestriction(model.JoinRestrictionNone)
}

// ReportSummary logs the aggregate counters; wired to the periodic reporting
// job.
func (d *Directory) ReportSummary() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.metrics.summary(d.store)
}
