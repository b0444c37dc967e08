package service

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/RPwnage/EA-Software-sub002/internal/errs"
	"github.com/RPwnage/EA-Software-sub002/internal/model"
	"github.com/RPwnage/EA-Software-sub002/pkg/nested"
	"go.uber.org/zap"
)

// resolveIdentity maps a request member key to a resolved xuid. "me" resolves
// against the caller's bearer identity or the first on-behalf-of entry;
// reservation entries must carry their own xuid inline.
func resolveIdentity(key string, entry *model.MemberRequest, caller model.Caller) (string, error) {
	var xuid string
	switch {
	case key == model.MemberKeyMe:
		if len(caller.OnBehalfOf) > 1 {
			return "", fmt.Errorf("multiple on-behalf-of identities: %w", errs.ErrForbidden)
		}
		if len(caller.OnBehalfOf) == 1 {
			xuid = caller.OnBehalfOf[0]
		} else if caller.BearerXuid != "" {
			xuid = caller.BearerXuid
		} else {
			return "", fmt.Errorf(`"me" member without identity proof: %w`, errs.ErrUnauthorized)
		}
	case model.IsReserveKey(key):
		xuid = entry.ReservedXuid()
		if xuid == "" {
			return "", fmt.Errorf("reservation %q without xuid: %w", key, errs.ErrBadRequest)
		}
	default:
		return "", fmt.Errorf("unsupported member key %q: %w", key, errs.ErrBadRequest)
	}
	if xuid == model.InvalidXuid {
		return "", fmt.Errorf("invalid xuid %q: %w", xuid, errs.ErrBadRequest)
	}
	return xuid, nil
}

// checkJoinRestrictions enforces visibility and join-restriction rules for
// new members. Only non-privileged callers (deny-scope manage) are checked,
// and only identities that are not yet members count.
func (d *Directory) checkJoinRestrictions(sess *model.Session, members map[string]*model.MemberRequest, caller model.Caller) error {
	if !caller.DenyManageScope || len(members) == 0 {
		return nil
	}
	for _, key := range sortedKeys(members) {
		xuid, err := resolveIdentity(key, members[key], caller)
		if err != nil {
			return err
		}
		if _, _, ok := sess.MemberByXuid(xuid); ok {
			continue
		}
		switch sess.Visibility() {
		case model.VisibilityVisible:
			return fmt.Errorf("session is not open: %w", errs.ErrForbidden)
		case model.VisibilityPrivate:
			return fmt.Errorf("session is private: %w", errs.ErrForbidden)
		}
		switch sess.Properties.JoinRestriction() {
		case model.JoinRestrictionLocal:
			return fmt.Errorf("caller is not local to the session: %w", errs.ErrForbidden)
		case model.JoinRestrictionFollowed:
			// Follow relationships are not modeled; log and allow.
			d.log.Warn("followed join restriction not enforceable", zap.String("xuid", xuid))
		}
		if sess.Properties.Closed() {
			return fmt.Errorf("session is closed: %w", errs.ErrForbidden)
		}
	}
	return nil
}

// addMembers resolves and inserts the request's member entries into the
// session. Large sessions admit exactly one "me" entry per call. Already
// joined identities are either a groups update (large sessions) or a counted
// no-op.
func (d *Directory) addMembers(sess *model.Session, ref model.SessionRef, members map[string]*model.MemberRequest, caller model.Caller, commit bool) error {
	if sess.IsLarge() && len(members) > 0 {
		if len(members) > 1 {
			return fmt.Errorf("large session allows one member per call: %w", errs.ErrForbidden)
		}
		if _, ok := members[model.MemberKeyMe]; !ok {
			return fmt.Errorf(`large session members must join as "me": %w`, errs.ErrForbidden)
		}
	}
	for _, key := range sortedKeys(members) {
		entry := members[key]
		xuid, err := resolveIdentity(key, entry, caller)
		if err != nil {
			return err
		}
		if _, existing, ok := sess.MemberByXuid(xuid); ok {
			if groups, has := entry.Groups(); has && sess.IsLarge() {
				if commit {
					updateMemberGroups(existing, groups)
				}
				if d.verbose {
					d.log.Debug("member groups updated",
						zap.String("xuid", xuid), zap.Int("groups", nested.Count(groups)))
				}
				continue
			}
			if !model.IsReserveKey(key) || existing.IsActive() {
				if d.verbose {
					d.log.Debug("ignoring redundant join", zap.String("xuid", xuid))
				}
				if commit {
					d.metrics.redundantJoins++
				}
			}
			continue
		}
		if !commit {
			continue
		}
		member := newMember(xuid, entry)
		storageKey := xuid
		if model.IsReserveKey(key) {
			// Reservation records keep their request key; the map key is
			// only ever set at add time, never renamed.
			storageKey = key
		}
		if sess.Members == nil {
			sess.Members = make(map[string]*model.Member)
		}
		sess.Members[storageKey] = member
		if sess.IsTeamSession() {
			d.store.AddTeamSession(xuid, model.TeamSessionRef{SessionRef: ref})
		}
		d.metrics.membersJoined++
		d.events.Publish(Event{Event: EventMemberJoined, SessionName: ref.Name, Xuid: xuid})
	}
	return nil
}

// newMember builds a stored member from a request entry, stamping the
// resolved identity into constants.
func newMember(xuid string, entry *model.MemberRequest) *model.Member {
	member := &model.Member{
		Constants:         &model.MemberConstants{System: &model.MemberSystemConstants{Xuid: xuid}},
		ArbitrationStatus: model.MemberArbitrationJoining,
	}
	if entry != nil {
		if entry.Constants != nil && entry.Constants.System != nil {
			member.Constants.System.Team = entry.Constants.System.Team
		}
		if entry.Properties != nil && len(entry.Properties.System) > 0 {
			member.Properties = &model.MemberProperties{System: nested.CloneBag(entry.Properties.System)}
		}
	}
	return member
}

func updateMemberGroups(member *model.Member, groups json.RawMessage) {
	if member.Properties == nil {
		member.Properties = &model.MemberProperties{}
	}
	member.Properties.System = nested.MergeBag(member.Properties.System,
		map[string]json.RawMessage{model.MemberPropGroups: groups})
}

// applyMemberUpdates processes per-member arbitration property updates. When
// a member's results become present the session completes: session status,
// member status, and a minimal arbitration server block if absent.
func (d *Directory) applyMemberUpdates(sess *model.Session, members map[string]*model.MemberRequest, caller model.Caller, commit bool) error {
	for _, key := range sortedKeys(members) {
		entry := members[key]
		update, has := entry.ArbitrationUpdate()
		if !has {
			continue
		}
		xuid, err := resolveIdentity(key, entry, caller)
		if err != nil {
			return err
		}
		_, member, ok := sess.MemberByXuid(xuid)
		if !ok {
			d.log.Warn("arbitration update for non-member", zap.String("xuid", xuid))
			continue
		}
		if !commit {
			continue
		}
		if member.Properties == nil {
			member.Properties = &model.MemberProperties{}
		}
		member.Properties.System = nested.MergeBag(member.Properties.System,
			map[string]json.RawMessage{model.MemberPropArbitration: mergeObjects(member.Properties.System[model.MemberPropArbitration], update)})
		if member.HasArbitrationResults() {
			member.ArbitrationStatus = model.MemberArbitrationComplete
			if sess.Arbitration == nil {
				sess.Arbitration = &model.ArbitrationState{}
			}
			sess.Arbitration.Status = model.ArbitrationStatusComplete
			ensureArbitrationProperties(sess)
		}
	}
	return nil
}

// mergeObjects merges two raw JSON objects per key, src winning. A non-object
// src replaces dst wholesale.
func mergeObjects(dst, src json.RawMessage) json.RawMessage {
	var dstObj, srcObj map[string]json.RawMessage
	if err := json.Unmarshal(src, &srcObj); err != nil {
		return src
	}
	if len(dst) > 0 {
		_ = json.Unmarshal(dst, &dstObj)
	}
	merged := nested.MergeBag(nested.CloneBag(dstObj), srcObj)
	raw, err := json.Marshal(merged)
	if err != nil {
		return src
	}
	return raw
}

func ensureArbitrationProperties(sess *model.Session) {
	if sess.Servers == nil {
		sess.Servers = &model.Servers{}
	}
	if sess.Servers.Arbitration == nil {
		sess.Servers.Arbitration = &model.ServerBlock{}
	}
	if sess.Servers.Arbitration.Properties == nil {
		sess.Servers.Arbitration.Properties = &model.ServerAttr{System: map[string]json.RawMessage{}}
	}
}

// mergeServerProperties merges servers.*.properties updates into the stored
// session, creating missing containers top-down and otherwise merging leaf
// system keys.
func mergeServerProperties(sess *model.Session, update *model.Servers) {
	if update == nil {
		return
	}
	if sess.Servers == nil {
		sess.Servers = &model.Servers{}
	}
	sess.Servers.Tournaments = mergeServerBlock(sess.Servers.Tournaments, update.Tournaments)
	sess.Servers.Arbitration = mergeServerBlock(sess.Servers.Arbitration, update.Arbitration)
}

func mergeServerBlock(dst, src *model.ServerBlock) *model.ServerBlock {
	if src == nil || src.Properties == nil || len(src.Properties.System) == 0 {
		return dst
	}
	if dst == nil {
		dst = &model.ServerBlock{}
	}
	if dst.Properties == nil {
		dst.Properties = &model.ServerAttr{}
	}
	dst.Properties.System = nested.MergeBag(dst.Properties.System, src.Properties.System)
	return dst
}

// sortedKeys gives deterministic processing order over a member map.
func sortedKeys(members map[string]*model.MemberRequest) []string {
	keys := make([]string, 0, len(members))
	for k := range members {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
