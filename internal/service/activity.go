package service

import (
	"fmt"

	"github.com/RPwnage/EA-Software-sub002/internal/errs"
	"github.com/RPwnage/EA-Software-sub002/internal/model"
	"github.com/RPwnage/EA-Software-sub002/pkg/constants"
	"go.uber.org/zap"
)

// handleIDForSession derives the deterministic activity handle id from a
// session name: its trailing characters up to the handle id length cap.
func handleIDForSession(sessionName string) string {
	if len(sessionName) <= constants.MaxActivityHandleIDLen {
		return sessionName
	}
	return sessionName[len(sessionName)-constants.MaxActivityHandleIDLen:]
}

// SetActivity records the caller's primary activity handle for the
// referenced session, overwriting any previous handle.
func (d *Directory) SetActivity(caller model.Caller, req *model.SetActivityRequest) (resp *model.SetActivityResponse, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	defer d.recoverOperation("SetActivity", &err)
	d.metrics.operation(d.store)

	sess, ok := d.store.GetSession(req.SessionRef.Name)
	if !ok {
		return nil, fmt.Errorf("session %q: %w", req.SessionRef.Name, errs.ErrNotFound)
	}
	handleID := handleIDForSession(req.SessionRef.Name)
	if sess.ExternalSessionType().IsMatchmaking() {
		// Activity tracking only applies to game and group sessions.
		if d.verbose {
			d.log.Debug("ignoring activity for matchmaking session",
				zap.String("sessionName", req.SessionRef.Name))
		}
		return &model.SetActivityResponse{ID: handleID}, nil
	}

	xuid, err := resolveIdentity(model.MemberKeyMe, nil, caller)
	if err != nil {
		return nil, err
	}
	if _, _, ok := sess.MemberByXuid(xuid); !ok {
		return nil, fmt.Errorf("caller %s is not a member of %q: %w", xuid, req.SessionRef.Name, errs.ErrForbidden)
	}

	d.store.SetActivity(xuid, &model.ActivityHandle{
		Results: []model.ActivityResult{{
			ID:         handleID,
			SessionRef: req.SessionRef,
		}},
	})
	d.metrics.activitiesSet++
	d.events.Publish(Event{Event: EventActivitySet, SessionName: req.SessionRef.Name, Xuid: xuid})
	return &model.SetActivityResponse{ID: handleID}, nil
}

// GetActivity returns the stored activity handle for exactly one xuid, or an
// empty results placeholder when none is recorded.
func (d *Directory) GetActivity(req *model.ActivityQueryRequest) (resp *model.ActivityHandle, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	defer d.recoverOperation("GetActivity", &err)
	d.metrics.operation(d.store)

	if len(req.Owners.Xuids) != 1 {
		return nil, fmt.Errorf("activity query requires exactly one xuid, got %d: %w",
			len(req.Owners.Xuids), errs.ErrBadRequest)
	}
	if h, ok := d.store.Activity(req.Owners.Xuids[0]); ok {
		return h.Clone(), nil
	}
	return &model.ActivityHandle{Results: []model.ActivityResult{}}, nil
}

// clearActivityOnLeave removes a member's activity handle when they leave the
// session it points at. A handle pointing at a different session stays
// untouched.
func (d *Directory) clearActivityOnLeave(sessionName, xuid string, sess *model.Session) {
	handle, ok := d.store.Activity(xuid)
	if !ok {
		// Expected for private and matchmaking sessions, which never hold
		// the user's primary activity.
		if sess.Visibility() != model.VisibilityPrivate && !sess.ExternalSessionType().IsMatchmaking() {
			d.log.Warn("leaving member has no activity handle",
				zap.String("sessionName", sessionName), zap.String("xuid", xuid))
		}
		return
	}
	target := handleIDForSession(sessionName)
	for _, r := range handle.Results {
		if r.ID == target {
			d.store.ClearActivity(xuid)
			d.metrics.activitiesCleared++
			d.events.Publish(Event{Event: EventActivityCleared, SessionName: sessionName, Xuid: xuid})
			return
		}
	}
	d.log.Info("activity handle belongs to a different session, leaving it",
		zap.String("sessionName", sessionName), zap.String("xuid", xuid))
}
