package service

import (
	"errors"
	"testing"
	"time"

	"github.com/RPwnage/EA-Software-sub002/internal/errs"
	"github.com/RPwnage/EA-Software-sub002/internal/model"
)

func tournamentBody(startTime string) string {
	return `{
		"constants": {
			"system": {"capabilities": {"arbitration": true}},
			"custom": {"externalSessionId": "ext-t"}
		},
		"servers": {
			"tournaments": {"constants": {"system": {"tournamentRef": {"tournamentId": "t-1"}}}},
			"arbitration": {"constants": {"system": {"startTime": "` + startTime + `"}}}
		},
		"members": {"me": {}}
	}`
}

func TestArbitrationWaitingBeforeStart(t *testing.T) {
	d := newTestDirectory(t)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }
	caller := model.Caller{BearerXuid: "1234"}

	sess, _, err := d.PutSession(sessionRef("arb-a"), caller, putBody(t, tournamentBody("2026-01-01T10:00:00Z")), true)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.Arbitration == nil || sess.Arbitration.Status != model.ArbitrationStatusWaiting {
		t.Fatalf("arbitration = %+v, want waiting", sess.Arbitration)
	}
	if got := sess.Members["1234"].ArbitrationStatus; got != model.MemberArbitrationJoining {
		t.Errorf("member status = %q, want joining", got)
	}
}

func TestArbitrationTransitionsAtStartTime(t *testing.T) {
	d := newTestDirectory(t)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }
	caller := model.Caller{BearerXuid: "1234"}

	if _, _, err := d.PutSession(sessionRef("arb-a"), caller, putBody(t, tournamentBody("2026-01-01T10:00:00Z")), true); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Advance past the scheduled start and re-read.
	now = time.Date(2026, 1, 1, 10, 30, 0, 0, time.UTC)
	sess, err := d.GetSession("arb-a", caller)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sess.Arbitration.Status != model.ArbitrationStatusInProgress {
		t.Errorf("status = %q, want inprogress", sess.Arbitration.Status)
	}
	if got := sess.Members["1234"].ArbitrationStatus; got != model.MemberArbitrationPlaying {
		t.Errorf("member status = %q, want playing", got)
	}
}

func TestArbitrationBackdatedStartTimeNormalized(t *testing.T) {
	d := newTestDirectory(t)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }
	caller := model.Caller{BearerXuid: "1234"}

	sess, _, err := d.PutSession(sessionRef("arb-a"), caller, putBody(t, tournamentBody("2020-06-01T00:00:00Z")), true)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	stored, ok := sess.ArbitrationStartTime()
	if !ok {
		t.Fatal("start time missing after create")
	}
	if stored != "2026-01-01T09:00:00Z" {
		t.Errorf("stored start time = %q, want creation time", stored)
	}
}

func TestArbitrationMissingStartTimeRejected(t *testing.T) {
	d := newTestDirectory(t)
	caller := model.Caller{BearerXuid: "1234"}

	body := `{
		"constants": {
			"system": {"capabilities": {"arbitration": true}},
			"custom": {"externalSessionId": "ext-t"}
		},
		"servers": {
			"tournaments": {"constants": {"system": {"tournamentRef": {"tournamentId": "t-1"}}}}
		},
		"members": {"me": {}}
	}`
	_, _, err := d.PutSession(sessionRef("arb-a"), caller, putBody(t, body), true)
	if !errors.Is(err, errs.ErrBadRequest) {
		t.Errorf("err = %v, want ErrBadRequest", err)
	}
}

func TestArbitrationUnparseableStartTimeRejected(t *testing.T) {
	d := newTestDirectory(t)
	caller := model.Caller{BearerXuid: "1234"}

	_, _, err := d.PutSession(sessionRef("arb-a"), caller, putBody(t, tournamentBody("not-a-time")), true)
	if !errors.Is(err, errs.ErrBadRequest) {
		t.Errorf("err = %v, want ErrBadRequest", err)
	}
}

func TestArbitrationCompleteNeverRegresses(t *testing.T) {
	d := newTestDirectory(t)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }
	caller := model.Caller{BearerXuid: "1234"}

	if _, _, err := d.PutSession(sessionRef("arb-a"), caller, putBody(t, tournamentBody("2026-01-01T10:00:00Z")), true); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Report results: the member and session complete.
	results := `{"members": {"me": {"properties": {"system": {"arbitration": {"results": {"1234": {"outcome": "win"}}}}}}}}`
	sess, _, err := d.PutSession(sessionRef("arb-a"), caller, putBody(t, results), true)
	if err != nil {
		t.Fatalf("results update: %v", err)
	}
	if sess.Arbitration.Status != model.ArbitrationStatusComplete {
		t.Fatalf("status = %q, want complete", sess.Arbitration.Status)
	}
	if got := sess.Members["1234"].ArbitrationStatus; got != model.MemberArbitrationComplete {
		t.Errorf("member status = %q, want complete", got)
	}
	if sess.Servers.Arbitration.Properties == nil {
		t.Error("expected synthesized arbitration properties block")
	}

	// Crossing the start time afterwards must not reopen the match.
	now = time.Date(2026, 1, 1, 11, 0, 0, 0, time.UTC)
	sess, err = d.GetSession("arb-a", caller)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sess.Arbitration.Status != model.ArbitrationStatusComplete {
		t.Errorf("status regressed to %q", sess.Arbitration.Status)
	}
	if got := sess.Members["1234"].ArbitrationStatus; got != model.MemberArbitrationComplete {
		t.Errorf("member status regressed to %q", got)
	}
}

func TestNonTournamentSessionHasNoArbitration(t *testing.T) {
	d := newTestDirectory(t)
	caller := model.Caller{BearerXuid: "1234"}
	if _, _, err := d.PutSession(sessionRef("plain"), caller, putBody(t, createBody), true); err != nil {
		t.Fatalf("create: %v", err)
	}
	sess, err := d.GetSession("plain", caller)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sess.Arbitration != nil {
		t.Errorf("unexpected arbitration state %+v", sess.Arbitration)
	}
}
