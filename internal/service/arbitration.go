package service

import (
	"fmt"
	"time"

	"github.com/RPwnage/EA-Software-sub002/internal/errs"
	"github.com/RPwnage/EA-Software-sub002/internal/model"
	"go.uber.org/zap"
)

// normalizeArbitration derives time-dependent tournament state on the read
// path. Only tournament game sessions (arbitration capability plus a
// tournament id) are affected; once past the scheduled start, the session
// moves waiting -> inprogress and joining members move to playing. A
// completed status never regresses.
func (d *Directory) normalizeArbitration(sess *model.Session) {
	if sess == nil || !sess.IsTournamentGameSession() {
		return
	}
	iso, ok := sess.ArbitrationStartTime()
	if !ok {
		d.log.Error("tournament game session has no arbitration start time")
		return
	}
	start, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		d.log.Error("tournament game session has unparseable start time",
			zap.String("startTime", iso), zap.Error(err))
		return
	}
	if sess.Arbitration == nil {
		sess.Arbitration = &model.ArbitrationState{}
	}
	if d.now().Before(start) {
		if sess.Arbitration.Status == "" {
			sess.Arbitration.Status = model.ArbitrationStatusWaiting
		}
		return
	}
	if sess.Arbitration.Status == "" || sess.Arbitration.Status == model.ArbitrationStatusWaiting {
		sess.Arbitration.Status = model.ArbitrationStatusInProgress
	}
	for _, m := range sess.Members {
		if m.ArbitrationStatus == "" || m.ArbitrationStatus == model.MemberArbitrationJoining {
			m.ArbitrationStatus = model.MemberArbitrationPlaying
		}
	}
}

// validateTournamentStartTime checks the start time supplied with a
// tournament game session create. A missing or unparseable time fails the
// create; a backdated time is normalized forward to now before storage.
func (d *Directory) validateTournamentStartTime(sess *model.Session) error {
	iso, ok := sess.ArbitrationStartTime()
	if !ok {
		return fmt.Errorf("tournament game session requires arbitration start time: %w", errs.ErrBadRequest)
	}
	start, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return fmt.Errorf("unparseable arbitration start time %q: %w", iso, errs.ErrBadRequest)
	}
	if now := d.now(); start.Before(now) {
		normalized := now.UTC().Truncate(time.Second).Format(time.RFC3339)
		if d.verbose {
			d.log.Debug("normalizing backdated tournament start time",
				zap.String("supplied", iso), zap.String("normalized", normalized))
		}
		sess.SetArbitrationStartTime(normalized)
	}
	return nil
}
