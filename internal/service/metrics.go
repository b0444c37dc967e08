package service

import (
	"github.com/RPwnage/EA-Software-sub002/internal/store"
	"go.uber.org/zap"
)

// Metrics tracks directory activity counters. Counters are mutated under the
// directory lock; the periodic summary goes through Directory.ReportSummary
// so reads stay serialized with operations.
type Metrics struct {
	log         *zap.Logger
	reportEvery int

	ops               int
	sessionsCreated   int
	sessionsDeleted   int
	membersJoined     int
	membersLeft       int
	redundantJoins    int
	idempotentLeaves  int
	activitiesSet     int
	activitiesCleared int
}

// NewMetrics creates a metrics sink that logs a summary every reportEvery
// operations (0 disables the op-count trigger).
func NewMetrics(log *zap.Logger, reportEvery int) *Metrics {
	return &Metrics{log: log, reportEvery: reportEvery}
}

// operation counts one public directory operation and emits a summary when
// the configured threshold is crossed.
func (m *Metrics) operation(st *store.Store) {
	m.ops++
	if m.reportEvery > 0 && m.ops%m.reportEvery == 0 {
		m.summary(st)
	}
}

func (m *Metrics) summary(st *store.Store) {
	m.log.Info("session directory summary",
		zap.Int("operations", m.ops),
		zap.Int("activeSessions", st.SessionCount()),
		zap.Int("activeMembers", st.MemberCount()),
		zap.Int("sessionsCreated", m.sessionsCreated),
		zap.Int("sessionsDeleted", m.sessionsDeleted),
		zap.Int("membersJoined", m.membersJoined),
		zap.Int("membersLeft", m.membersLeft),
		zap.Int("ignoredAlreadyJoined", m.redundantJoins),
		zap.Int("ignoredAlreadyLeft", m.idempotentLeaves),
		zap.Int("activitiesSet", m.activitiesSet),
		zap.Int("activitiesCleared", m.activitiesCleared),
	)
}
