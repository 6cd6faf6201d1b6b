package repository

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes.
const (
	resultStored   = "stored"
	resultRejected = "rejected"
	resultFailed   = "failed"
)

// Remote push outcomes.
const (
	pushOK       = "ok"
	pushConflict = "conflict"
	pushFailed   = "failed"
	pushDisabled = "disabled"
)

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maintlog_submissions_total",
		Help: "Record submissions by outcome.",
	}, []string{"result"})

	remotePushTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maintlog_remote_push_total",
		Help: "Remote mirror pushes by outcome.",
	}, []string{"result"})
)
