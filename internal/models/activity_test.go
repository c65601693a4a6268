package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActivityStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to ActivityStatus
		allowed  bool
	}{
		{ActivityStatusNotStarted, ActivityStatusInProgress, true},
		{ActivityStatusNotStarted, ActivityStatusDelayed, true},
		{ActivityStatusNotStarted, ActivityStatusCompleted, false},
		{ActivityStatusInProgress, ActivityStatusCompleted, true},
		{ActivityStatusInProgress, ActivityStatusDelayed, true},
		{ActivityStatusInProgress, ActivityStatusNotStarted, false},
		{ActivityStatusDelayed, ActivityStatusInProgress, true},
		{ActivityStatusDelayed, ActivityStatusCompleted, false},
		{ActivityStatusDelayed, ActivityStatusNotStarted, false},
		{ActivityStatusCompleted, ActivityStatusInProgress, false},
		{ActivityStatusCompleted, ActivityStatusCompleted, true},
		{ActivityStatusInProgress, ActivityStatus("paused"), false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestActivity_PredecessorIDs(t *testing.T) {
	a := Activity{Dependencies: []ActivityDependency{
		{ActivityID: 9, PredecessorID: 7},
		{ActivityID: 9, PredecessorID: 3},
	}}
	assert.Equal(t, []uint64{3, 7}, a.PredecessorIDs())
	assert.Equal(t, []uint64{}, Activity{}.PredecessorIDs())
}
