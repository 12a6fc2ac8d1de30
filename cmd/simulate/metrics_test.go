package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOperationMetricsStats(t *testing.T) {
	var om OperationMetrics
	for i := 1; i <= 100; i++ {
		om.Record(time.Duration(i)*time.Millisecond, i%2 == 0, i%5 == 0)
	}

	assert.Equal(t, int64(100), om.Total)
	assert.Equal(t, int64(50), om.Success)
	assert.Equal(t, int64(10), om.Conflict) // odd multiples of 5
	assert.Equal(t, int64(40), om.Error)

	avg, min, max, p50, p95 := om.Stats()
	assert.Equal(t, 50500*time.Microsecond, avg)
	assert.Equal(t, time.Millisecond, min)
	assert.Equal(t, 100*time.Millisecond, max)
	assert.Equal(t, 51*time.Millisecond, p50)
	assert.Equal(t, 96*time.Millisecond, p95)
}

func TestFindDoubleBookings(t *testing.T) {
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	list := []appointmentView{
		{ID: 1, PractitionerID: 7, Timestamp: ts, Status: "cancelled"},
		{ID: 2, PractitionerID: 7, Timestamp: ts, Status: "scheduled"},
		{ID: 3, PractitionerID: 7, Timestamp: ts.Add(30 * time.Minute), Status: "completed"},
	}
	assert.Empty(t, findDoubleBookings(list))

	list = append(list, appointmentView{ID: 4, PractitionerID: 7, Timestamp: ts, Status: "completed"})
	dups := findDoubleBookings(list)
	assert.Len(t, dups, 1)
	assert.Contains(t, dups[0], "09:00")
}
