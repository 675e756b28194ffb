// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package heartbeat is the post-setup life of the program: refresh the IMU
// as fast as possible and prove once a second that the loop is still alive.
package heartbeat

import (
	"context"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/i2c_bug/internal/imu"
)

// Interval is the minimum time between two heartbeats.
const Interval = time.Second

// Clock is the loop's only source of time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// CounterDisplay shows the heartbeat counter on screen.
type CounterDisplay interface {
	ShowCounter(n uint) error
}

// Publisher mirrors heartbeats somewhere off-device.
type Publisher interface {
	PublishBeat(b Beat) error
}

// Beat is what a heartbeat reports.
type Beat struct {
	Seconds       uint      `json:"seconds"`
	RefreshErrors uint64    `json:"refresh_errors"`
	Time          time.Time `json:"time"`
}

// Loop owns the heartbeat state. It is not safe for concurrent use; one
// goroutine calls Step or Run.
type Loop struct {
	IMU       imu.Refresher
	Clock     Clock
	Display   CounterDisplay // optional
	Out       io.Writer      // diagnostic stream
	Publisher Publisher      // optional

	started       bool
	seconds       uint
	last          time.Time
	refreshErrors uint64
}

// Seconds returns the next value the heartbeat will report, which is also
// the number of heartbeats fired so far.
func (l *Loop) Seconds() uint { return l.seconds }

// RefreshErrors returns how many IMU refreshes have failed.
func (l *Loop) RefreshErrors() uint64 { return l.refreshErrors }

// Step runs one iteration and reports whether the heartbeat fired.
// The refresh always happens before the elapsed-time check.
func (l *Loop) Step() bool {
	if err := l.IMU.Update(); err != nil {
		l.refreshErrors++
		log.Debugf("heartbeat: imu refresh: %v", err)
	}

	now := l.Clock.Now()
	if !l.started {
		l.started = true
		l.last = now
	}

	if now.Sub(l.last) < Interval {
		return false
	}

	l.fire(now)
	return true
}

func (l *Loop) fire(now time.Time) {
	if l.Display != nil {
		if err := l.Display.ShowCounter(l.seconds); err != nil {
			log.Printf("heartbeat: display: %v", err)
		}
	}

	if _, err := fmt.Fprintf(l.Out, "%d ", l.seconds); err != nil {
		log.Printf("heartbeat: diagnostic stream: %v", err)
	}

	if l.Publisher != nil {
		b := Beat{Seconds: l.seconds, RefreshErrors: l.refreshErrors, Time: now}
		if err := l.Publisher.PublishBeat(b); err != nil {
			log.Printf("heartbeat: publish: %v", err)
		}
	}

	log.WithFields(log.Fields{
		"seconds":        l.seconds,
		"refresh_errors": l.refreshErrors,
	}).Debug("heartbeat")

	l.seconds++
	l.last = now
}

// Run steps until ctx is done. The loop never sleeps.
func (l *Loop) Run(ctx context.Context) error {
	if l.Clock == nil {
		l.Clock = SystemClock
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		l.Step()
	}
}
