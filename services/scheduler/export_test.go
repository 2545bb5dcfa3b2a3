package scheduler

import "time"

func (s *Scheduler) SetClock(now func() time.Time) { s.now = now }

func (s *Scheduler) SetBaseURL(base string) { s.baseURL = func() string { return base } }

var ExpandDays = expandDays
