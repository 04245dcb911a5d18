package service

import "time"

// SetNow overrides the clock of a service built by New.
func SetNow(svc Booking, now func() time.Time) {
	svc.(*serviceImpl).now = now
}
