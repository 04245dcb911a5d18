package service

import "time"

func SetNow(svc Payment, now func() time.Time) {
	svc.(*serviceImpl).now = now
}
