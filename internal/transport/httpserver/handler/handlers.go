package handler

import (
	eventdomain "family-calendar-go/internal/domain/event"
	familydomain "family-calendar-go/internal/domain/family"
	membershipdomain "family-calendar-go/internal/domain/membership"
	profiledomain "family-calendar-go/internal/domain/profile"
	"family-calendar-go/pkg/logger"
)

type Handlers struct {
	Families   *familydomain.Coordinator
	Membership *membershipdomain.Manager
	Events     *eventdomain.Scheduler
	Profiles   *profiledomain.Service

	log logger.Logger
}

func New(families *familydomain.Coordinator, membership *membershipdomain.Manager, events *eventdomain.Scheduler, profiles *profiledomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Families:   families,
		Membership: membership,
		Events:     events,
		Profiles:   profiles,
		log:        log,
	}
}
