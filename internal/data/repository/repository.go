package repository

import (
	"studio-booking/internal/audit"
	"studio-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Booking  BookingRepository
	Addon    AddonRepository
	Service  ServiceRepository
	Settings SettingsRepository
	Lead     LeadRepository
	User     UserRepository
	Audit    AuditRepository
}

func NewRepository(db database.PoolIface, emitter *audit.Emitter, log *zap.Logger) *Repository {
	return &Repository{
		Booking:  NewBookingRepository(db, emitter, log),
		Addon:    NewAddonRepository(db, log),
		Service:  NewServiceRepository(db, log),
		Settings: NewSettingsRepository(db, log),
		Lead:     NewLeadRepository(db, log),
		User:     NewUserRepository(db, log),
		Audit:    NewAuditRepository(db, log),
	}
}
