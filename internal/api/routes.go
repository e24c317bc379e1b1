package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/smartsecurity/access-register/internal/models"
)

// setupAPIRoutes sets up API v1 routes
func (s *RESTServer) setupAPIRoutes(r chi.Router) {
	var (
		super    = s.requireRole(models.RoleSuperAdmin)
		admin    = s.requireRole(models.RoleTenantAdmin)
		security = s.requireRole(models.RoleSecurityUser)
		admins   = s.requireRole(models.RoleSuperAdmin, models.RoleTenantAdmin)
		gate     = s.requireRole(models.RoleSuperAdmin, models.RoleSecurityUser)
	)

	r.Get("/health", s.HandleHealth)
	r.Get("/", s.HandleRoot)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.HandleLogin)
		r.Post("/refresh", s.HandleRefresh)
		r.With(s.authMiddleware).Post("/fcm-token", s.HandleSaveFCMToken)
		r.With(s.authMiddleware).Get("/me", s.HandleMe)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Route("/visitors", func(r chi.Router) {
			r.With(security).Post("/", s.HandleCreateWalkIn)
			r.With(security).Get("/", s.HandleListVisitorsForDate)
			r.With(security).Get("/checked-in", s.HandleListCheckedInVisitors)
			r.With(security).Get("/checked-out", s.HandleListCheckedOutVisitors)
			r.With(admin).Post("/scheduled", s.HandleScheduleVisitor)
			r.With(admin).Get("/pending", s.HandleListPendingForAdmin)
			r.With(admin).Get("/tenant", s.HandleListTenantVisitors)
			r.With(admin).Get("/tenant/pending", s.HandleListTenantPending)
			r.With(admin).Get("/tenant/today", s.HandleListTenantToday)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetVisitor)
				r.Get("/history", s.HandleVisitorHistory)
				r.With(admin).Put("/", s.HandleUpdateVisitor)
				r.With(admins).Delete("/", s.HandleDeleteVisitor)
				r.With(admin).Post("/decision", s.HandleVisitorDecision)
				r.With(security).Post("/check-in", s.HandleVisitorCheckIn)
				r.With(security).Post("/check-out", s.HandleVisitorCheckOut)
			})
		})

		r.Route("/vehicles", func(r chi.Router) {
			r.With(security).Post("/", s.HandleCreateVehicle)
			r.Get("/", s.HandleListVehicles)
			r.With(gate).Get("/inside", s.HandleListVehiclesInside)
			r.With(gate).Get("/checked-out", s.HandleListVehiclesCheckedOut)
			r.With(gate).Get("/by-number/{number}", s.HandleFindVehicleByNumber)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetVehicle)
				r.Get("/history", s.HandleVehicleHistory)
				r.Put("/", s.HandleUpdateVehicle)
				r.Delete("/", s.HandleDeleteVehicle)
				r.With(security).Post("/confirm-entry", s.HandleConfirmVehicleEntry)
				r.With(security).Post("/check-out", s.HandleVehicleCheckOut)
			})
		})

		r.Route("/staff", func(r chi.Router) {
			r.Use(gate)
			r.Get("/", s.HandleListStaff)
			r.Post("/", s.HandleCreateStaff)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetStaff)
				r.Put("/", s.HandleUpdateStaff)
				r.Delete("/", s.HandleDeleteStaff)
				r.Post("/check-in", s.HandleStaffCheckIn)
				r.Post("/check-out", s.HandleStaffCheckOut)
			})
		})

		r.Route("/tenants", func(r chi.Router) {
			r.Use(super)
			r.Get("/", s.HandleListTenants)
			r.Post("/", s.HandleCreateTenant)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetTenant)
				r.Put("/", s.HandleUpdateTenant)
				r.Delete("/", s.HandleDeleteTenant)
				r.Get("/admins", s.HandleListTenantAdmins)
				r.Post("/admins", s.HandleAddTenantAdmin)
			})
		})

		r.Route("/tenant-admins/{id}", func(r chi.Router) {
			r.Use(super)
			r.Put("/", s.HandleUpdateTenantAdmin)
			r.Delete("/", s.HandleDeleteTenantAdmin)
		})

		r.Route("/security-users", func(r chi.Router) {
			r.Use(super)
			r.Get("/", s.HandleListSecurityUsers)
			r.Post("/", s.HandleCreateSecurityUser)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(admins)
			r.Get("/dashboard", s.HandleDashboard)
			r.Get("/visitors", s.HandleVisitorReport)
			r.Get("/vehicles", s.HandleVehicleReport)
			r.With(super).Get("/staff", s.HandleStaffReport)
		})
	})
}
