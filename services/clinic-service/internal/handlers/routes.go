package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/clinicbook/libs/auth"
	"github.com/md-rashed-zaman/clinicbook/libs/httpx"
)

type Routes struct {
	Public  *PublicHandler
	Staff   *StaffHandler
	Doctors *DoctorHandler
}

// Register mounts the clinic API on mux. Public routes go through
// publicLimit (nil disables it); staff and admin routes require a bearer
// token when verify is non-nil.
func Register(mux *http.ServeMux, rt Routes, verify auth.Verifier, publicLimit httpx.Middleware) {
	public := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h, publicLimit)
	}
	staff := func(h http.HandlerFunc) http.Handler {
		return auth.RequireRole(verify, h, auth.RoleStaff, auth.RoleDoctor, auth.RoleAdmin)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return auth.RequireRole(verify, h, auth.RoleAdmin)
	}

	mux.Handle("/api/v1/public/doctors", public(rt.Public.Doctors))
	mux.Handle("/api/v1/public/slots", public(rt.Public.Slots))
	mux.Handle("/api/v1/public/book", public(rt.Public.Book))

	mux.Handle("/api/v1/appointments", staff(rt.Staff.Schedule))
	mux.Handle("/api/v1/appointments/status", staff(rt.Staff.SetStatus))
	mux.Handle("/api/v1/appointments/message", staff(rt.Staff.SetMessage))
	mux.Handle("/api/v1/archives/canceled", staff(rt.Staff.CanceledArchive))

	mux.Handle("/api/v1/doctors", admin(rt.Doctors.Doctors))
	mux.Handle("/api/v1/doctors/summary", admin(rt.Doctors.Summary))
	mux.Handle("/api/v1/doctors/weekoffs", admin(rt.Doctors.WeekOffs))
	mux.Handle("/api/v1/doctors/delete", admin(rt.Doctors.Delete))
}
