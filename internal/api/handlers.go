package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicops/resource-scheduler/internal/interval"
	"github.com/clinicops/resource-scheduler/internal/schedule"
	"github.com/clinicops/resource-scheduler/internal/tenancy"
)

func createAppointmentHandler(svc *schedule.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusBadRequest, "missing_clinic_id", "clinic context is required")
			return
		}

		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		resourceID, err := uuid.Parse(req.ResourceID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_resource_id", "resource_id must be a valid UUID")
			return
		}

		var menuID *uuid.UUID
		if req.MenuID != "" {
			id, err := uuid.Parse(req.MenuID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_menu_id", "menu_id must be a valid UUID")
				return
			}
			menuID = &id
		}

		appt, err := svc.Create(r.Context(), schedule.CreateInput{
			ClinicID:    clinicID,
			ResourceID:  resourceID,
			MenuID:      menuID,
			Interval:    interval.Interval{Start: req.StartTime, End: req.EndTime},
			CustomerRef: req.CustomerRef,
			Origin:      schedule.Origin(req.Origin),
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc *schedule.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, _ := tenancy.ClinicIDFromContext(r.Context())

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.Get(r.Context(), clinicID, id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func moveAppointmentHandler(svc *schedule.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, _ := tenancy.ClinicIDFromContext(r.Context())

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req MoveAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		var newResourceID *uuid.UUID
		if req.NewResourceID != "" {
			rid, err := uuid.Parse(req.NewResourceID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_resource_id", "new_resource_id must be a valid UUID")
				return
			}
			newResourceID = &rid
		}

		appt, err := svc.Move(r.Context(), schedule.MoveInput{
			ClinicID:      clinicID,
			AppointmentID: id,
			NewResourceID: newResourceID,
			Interval:      interval.Interval{Start: req.StartTime, End: req.EndTime},
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func confirmAppointmentHandler(svc *schedule.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, _ := tenancy.ClinicIDFromContext(r.Context())

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.Confirm(r.Context(), clinicID, id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func completeAppointmentHandler(svc *schedule.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, _ := tenancy.ClinicIDFromContext(r.Context())

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.Complete(r.Context(), clinicID, id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc *schedule.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, _ := tenancy.ClinicIDFromContext(r.Context())

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		if err := svc.Cancel(r.Context(), clinicID, id); err != nil {
			handleDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// parseWindow reads the from/to RFC3339 query parameters shared by the
// list/report endpoints.
func parseWindow(r *http.Request) (interval.Interval, bool) {
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		return interval.Interval{}, false
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		return interval.Interval{}, false
	}
	return interval.Interval{Start: from, End: to}, true
}
