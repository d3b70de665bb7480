package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/clinicops/resource-scheduler/internal/forecast"
	"github.com/clinicops/resource-scheduler/internal/interval"
	"github.com/clinicops/resource-scheduler/internal/shift"
	"github.com/clinicops/resource-scheduler/internal/tenancy"
)

func listShiftsHandler(svc *shift.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, _ := tenancy.ClinicIDFromContext(r.Context())

		window, ok := parseWindow(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_window", "from and to must be RFC3339 timestamps")
			return
		}

		shifts, err := svc.ListShifts(r.Context(), clinicID, window)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]ShiftResponse, 0, len(shifts))
		for i := range shifts {
			resp = append(resp, toShiftResponse(&shifts[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createShiftHandler(svc *shift.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, _ := tenancy.ClinicIDFromContext(r.Context())

		var req CreateShiftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		staffResourceID, err := uuid.Parse(req.StaffResourceID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_staff_resource_id", "staff_resource_id must be a valid UUID")
			return
		}

		created, err := svc.CreateShift(r.Context(), clinicID, staffResourceID,
			interval.Interval{Start: req.StartTime, End: req.EndTime}, req.Notes)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toShiftResponse(created))
	}
}

func listPreferencesHandler(svc *shift.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, _ := tenancy.ClinicIDFromContext(r.Context())

		var staffResourceID *uuid.UUID
		if raw := r.URL.Query().Get("staff_resource_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_staff_resource_id", "staff_resource_id must be a valid UUID")
				return
			}
			staffResourceID = &id
		}

		activeOnly := r.URL.Query().Get("active_only") == "true"

		prefs, err := svc.ListPreferences(r.Context(), clinicID, staffResourceID, activeOnly)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]PreferenceResponse, 0, len(prefs))
		for i := range prefs {
			resp = append(resp, toPreferenceResponse(&prefs[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getForecastHandler(f *forecast.Forecaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, _ := tenancy.ClinicIDFromContext(r.Context())

		window, ok := parseWindow(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_window", "from and to must be RFC3339 timestamps")
			return
		}

		var resourceID *uuid.UUID
		if raw := r.URL.Query().Get("resource_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_resource_id", "resource_id must be a valid UUID")
				return
			}
			resourceID = &id
		}

		result, err := f.Forecast(r.Context(), clinicID, resourceID, window)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func getShiftSuggestionsHandler(opt *shift.Optimizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, _ := tenancy.ClinicIDFromContext(r.Context())

		window, ok := parseWindow(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_window", "from and to must be RFC3339 timestamps")
			return
		}

		suggestions, err := opt.Suggest(r.Context(), clinicID, window)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		if suggestions == nil {
			suggestions = []shift.Suggestion{}
		}
		writeJSON(w, http.StatusOK, suggestions)
	}
}
