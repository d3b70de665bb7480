package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicops/resource-scheduler/internal/block"
	"github.com/clinicops/resource-scheduler/internal/catalog"
	"github.com/clinicops/resource-scheduler/internal/tenancy"
)

func listResourcesHandler(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, _ := tenancy.ClinicIDFromContext(r.Context())

		var typeFilter *catalog.ResourceType
		if raw := r.URL.Query().Get("type"); raw != "" {
			t := catalog.ResourceType(raw)
			typeFilter = &t
		}

		resources, err := svc.ListActiveResources(r.Context(), clinicID, typeFilter)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]ResourceResponse, 0, len(resources))
		for i := range resources {
			resp = append(resp, toResourceResponse(&resources[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getResourceHandler(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, _ := tenancy.ClinicIDFromContext(r.Context())

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_resource_id", "id must be a valid UUID")
			return
		}

		res, err := svc.GetResource(r.Context(), clinicID, id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toResourceResponse(res))
	}
}

func createBlockHandler(mgr *block.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, _ := tenancy.ClinicIDFromContext(r.Context())

		var req CreateBlockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		resourceID, err := uuid.Parse(req.ResourceID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_resource_id", "resource_id must be a valid UUID")
			return
		}

		b := &block.Block{
			ClinicID:   clinicID,
			ResourceID: resourceID,
			StartTime:  req.StartTime,
			EndTime:    req.EndTime,
		}
		if req.RecurrenceRule != "" {
			rule := req.RecurrenceRule
			b.RecurrenceRule = &rule
		}

		created, err := mgr.CreateBlock(r.Context(), b)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toBlockResponse(created))
	}
}

func deactivateBlockHandler(mgr *block.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, _ := tenancy.ClinicIDFromContext(r.Context())

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_block_id", "id must be a valid UUID")
			return
		}

		if err := mgr.DeactivateBlock(r.Context(), clinicID, id); err != nil {
			handleDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// listResourceBlocksHandler returns concrete occurrences in the requested
// window, recurring templates expanded.
func listResourceBlocksHandler(mgr *block.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, _ := tenancy.ClinicIDFromContext(r.Context())

		resourceID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_resource_id", "id must be a valid UUID")
			return
		}

		window, ok := parseWindow(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_window", "from and to must be RFC3339 timestamps")
			return
		}

		occs, err := mgr.ActiveBlocksForResource(r.Context(), clinicID, resourceID, window)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]OccurrenceResponse, 0, len(occs))
		for _, occ := range occs {
			resp = append(resp, OccurrenceResponse{
				BlockID:   occ.BlockID,
				StartTime: occ.Interval.Start,
				EndTime:   occ.Interval.End,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
