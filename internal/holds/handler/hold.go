package handler

import (
	"net/http"
	"strings"

	"brokerage/internal/holds/policy"
	"brokerage/internal/holds/service"
	"brokerage/pkg/clock"
	apperrors "brokerage/pkg/errors"
	httputil "brokerage/pkg/http"
	"brokerage/pkg/logger"
	"brokerage/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type HoldHandler struct {
	service service.HoldService
	clock   clock.Clock
	log     *logger.Logger
}

func NewHoldHandler(svc service.HoldService, clk clock.Clock, log *logger.Logger) *HoldHandler {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &HoldHandler{
		service: svc,
		clock:   clk,
		log:     log,
	}
}

func (h *HoldHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, ok := h.caller(w, r, "Create")
	if !ok {
		return
	}

	var dto model.CreatePropertyHoldDto
	if err := httputil.DecodeJSON(r, &dto); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	hold, err := h.service.CreateHold(r.Context(), service.CreateHoldInput{
		PropertyID:          dto.PropertyID,
		CtvID:               caller.UserID,
		Reason:              dto.Reason,
		CustomDurationHours: dto.CustomDurationHours,
	})
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, hold); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *HoldHandler) Extend(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, ok := h.caller(w, r, "Extend")
	if !ok {
		return
	}

	var dto model.ExtendPropertyHoldDto
	if err := httputil.DecodeJSON(r, &dto); err != nil {
		h.writeError(w, "Extend", err)
		return
	}

	hold, err := h.service.ExtendHold(r.Context(), service.ExtendHoldInput{
		HoldID:              ps.ByName("id"),
		RequestedBy:         caller.UserID,
		IsAdmin:             caller.IsAdmin(),
		CustomDurationHours: dto.CustomDurationHours,
	})
	h.writeHold(w, "Extend", hold, err)
}

func (h *HoldHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, ok := h.caller(w, r, "Cancel")
	if !ok {
		return
	}

	var dto model.CancelPropertyHoldDto
	if err := httputil.DecodeJSON(r, &dto); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	hold, err := h.service.CancelHold(r.Context(), service.CancelHoldInput{
		HoldID:      ps.ByName("id"),
		CancelledBy: caller.UserID,
		Reason:      dto.Reason,
		IsAdmin:     caller.IsAdmin(),
	})
	h.writeHold(w, "Cancel", hold, err)
}

func (h *HoldHandler) AutoCancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, ok := h.admin(w, r, "AutoCancel")
	if !ok {
		return
	}

	var dto model.AutoCancelPropertyHoldDto
	if err := httputil.DecodeJSON(r, &dto); err != nil {
		h.writeError(w, "AutoCancel", err)
		return
	}

	hold, err := h.service.AutoCancel(r.Context(), service.AutoCancelInput{
		HoldID:      ps.ByName("id"),
		Reason:      dto.Reason,
		CancelledBy: caller.UserID,
	})
	h.writeHold(w, "AutoCancel", hold, err)
}

func (h *HoldHandler) AutoCancelByProperty(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, ok := h.admin(w, r, "AutoCancelByProperty")
	if !ok {
		return
	}

	var dto model.AutoCancelPropertyHoldDto
	if err := httputil.DecodeJSON(r, &dto); err != nil {
		h.writeError(w, "AutoCancelByProperty", err)
		return
	}

	hold, err := h.service.AutoCancelByProperty(r.Context(), ps.ByName("propertyId"), dto.Reason, caller.UserID)
	h.writeHold(w, "AutoCancelByProperty", hold, err)
}

func (h *HoldHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, ok := h.caller(w, r, "GetByID")
	if !ok {
		return
	}

	hold, err := h.service.GetHold(r.Context(), ps.ByName("id"))
	if err == nil && !caller.IsAdmin() && hold.CtvID != caller.UserID {
		// Other collaborators' holds are reported as missing.
		err = apperrors.NotFoundWithID("Hold", ps.ByName("id"))
	}
	h.writeHold(w, "GetByID", hold, err)
}

func (h *HoldHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, ok := h.caller(w, r, "List")
	if !ok {
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	query := r.URL.Query()
	filter := model.HoldFilter{
		CtvID:      query.Get("ctvId"),
		PropertyID: query.Get("propertyId"),
		Status:     model.HoldStatus(strings.ToUpper(strings.TrimSpace(query.Get("status")))),
	}
	if !caller.IsAdmin() {
		filter.CtvID = caller.UserID
	}

	holds, total, err := h.service.ListHolds(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, holds, total, limit, offset); err != nil {
		h.log.Error("failed to write JSON response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *HoldHandler) Check(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, ok := h.caller(w, r, "Check")
	if !ok {
		return
	}

	resp, err := h.service.CheckHold(r.Context(), service.CheckHoldInput{
		PropertyID:   ps.ByName("propertyId"),
		RequesterID:  caller.UserID,
		RevealHolder: caller.IsAdmin(),
	})
	if err != nil {
		h.writeError(w, "Check", err)
		return
	}

	if err := httputil.WriteSuccess(w, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Check", "operation", "WriteSuccess", "error", err)
	}
}

func (h *HoldHandler) Sweep(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if _, ok := h.admin(w, r, "Sweep"); !ok {
		return
	}

	result, err := h.service.ExpireSweep(r.Context(), h.clock.Now())
	if err != nil {
		h.writeError(w, "Sweep", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Sweep", "operation", "WriteSuccess", "error", err)
	}
}

func (h *HoldHandler) GetConfig(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if _, ok := h.admin(w, r, "GetConfig"); !ok {
		return
	}

	cfg, err := h.service.GetConfig(r.Context())
	if err != nil {
		h.writeError(w, "GetConfig", err)
		return
	}

	if err := httputil.WriteSuccess(w, cfg); err != nil {
		h.log.Error("failed to write JSON response", "handler", "GetConfig", "operation", "WriteSuccess", "error", err)
	}
}

func (h *HoldHandler) UpdateConfig(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, ok := h.admin(w, r, "UpdateConfig")
	if !ok {
		return
	}

	var cfg policy.HoldConfig
	if err := httputil.DecodeJSON(r, &cfg); err != nil {
		h.writeError(w, "UpdateConfig", err)
		return
	}

	updated, err := h.service.UpdateConfig(r.Context(), cfg, caller.UserID)
	if err != nil {
		h.writeError(w, "UpdateConfig", err)
		return
	}

	if err := httputil.WriteSuccess(w, updated); err != nil {
		h.log.Error("failed to write JSON response", "handler", "UpdateConfig", "operation", "WriteSuccess", "error", err)
	}
}

func (h *HoldHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/holds", h.Create)
	router.GET("/api/v1/holds", h.List)
	router.GET("/api/v1/holds/id/:id", h.GetByID)
	router.POST("/api/v1/holds/id/:id/extend", h.Extend)
	router.POST("/api/v1/holds/id/:id/cancel", h.Cancel)
	router.POST("/api/v1/holds/id/:id/auto-cancel", h.AutoCancel)
	router.POST("/api/v1/holds/sweep", h.Sweep)
	router.GET("/api/v1/holds/config", h.GetConfig)
	router.PUT("/api/v1/holds/config", h.UpdateConfig)

	router.GET("/api/v1/properties/:propertyId/hold", h.Check)
	router.POST("/api/v1/properties/:propertyId/auto-cancel", h.AutoCancelByProperty)
}

func (h *HoldHandler) caller(w http.ResponseWriter, r *http.Request, handler string) (httputil.Caller, bool) {
	caller, err := httputil.ExtractCaller(r)
	if err != nil {
		h.writeError(w, handler, err)
		return httputil.Caller{}, false
	}
	return caller, true
}

func (h *HoldHandler) admin(w http.ResponseWriter, r *http.Request, handler string) (httputil.Caller, bool) {
	caller, ok := h.caller(w, r, handler)
	if !ok {
		return caller, false
	}
	if !caller.IsAdmin() {
		h.writeError(w, handler, apperrors.Forbidden("Admin role required"))
		return caller, false
	}
	return caller, true
}

func (h *HoldHandler) writeHold(w http.ResponseWriter, handler string, hold *model.PropertyHold, err error) {
	if err != nil {
		h.writeError(w, handler, err)
		return
	}
	if err := httputil.WriteSuccess(w, hold); err != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *HoldHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
