package handler

import (
	"net/http"

	"pgstay/internal/inventory/service"
	"pgstay/pkg/auth"
	httputil "pgstay/pkg/http"
	"pgstay/pkg/logger"
	"pgstay/pkg/middleware"
	"pgstay/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type InventoryHandler struct {
	service service.InventoryService
	log     *logger.Logger
}

func NewInventoryHandler(service service.InventoryService, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: service,
		log:     log,
	}
}

func (h *InventoryHandler) CreateProperty(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in model.PropertyInput
	if err := httputil.DecodeJSON(r, &in, false); err != nil {
		h.writeError(w, r, "CreateProperty", err)
		return
	}

	property, err := h.service.CreateProperty(r.Context(), auth.FromContext(r.Context()), &in)
	if err != nil {
		h.writeError(w, r, "CreateProperty", err)
		return
	}

	if err := httputil.WriteCreated(w, property); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateProperty", "operation", "WriteCreated", "error", err)
	}
}

func (h *InventoryHandler) GetProperty(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	property, err := h.service.GetProperty(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "GetProperty", err)
		return
	}

	if err := httputil.WriteSuccess(w, property); err != nil {
		h.log.Error("failed to write success response", "handler", "GetProperty", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InventoryHandler) ListProperties(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, r, "ListProperties", err)
		return
	}

	properties, total, err := h.service.ListProperties(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, r, "ListProperties", err)
		return
	}

	if err := httputil.WritePaginated(w, properties, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListProperties", "operation", "WritePaginated", "error", err)
	}
}

func (h *InventoryHandler) CreateRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in model.RoomInput
	if err := httputil.DecodeJSON(r, &in, false); err != nil {
		h.writeError(w, r, "CreateRoom", err)
		return
	}

	room, err := h.service.CreateRoom(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"), &in)
	if err != nil {
		h.writeError(w, r, "CreateRoom", err)
		return
	}

	if err := httputil.WriteCreated(w, room); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateRoom", "operation", "WriteCreated", "error", err)
	}
}

func (h *InventoryHandler) ListRooms(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	rooms, err := h.service.ListRooms(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "ListRooms", err)
		return
	}

	if err := httputil.WriteSuccess(w, rooms); err != nil {
		h.log.Error("failed to write success response", "handler", "ListRooms", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InventoryHandler) CreateBed(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in model.BedInput
	if err := httputil.DecodeJSON(r, &in, false); err != nil {
		h.writeError(w, r, "CreateBed", err)
		return
	}

	bed, err := h.service.CreateBed(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"), &in)
	if err != nil {
		h.writeError(w, r, "CreateBed", err)
		return
	}

	if err := httputil.WriteCreated(w, bed); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateBed", "operation", "WriteCreated", "error", err)
	}
}

func (h *InventoryHandler) ListBeds(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	status := model.BedStatus(r.URL.Query().Get("status"))

	beds, err := h.service.ListBeds(r.Context(), ps.ByName("id"), status)
	if err != nil {
		h.writeError(w, r, "ListBeds", err)
		return
	}

	if err := httputil.WriteSuccess(w, beds); err != nil {
		h.log.Error("failed to write success response", "handler", "ListBeds", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InventoryHandler) GetBed(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bed, err := h.service.GetBed(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "GetBed", err)
		return
	}

	if err := httputil.WriteSuccess(w, bed); err != nil {
		h.log.Error("failed to write success response", "handler", "GetBed", "operation", "WriteSuccess", "error", err)
	}
}

// ListAvailableBeds is the public listing applicants book from.
func (h *InventoryHandler) ListAvailableBeds(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, r, "ListAvailableBeds", err)
		return
	}

	beds, total, err := h.service.ListAvailableBeds(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, r, "ListAvailableBeds", err)
		return
	}

	if err := httputil.WritePaginated(w, beds, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListAvailableBeds", "operation", "WritePaginated", "error", err)
	}
}

func (h *InventoryHandler) ReleaseBed(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bed, err := h.service.ReleaseBed(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "ReleaseBed", err)
		return
	}

	if err := httputil.WriteSuccess(w, bed); err != nil {
		h.log.Error("failed to write success response", "handler", "ReleaseBed", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InventoryHandler) StartMaintenance(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bed, err := h.service.StartMaintenance(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "StartMaintenance", err)
		return
	}

	if err := httputil.WriteSuccess(w, bed); err != nil {
		h.log.Error("failed to write success response", "handler", "StartMaintenance", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InventoryHandler) EndMaintenance(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bed, err := h.service.EndMaintenance(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "EndMaintenance", err)
		return
	}

	if err := httputil.WriteSuccess(w, bed); err != nil {
		h.log.Error("failed to write success response", "handler", "EndMaintenance", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InventoryHandler) writeError(w http.ResponseWriter, r *http.Request, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Ctx(r.Context()).Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *InventoryHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/public/beds", h.ListAvailableBeds)

	router.POST("/api/v1/properties", middleware.RequireAdmin(h.CreateProperty))
	router.GET("/api/v1/properties", middleware.RequireAdmin(h.ListProperties))
	router.GET("/api/v1/properties/:id", middleware.RequireAdmin(h.GetProperty))
	router.POST("/api/v1/properties/:id/rooms", middleware.RequireAdmin(h.CreateRoom))
	router.GET("/api/v1/properties/:id/rooms", middleware.RequireAdmin(h.ListRooms))
	router.POST("/api/v1/rooms/:id/beds", middleware.RequireAdmin(h.CreateBed))
	router.GET("/api/v1/rooms/:id/beds", middleware.RequireAdmin(h.ListBeds))
	router.GET("/api/v1/beds/:id", middleware.RequireAdmin(h.GetBed))
	router.POST("/api/v1/beds/:id/release", middleware.RequireAdmin(h.ReleaseBed))
	router.POST("/api/v1/beds/:id/maintenance", middleware.RequireAdmin(h.StartMaintenance))
	router.DELETE("/api/v1/beds/:id/maintenance", middleware.RequireAdmin(h.EndMaintenance))
}
