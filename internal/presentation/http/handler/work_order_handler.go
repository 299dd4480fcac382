package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/fieldops-api/internal/application/service"
	"github.com/sangkips/fieldops-api/internal/domain/enum"
	"github.com/sangkips/fieldops-api/internal/domain/repository"
	"github.com/sangkips/fieldops-api/internal/presentation/http/dto/request"
	"github.com/sangkips/fieldops-api/internal/presentation/http/dto/response"
	"github.com/sangkips/fieldops-api/pkg/pagination"
)

// WorkOrderHandler handles work order HTTP requests
type WorkOrderHandler struct {
	workOrderService *service.WorkOrderService
}

// NewWorkOrderHandler creates a new work order handler
func NewWorkOrderHandler(workOrderService *service.WorkOrderService) *WorkOrderHandler {
	return &WorkOrderHandler{workOrderService: workOrderService}
}

// List handles listing work orders, filtered by status, client_id and invoiced
func (h *WorkOrderHandler) List(c *gin.Context) {
	var filter repository.WorkOrderFilter

	if raw := c.Query("status"); raw != "" {
		status := enum.WorkOrderStatus(raw)
		if !status.Valid() {
			response.BadRequest(c, "Invalid status")
			return
		}
		filter.Status = &status
	}

	clientID, ok := optionalUUIDQuery(c, "client_id")
	if !ok {
		return
	}
	filter.ClientID = clientID

	if raw := c.Query("invoiced"); raw != "" {
		invoiced, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(c, "Invalid invoiced")
			return
		}
		filter.Invoiced = &invoiced
	}

	params := pagination.FromQuery(c.Query("page"), c.Query("per_page"))

	result, err := h.workOrderService.ListWorkOrders(c.Request.Context(), filter, params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, "Work orders retrieved successfully", result)
}

// Create handles creating a work order
func (h *WorkOrderHandler) Create(c *gin.Context) {
	var req request.CreateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	workOrder, err := h.workOrderService.CreateWorkOrder(c.Request.Context(), req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Work order created successfully", workOrder)
}

// Get handles getting a single work order
func (h *WorkOrderHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "work order")
	if !ok {
		return
	}

	workOrder, err := h.workOrderService.GetWorkOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Work order retrieved successfully", workOrder)
}

// Update handles a partial update of a work order
func (h *WorkOrderHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "work order")
	if !ok {
		return
	}

	var req request.UpdateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	workOrder, err := h.workOrderService.UpdateWorkOrder(c.Request.Context(), id, req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Work order updated successfully", workOrder)
}
