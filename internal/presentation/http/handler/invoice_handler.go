package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/fieldops-api/internal/application/service"
	"github.com/sangkips/fieldops-api/internal/domain/enum"
	"github.com/sangkips/fieldops-api/internal/domain/repository"
	"github.com/sangkips/fieldops-api/internal/presentation/http/dto/request"
	"github.com/sangkips/fieldops-api/internal/presentation/http/dto/response"
	"github.com/sangkips/fieldops-api/internal/presentation/http/middleware"
	"github.com/sangkips/fieldops-api/pkg/pagination"
)

// InvoiceHandler handles invoice-related HTTP requests
type InvoiceHandler struct {
	invoiceService *service.InvoiceService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// Create handles settling work orders into a new invoice
// @Summary Create Invoice
// @Description Settle completed work orders into an invoice. Totals and number are assigned by the server.
// @Tags invoices
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Replays return the invoice created the first time"
// @Param body body request.CreateInvoiceRequest true "Invoice"
// @Success 200 {object} response.APIResponse
// @Failure 400 {object} response.APIResponse "Invalid items or work order already invoiced"
// @Failure 404 {object} response.APIResponse "Client or work order not found"
// @Router /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req request.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	input := req.ToInput()
	if key := c.GetHeader(middleware.IdempotencyKeyHeader); key != "" {
		// keys are scoped to the caller
		scoped := key
		if userID := GetUserID(c); userID != nil {
			scoped = userID.String() + ":" + key
		}
		input.IdempotencyKey = &scoped
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice created successfully", invoice)
}

// List handles listing invoices
// @Summary List Invoices
// @Tags invoices
// @Security BearerAuth
// @Produce json
// @Param status query string false "Invoice status"
// @Param client_id query string false "Client ID"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(15)
// @Success 200 {object} response.APIResponse
// @Router /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	var filter repository.InvoiceFilter

	if raw := c.Query("status"); raw != "" {
		status := enum.InvoiceStatus(raw)
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

	params := pagination.FromQuery(c.Query("page"), c.Query("per_page"))

	result, err := h.invoiceService.ListInvoices(c.Request.Context(), filter, params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, "Invoices retrieved successfully", result)
}

// Get handles getting a single invoice
// @Summary Get Invoice
// @Tags invoices
// @Security BearerAuth
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice retrieved successfully", invoice)
}

// UpdateStatus handles moving an invoice through its lifecycle
// @Summary Update Invoice Status
// @Description Status may be sent in the body or as the status query parameter. Paying stamps paid_date and paid_amount.
// @Tags invoices
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param status query string false "New status"
// @Param body body request.UpdateInvoiceStatusRequest false "New status"
// @Success 200 {object} response.APIResponse
// @Failure 400 {object} response.APIResponse "Invalid status or transition"
// @Failure 404 {object} response.APIResponse
// @Router /invoices/{id}/status [put]
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id", "invoice")
	if !ok {
		return
	}

	req := request.UpdateInvoiceStatusRequest{Status: c.Query("status")}
	if req.Status == "" && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}
	}
	if req.Status == "" {
		response.BadRequest(c, "status is required")
		return
	}

	invoice, err := h.invoiceService.UpdateStatus(c.Request.Context(), id, enum.InvoiceStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice status updated successfully", invoice)
}

// Reconcile handles an on-demand repair sweep of work order flags
// @Summary Reconcile Work Orders
// @Description Flags work orders listed on invoices that are not flagged yet and reports conflicts.
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param dry_run query bool false "Report without writing"
// @Param workers query int false "Concurrent workers"
// @Success 200 {object} response.APIResponse
// @Router /admin/invoices/reconcile [post]
func (h *InvoiceHandler) Reconcile(c *gin.Context) {
	var opts service.ReconcileOptions
	if raw := c.Query("dry_run"); raw != "" {
		dryRun, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(c, "Invalid dry_run")
			return
		}
		opts.DryRun = dryRun
	}
	if raw := c.Query("workers"); raw != "" {
		workers, err := strconv.Atoi(raw)
		if err != nil || workers < 1 {
			response.BadRequest(c, "Invalid workers")
			return
		}
		opts.Workers = workers
	}

	report, err := h.invoiceService.ReconcileWorkOrders(c.Request.Context(), opts)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Reconciliation completed", report)
}
