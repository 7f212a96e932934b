package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type TransferHandler struct {
	transferService service.TransferService
}

func NewTransferHandler(transferService service.TransferService) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

func (h *TransferHandler) RegisterRoutes(router *gin.RouterGroup) {
	transfers := router.Group("/api/transfers")
	{
		transfers.GET("", middleware.RequireAuth(), h.List)
		transfers.POST("", middleware.RequireManage(), h.Transfer)
		transfers.GET("/:id", middleware.RequireAuth(), h.Get)
		transfers.PATCH("/:id", middleware.RequireManage(), h.Edit)
		transfers.DELETE("/:id", middleware.RequireManage(), h.Delete)
	}
}

func (h *TransferHandler) Transfer(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req service.TransferStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	transfer, err := h.transferService.Transfer(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, transfer))
}

func (h *TransferHandler) Edit(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.EditTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	transfer, err := h.transferService.Edit(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, transfer))
}

func (h *TransferHandler) Delete(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.transferService.Delete(c.Request.Context(), actor, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Transfer deleted successfully"))
}

func (h *TransferHandler) Get(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	transfer, err := h.transferService.Get(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, transfer))
}

func (h *TransferHandler) List(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var q service.ListTransfersQuery
	if q.ShopID, ok = uuidQuery(c, "shop_id"); !ok {
		return
	}
	if q.ProductID, ok = uuidQuery(c, "product_id"); !ok {
		return
	}
	if q.From, ok = timeQuery(c, "from"); !ok {
		return
	}
	if q.To, ok = timeQuery(c, "to"); !ok {
		return
	}
	params := pagination.Parse(c)
	q.Page = params.Page
	q.Limit = params.Limit

	transfers, total, err := h.transferService.List(c.Request.Context(), actor, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"transfers": transfers,
		"total":     total,
		"page":      q.Page,
		"limit":     q.Limit,
	}))
}
