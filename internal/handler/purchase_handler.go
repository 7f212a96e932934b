package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type PurchaseHandler struct {
	purchaseService service.PurchaseService
}

func NewPurchaseHandler(purchaseService service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

func (h *PurchaseHandler) RegisterRoutes(router *gin.RouterGroup) {
	purchases := router.Group("/api/purchases")
	{
		purchases.GET("", middleware.RequireAuth(), h.List)
		purchases.POST("", middleware.RequireManage(), h.Record)
		purchases.GET("/export", middleware.RequireAuth(), h.Export)
		purchases.GET("/:id", middleware.RequireAuth(), h.Get)
		purchases.PATCH("/:id", middleware.RequireManage(), h.Edit)
		purchases.DELETE("/:id", middleware.RequireManage(), h.Delete)
	}
}

func (h *PurchaseHandler) Record(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req service.RecordPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	purchase, err := h.purchaseService.Record(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, purchase))
}

func (h *PurchaseHandler) Edit(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.EditPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	purchase, err := h.purchaseService.Edit(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}

func (h *PurchaseHandler) Delete(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.purchaseService.Delete(c.Request.Context(), actor, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Purchase deleted successfully"))
}

func (h *PurchaseHandler) Get(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	purchase, err := h.purchaseService.Get(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}

func (h *PurchaseHandler) List(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	q, ok := h.parseQuery(c)
	if !ok {
		return
	}

	purchases, total, err := h.purchaseService.List(c.Request.Context(), actor, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"purchases": purchases,
		"total":     total,
		"page":      q.Page,
		"limit":     q.Limit,
	}))
}

// Export streams the filtered purchase ledger as CSV or PDF.
func (h *PurchaseHandler) Export(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	q, ok := h.parseQuery(c)
	if !ok {
		return
	}

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		data, err := h.purchaseService.ExportCSV(c.Request.Context(), actor, q)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="purchases.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
	case "pdf":
		data, err := h.purchaseService.ExportPDF(c.Request.Context(), actor, q)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="purchases.pdf"`)
		c.Data(http.StatusOK, "application/pdf", data)
	default:
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Unsupported export format"))
	}
}

func (h *PurchaseHandler) parseQuery(c *gin.Context) (service.ListPurchasesQuery, bool) {
	var q service.ListPurchasesQuery
	var ok bool
	if q.ShopID, ok = uuidQuery(c, "shop_id"); !ok {
		return q, false
	}
	if q.ProductID, ok = uuidQuery(c, "product_id"); !ok {
		return q, false
	}
	if q.SupplierID, ok = uuidQuery(c, "supplier_id"); !ok {
		return q, false
	}
	if q.From, ok = timeQuery(c, "from"); !ok {
		return q, false
	}
	if q.To, ok = timeQuery(c, "to"); !ok {
		return q, false
	}
	params := pagination.Parse(c)
	q.Page = params.Page
	q.Limit = params.Limit
	return q, true
}
