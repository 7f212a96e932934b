package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type SaleHandler struct {
	saleService service.SaleService
}

func NewSaleHandler(saleService service.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

func (h *SaleHandler) RegisterRoutes(router *gin.RouterGroup) {
	sales := router.Group("/api/sales")
	{
		sales.GET("", middleware.RequireAuth(), h.List)
		sales.POST("", middleware.RequireAuth(), h.Record)
		sales.GET("/export", middleware.RequireAuth(), h.ExportCSV)
		sales.GET("/:id", middleware.RequireAuth(), h.Get)
		sales.GET("/:id/returns", middleware.RequireAuth(), h.ListReturnsBySale)
		sales.POST("/:id/returns", middleware.RequireAuth(), h.Return)
	}
	router.GET("/api/sale-returns", middleware.RequireAuth(), h.ListReturns)
}

func (h *SaleHandler) Record(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req service.RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	sale, err := h.saleService.Record(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, sale))
}

func (h *SaleHandler) Return(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	saleID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.RecordReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ret, err := h.saleService.Return(c.Request.Context(), actor, saleID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, ret))
}

func (h *SaleHandler) Get(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.Get(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

func (h *SaleHandler) List(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	q, ok := h.parseQuery(c)
	if !ok {
		return
	}

	sales, total, err := h.saleService.List(c.Request.Context(), actor, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"sales": sales,
		"total": total,
		"page":  q.Page,
		"limit": q.Limit,
	}))
}

func (h *SaleHandler) ListReturnsBySale(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	saleID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	returns, err := h.saleService.ListReturnsBySale(c.Request.Context(), actor, saleID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, returns))
}

func (h *SaleHandler) ListReturns(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	shopID, ok := uuidQuery(c, "shop_id")
	if !ok {
		return
	}
	params := pagination.Parse(c)

	returns, total, err := h.saleService.ListReturns(c.Request.Context(), actor, shopID, params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"returns": returns,
		"total":   total,
		"page":    params.Page,
		"limit":   params.Limit,
	}))
}

func (h *SaleHandler) ExportCSV(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	q, ok := h.parseQuery(c)
	if !ok {
		return
	}

	data, err := h.saleService.ExportCSV(c.Request.Context(), actor, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="sales.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}

func (h *SaleHandler) parseQuery(c *gin.Context) (service.ListSalesQuery, bool) {
	var q service.ListSalesQuery
	var ok bool
	if q.ShopID, ok = uuidQuery(c, "shop_id"); !ok {
		return q, false
	}
	if q.ProductID, ok = uuidQuery(c, "product_id"); !ok {
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
