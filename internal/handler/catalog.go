package handler

import (
	"net/http"
	"storefront-backend/internal/dto"
	"storefront-backend/internal/service"

	"github.com/labstack/echo/v4"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

func (h *CatalogHandler) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()

	product, err := h.catalogService.GetProductBySlug(ctx, c.Param("slug"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewProductResponse(product))
}
