package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/worldscope/countries-api/internal/core/ports"
)

// CountryHandler proxies the read-only country catalog. Payloads are relayed
// verbatim from the catalog service.
type CountryHandler struct {
	catalog ports.CountryCatalog
}

func NewCountryHandler(catalog ports.CountryCatalog) *CountryHandler {
	return &CountryHandler{catalog: catalog}
}

// All returns every country in the catalog.
//
// @Summary      List all countries
// @Tags         countries
// @Produce      json
// @Success      200  {array}  object
// @Router       /api/countries [get]
func (h *CountryHandler) All(c echo.Context) error {
	payload, err := h.catalog.All(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, payload)
}

// ByName searches countries by name.
//
// @Summary      Search countries by name
// @Tags         countries
// @Produce      json
// @Param        name  path  string  true  "Country name"
// @Success      200   {array}  object
// @Failure      404   {object}  map[string]string
// @Router       /api/countries/name/{name} [get]
func (h *CountryHandler) ByName(c echo.Context) error {
	payload, err := h.catalog.ByName(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, payload)
}

// ByRegion lists countries in a region.
//
// @Summary      List countries by region
// @Tags         countries
// @Produce      json
// @Param        region  path  string  true  "Region (e.g. Europe)"
// @Success      200     {array}  object
// @Router       /api/countries/region/{region} [get]
func (h *CountryHandler) ByRegion(c echo.Context) error {
	payload, err := h.catalog.ByRegion(c.Request().Context(), c.Param("region"))
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, payload)
}

// ByCode returns a country by alpha code.
//
// @Summary      Get a country by code
// @Tags         countries
// @Produce      json
// @Param        code  path  string  true  "Alpha code (e.g. CAN)"
// @Success      200   {array}  object
// @Failure      404   {object}  map[string]string
// @Router       /api/countries/code/{code} [get]
func (h *CountryHandler) ByCode(c echo.Context) error {
	payload, err := h.catalog.ByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, payload)
}
