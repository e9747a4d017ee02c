package pharmacy

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/drishti-hms/pos/internal/domain/patient"
	"github.com/drishti-hms/pos/internal/platform/auth"
	"github.com/drishti-hms/pos/internal/platform/receipt"
	"github.com/drishti-hms/pos/internal/platform/upstream"
	"github.com/drishti-hms/pos/pkg/pagination"
)

type Handler struct {
	svc      *Service
	patients *patient.Service
	receipts *receipt.Renderer
}

func NewHandler(svc *Service, patients *patient.Service, receipts *receipt.Renderer) *Handler {
	return &Handler{svc: svc, patients: patients, receipts: receipts}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// The POS surface is for pharmacy counter staff
	pos := api.Group("/pos", auth.RequireRole("admin", "pharmacist", "billing"))

	pos.POST("/sessions", h.OpenSession)
	pos.GET("/sessions/:id", h.GetSession)
	pos.DELETE("/sessions/:id", h.CloseSession)
	pos.POST("/sessions/:id/inventory/refresh", h.RefreshInventory)
	pos.GET("/sessions/:id/medicines", h.ListMedicines)
	pos.POST("/sessions/:id/cart/items", h.AddToCart)
	pos.PUT("/sessions/:id/cart/items/:medicineId", h.SetQuantity)
	pos.DELETE("/sessions/:id/cart/items/:medicineId", h.RemoveFromCart)
	pos.PUT("/sessions/:id/patient", h.SelectPatient)
	pos.GET("/sessions/:id/patients", h.SearchPatients)
	pos.POST("/sessions/:id/checkout", h.Checkout)
	pos.GET("/sessions/:id/receipt", h.GetReceipt)
}

func (h *Handler) OpenSession(c echo.Context) error {
	state := h.svc.OpenSession(c.Request().Context())
	return c.JSON(http.StatusCreated, state)
}

func (h *Handler) GetSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	state, err := h.svc.State(id)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, state)
}

func (h *Handler) CloseSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	h.svc.CloseSession(id)
	h.patients.Forget(id.String())
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RefreshInventory(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	state, err := h.svc.RefreshInventory(c.Request().Context(), id)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, state)
}

func (h *Handler) ListMedicines(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.Medicines(id, c.QueryParam("q"), pg.Limit, pg.Offset)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type addItemRequest struct {
	MedicineID string `json:"medicineId"`
}

func (h *Handler) AddToCart(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	var req addItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.MedicineID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "medicineId is required")
	}
	res, state, err := h.svc.AddToCart(id, req.MedicineID)
	if err != nil {
		return mapServiceError(err)
	}
	return mutationResponse(c, res, state)
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) SetQuantity(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	var req setQuantityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, state, err := h.svc.SetQuantity(id, c.Param("medicineId"), req.Quantity)
	if err != nil {
		return mapServiceError(err)
	}
	return mutationResponse(c, res, state)
}

func (h *Handler) RemoveFromCart(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	state, err := h.svc.RemoveFromCart(id, c.Param("medicineId"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, state)
}

func (h *Handler) SelectPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	var ref PatientRef
	if err := c.Bind(&ref); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SelectPatient(id, ref); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	state, err := h.svc.State(id)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, state)
}

type patientSearchResponse struct {
	Results []patient.Summary `json:"results"`
	Stale   bool              `json:"stale"`
}

// SearchPatients proxies the patient lookup. Responses overtaken by a
// newer search on the same session are reported stale with no results,
// so a slow early query can never clobber a fresh one on the terminal.
func (h *Handler) SearchPatients(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	if _, err := h.svc.State(id); err != nil {
		return mapServiceError(err)
	}

	term := c.QueryParam("q")
	if term == "" {
		return c.JSON(http.StatusOK, patientSearchResponse{Results: []patient.Summary{}})
	}

	results, stale, err := h.patients.Search(c.Request().Context(), id.String(), term)
	if stale {
		return c.JSON(http.StatusOK, patientSearchResponse{Results: []patient.Summary{}, Stale: true})
	}
	if err != nil {
		return mapServiceError(err)
	}
	if results == nil {
		results = []patient.Summary{}
	}
	return c.JSON(http.StatusOK, patientSearchResponse{Results: results})
}

type checkoutRequest struct {
	PaymentMethod string `json:"paymentMethod"`
}

func (h *Handler) Checkout(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	var req checkoutRequest
	if err := c.Bind(&req); err != nil && c.Request().ContentLength > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rcpt, err := h.svc.Checkout(c.Request().Context(), id, req.PaymentMethod)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusCreated, rcpt)
}

func (h *Handler) GetReceipt(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	rcpt, err := h.svc.Receipt(id)
	if err != nil {
		return mapServiceError(err)
	}

	if c.QueryParam("format") == "html" {
		c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
		c.Response().WriteHeader(http.StatusOK)
		return h.receipts.Render(c.Response(), receiptData(rcpt))
	}
	return c.JSON(http.StatusOK, rcpt)
}

// receiptData maps a checkout receipt into the printable template model.
func receiptData(r *Receipt) receipt.Data {
	lines := make([]receipt.Line, 0, len(r.Items))
	for _, it := range r.Items {
		lines = append(lines, receipt.Line{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price,
			Total:    it.Total,
		})
	}
	return receipt.Data{
		BillID:         r.BillID,
		RegistrationID: r.RegistrationID,
		PatientName:    r.PatientName,
		Items:          lines,
		Total:          r.TotalAmount,
		PaymentMethod:  r.PaymentMethod,
		IssuedAt:       r.IssuedAt,
	}
}

// mutationResponse encodes a cart mutation outcome. Rejections carry the
// refreshed session state in the error payload so the terminal can
// repaint availability without a second round trip.
func mutationResponse(c echo.Context, res MutationResult, state *SessionState) error {
	switch res {
	case MutationOK:
		return c.JSON(http.StatusOK, state)
	case MutationInsufficientStock:
		return c.JSON(http.StatusConflict, echo.Map{
			"error":   res.String(),
			"message": "requested quantity exceeds available stock",
			"state":   state,
		})
	case MutationUnknownMedicine:
		return c.JSON(http.StatusNotFound, echo.Map{
			"error":   res.String(),
			"message": "medicine not in the current inventory snapshot",
			"state":   state,
		})
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "unhandled mutation result")
	}
}

// mapServiceError translates service and upstream failures into HTTP
// responses. Upstream hospital API errors pass their detail through
// verbatim so the terminal shows the same message the server produced.
func mapServiceError(err error) error {
	var apiErr *upstream.APIError
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNoPatient), errors.Is(err, ErrEmptyCart):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNoReceipt):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.As(err, &apiErr):
		return echo.NewHTTPError(http.StatusBadGateway, apiErr.Detail)
	default:
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
}
