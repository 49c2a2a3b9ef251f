package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/sandeepkv93/product-catalog-api/internal/http/response"
	"github.com/sandeepkv93/product-catalog-api/internal/observability"
	"github.com/sandeepkv93/product-catalog-api/internal/repository"
	"github.com/sandeepkv93/product-catalog-api/internal/service"
)

const (
	msgProductNotFound    = "Produto não encontrado"
	msgProductListFailed  = "Erro ao buscar produtos"
	msgProductGetFailed   = "Erro ao buscar produto"
	msgProductAddFailed   = "Erro ao adicionar produto"
	msgProductUpdFailed   = "Erro ao atualizar produto"
	msgProductDelFailed   = "Erro ao excluir produto"
	msgProductDeleted     = "Produto excluído com sucesso"
	msgInvalidProductID   = "ID de produto inválido"
	msgInvalidProductBody = "Dados do produto inválidos"
)

// productPayload is the client representation of a full product record.
// Required fields are pointers so absence can be told apart from a zero value.
type productPayload struct {
	Title    *string          `json:"title" validate:"required"`
	Price    *decimal.Decimal `json:"price" validate:"required"`
	Image    *string          `json:"image"`
	Category *string          `json:"category"`
	Colors   []string         `json:"colors"`
	Quantity *json.Number     `json:"quantity" validate:"required"`
	Sizes    []string         `json:"sizes"`
}

func (p productPayload) toInput() (service.ProductInput, error) {
	qty, err := coerceQuantity(*p.Quantity)
	if err != nil {
		return service.ProductInput{}, err
	}
	return service.ProductInput{
		Title:    *p.Title,
		Price:    *p.Price,
		Image:    p.Image,
		Category: p.Category,
		Colors:   p.Colors,
		Quantity: qty,
		Sizes:    p.Sizes,
	}, nil
}

// coerceQuantity accepts integral numbers in any JSON spelling ("2", 2, 2.0)
// that fit the 32-bit quantity column.
func coerceQuantity(n json.Number) (int, error) {
	if v, err := strconv.ParseInt(n.String(), 10, 32); err == nil {
		return int(v), nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("quantity %q is not an integer", n.String())
	}
	return int(f), nil
}

type ProductHandler struct {
	svc service.ProductService
}

func NewProductHandler(svc service.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.List(r.Context())
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", msgProductListFailed, nil)
		return
	}
	response.JSON(w, r, http.StatusOK, products)
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	product, err := h.svc.GetByID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", msgProductNotFound, nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", msgProductGetFailed, nil)
		return
	}
	response.JSON(w, r, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeProductInput(w, r)
	if !ok {
		return
	}

	created, err := h.svc.Create(r.Context(), input)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", msgProductAddFailed, nil)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:  "product.create",
		TargetType: "product",
		TargetID:   strconv.FormatUint(uint64(created.ID), 10),
		Action:     "create",
		Outcome:    "success",
		Reason:     "product_created",
	}, "title", created.Title)
	response.JSON(w, r, http.StatusCreated, created)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}
	input, ok := decodeProductInput(w, r)
	if !ok {
		return
	}

	updated, err := h.svc.Update(r.Context(), productID, input)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", msgProductNotFound, nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", msgProductUpdFailed, nil)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:  "product.update",
		TargetType: "product",
		TargetID:   strconv.FormatUint(uint64(productID), 10),
		Action:     "update",
		Outcome:    "success",
		Reason:     "product_replaced",
	}, "title", updated.Title)
	response.JSON(w, r, http.StatusOK, updated)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	targetID := strconv.FormatUint(uint64(productID), 10)
	if err := h.svc.DeleteByID(r.Context(), productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", msgProductNotFound, nil)
			return
		}
		if errors.Is(err, service.ErrProductImageCleanupFailed) {
			observability.EmitAudit(r, observability.AuditInput{
				EventName:  "product.delete",
				TargetType: "product",
				TargetID:   targetID,
				Action:     "delete",
				Outcome:    "failure",
				Reason:     "image_cleanup_failed",
			})
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", msgProductDelFailed, nil)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:  "product.delete",
		TargetType: "product",
		TargetID:   targetID,
		Action:     "delete",
		Outcome:    "success",
		Reason:     "product_deleted",
	})
	response.JSON(w, r, http.StatusOK, map[string]string{"message": msgProductDeleted})
}

func productIDParam(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", msgInvalidProductID, nil)
		return 0, false
	}
	return id, true
}

func decodeProductInput(w http.ResponseWriter, r *http.Request) (service.ProductInput, bool) {
	var body productPayload
	if err := decodeJSON(r, &body); err != nil {
		if bodyTooLarge(err) {
			response.Error(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", msgBodyTooLarge, nil)
			return service.ProductInput{}, false
		}
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", msgInvalidProductBody, nil)
		return service.ProductInput{}, false
	}
	if err := validate.Struct(body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", msgInvalidProductBody, map[string]any{"missing": missingFields(err)})
		return service.ProductInput{}, false
	}
	input, err := body.toInput()
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", msgInvalidProductBody, map[string]any{"invalid": []string{"quantity"}})
		return service.ProductInput{}, false
	}
	return input, true
}
