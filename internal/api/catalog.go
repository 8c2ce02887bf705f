package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"GameStore-Telegram-bot/internal/db"
	"GameStore-Telegram-bot/internal/payments"
)

func idParam(r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.store.GetCategories(r.Context())
	if err != nil {
		s.internalError(w, "list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	c, err := s.store.GetCategory(r.Context(), id)
	if s.notFoundOrError(w, "get category", err) {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var req db.CategoryUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	f := fieldErrors{}
	if req.Name == nil {
		f.add("name", "is required")
	}
	checkName(f, req.Name)
	if len(f) > 0 {
		writeValidation(w, f)
		return
	}
	c := db.Category{Name: *req.Name}
	if req.Icon != nil {
		c.Icon = *req.Icon
	}
	if err := s.store.CreateCategory(r.Context(), &c); err != nil {
		s.internalError(w, "create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	var req db.CategoryUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	f := fieldErrors{}
	checkName(f, req.Name)
	if len(f) > 0 {
		writeValidation(w, f)
		return
	}
	c, err := s.store.UpdateCategory(r.Context(), id, req)
	if s.notFoundOrError(w, "update category", err) {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	err := s.store.DeleteCategory(r.Context(), id)
	if errors.Is(err, db.ErrCategoryInUse) {
		writeError(w, http.StatusConflict, "category still has products")
		return
	}
	if s.notFoundOrError(w, "delete category", err) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	var (
		products []db.Product
		err      error
	)
	if raw := r.URL.Query().Get("categoryId"); raw != "" {
		id, perr := strconv.ParseUint(raw, 10, 32)
		if perr != nil {
			writeValidation(w, fieldErrors{"categoryId": "must be a number"})
			return
		}
		products, err = s.store.GetProductsByCategory(r.Context(), uint(id))
	} else {
		products, err = s.store.ListProducts(r.Context())
	}
	if err != nil {
		s.internalError(w, "list products", err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	p, err := s.store.GetProduct(r.Context(), id)
	if s.notFoundOrError(w, "get product", err) {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var req db.ProductUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	f := validateProduct(req)
	if req.Name == nil {
		f.add("name", "is required")
	}
	if req.Price == nil {
		f.add("price", "is required")
	}
	if req.CategoryID == nil {
		f.add("categoryId", "is required")
	}
	if !s.checkCategory(w, r, f, req.CategoryID) {
		return
	}
	if len(f) > 0 {
		writeValidation(w, f)
		return
	}

	p := db.Product{
		Name:          *req.Name,
		Price:         *req.Price,
		OriginalPrice: req.OriginalPrice,
		CategoryID:    *req.CategoryID,
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.Platform != nil {
		p.Platform = *req.Platform
	}
	if req.Region != nil {
		p.Region = *req.Region
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if err := s.store.CreateProduct(r.Context(), &p); err != nil {
		s.internalError(w, "create product", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req db.ProductUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	f := validateProduct(req)
	if !s.checkCategory(w, r, f, req.CategoryID) {
		return
	}
	if len(f) > 0 {
		writeValidation(w, f)
		return
	}
	p, err := s.store.UpdateProduct(r.Context(), id, req)
	if s.notFoundOrError(w, "update product", err) {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if s.notFoundOrError(w, "delete product", s.store.DeleteProduct(r.Context(), id)) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// checkCategory добавляет ошибку поля, если категории нет. false — ответ уже записан.
func (s *Server) checkCategory(w http.ResponseWriter, r *http.Request, f fieldErrors, id *uint) bool {
	if id == nil {
		return true
	}
	_, err := s.store.GetCategory(r.Context(), *id)
	switch {
	case errors.Is(err, db.ErrNotFound):
		f.add("categoryId", "category does not exist")
	case err != nil:
		s.internalError(w, "get category", err)
		return false
	}
	return true
}

func (s *Server) listPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := s.store.GetPaymentMethods(r.Context())
	if err != nil {
		s.internalError(w, "list payment methods", err)
		return
	}
	writeJSON(w, http.StatusOK, methods)
}

type methodRequest struct {
	Name    string        `json:"name"`
	Icon    string        `json:"icon"`
	Type    db.MethodType `json:"type"`
	Subtype string        `json:"subtype"`
}

func (s *Server) createPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req methodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	f := fieldErrors{}
	checkName(f, &req.Name)
	if !req.Type.Valid() {
		f.add("type", "must be one of crypto, p2p, card")
	} else if req.Subtype != "" && !payments.ValidSubtype(string(req.Type), req.Subtype) {
		f.add("subtype", "is not supported for this type")
	}
	if len(f) > 0 {
		writeValidation(w, f)
		return
	}
	m := db.PaymentMethod{Name: req.Name, Icon: req.Icon, Type: req.Type, Subtype: req.Subtype}
	if err := s.store.CreatePaymentMethod(r.Context(), &m); err != nil {
		s.internalError(w, "create payment method", err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// notFoundOrError пишет 404 или 500 и возвращает true, если err != nil
func (s *Server) notFoundOrError(w http.ResponseWriter, op string, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return true
	}
	s.internalError(w, op, err)
	return true
}
