package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/vietcart/vietcart-backend/api/middleware"
	cartsvc "github.com/vietcart/vietcart-backend/internal/cart"
	pkgerrors "github.com/vietcart/vietcart-backend/pkg/errors"
)

type stubCartService struct {
	dto       *cartsvc.CartDTO
	err       error
	addedID   uuid.UUID
	addedQty  int
	addCalled bool
}

func (s *stubCartService) GetCart(ctx context.Context, customerID uuid.UUID) (*cartsvc.CartDTO, error) {
	return s.dto, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, customerID, productID uuid.UUID, qty int) (*cartsvc.CartDTO, error) {
	s.addCalled = true
	s.addedID = productID
	s.addedQty = qty
	return s.dto, s.err
}

func (s *stubCartService) UpdateItemQuantity(ctx context.Context, customerID, itemID uuid.UUID, qty int) (*cartsvc.CartDTO, error) {
	return s.dto, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (*cartsvc.CartDTO, error) {
	return s.dto, s.err
}

func (s *stubCartService) UpdateItemSelection(ctx context.Context, customerID, itemID uuid.UUID, selected bool) (*cartsvc.CartDTO, error) {
	return s.dto, s.err
}

func (s *stubCartService) SaveForLater(ctx context.Context, customerID, itemID uuid.UUID) (*cartsvc.CartDTO, error) {
	return s.dto, s.err
}

func (s *stubCartService) MoveToCart(ctx context.Context, customerID, itemID uuid.UUID) (*cartsvc.CartDTO, error) {
	return s.dto, s.err
}

func (s *stubCartService) ClearCart(ctx context.Context, customerID uuid.UUID) error {
	return s.err
}

func withCustomer(req *http.Request, customerID uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithCustomerID(req.Context(), customerID.String()))
}

func TestCartFetchSuccess(t *testing.T) {
	customerID := uuid.New()
	dto := &cartsvc.CartDTO{ID: uuid.New()}
	handler := CartFetch(&stubCartService{dto: dto}, nil)

	req := withCustomer(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), customerID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data cartsvc.CartDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != dto.ID {
		t.Fatalf("unexpected cart id: %s", envelope.Data.ID)
	}
}

func TestCartFetchMissingCustomerContext(t *testing.T) {
	handler := CartFetch(&stubCartService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartAddItemValidatesBody(t *testing.T) {
	svc := &stubCartService{dto: &cartsvc.CartDTO{}}
	handler := CartAddItem(svc, nil)

	req := withCustomer(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items",
		strings.NewReader(`{"product_id":"`+uuid.NewString()+`","quantity":0}`)), uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero quantity got %d", resp.Code)
	}
	if svc.addCalled {
		t.Fatal("service should not be called on invalid body")
	}
}

func TestCartAddItemSuccess(t *testing.T) {
	productID := uuid.New()
	svc := &stubCartService{dto: &cartsvc.CartDTO{ID: uuid.New()}}
	handler := CartAddItem(svc, nil)

	req := withCustomer(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items",
		strings.NewReader(`{"product_id":"`+productID.String()+`","quantity":3}`)), uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.addedID != productID || svc.addedQty != 3 {
		t.Fatalf("unexpected add args: %s qty %d", svc.addedID, svc.addedQty)
	}
}

func TestCartUpdateItemConflictPassesThrough(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "only 2 left in stock")}
	handler := CartUpdateItem(svc, nil)

	req := withCustomer(httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/"+uuid.NewString(),
		strings.NewReader(`{"quantity":5}`)), uuid.New())
	req = withURLParam(req, "itemId", uuid.NewString())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "only 2 left in stock") {
		t.Fatalf("expected typed message in body, got %s", resp.Body.String())
	}
}
