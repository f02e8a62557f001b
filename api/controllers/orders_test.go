package controllers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	ordersvc "github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubOrderService struct {
	ordersvc.Service
	actor        ordersvc.Actor
	reason       string
	userInput    ordersvc.ListUserOrdersInput
	statusInput  ordersvc.UpdateStatusInput
	returnInput  ordersvc.ProcessReturnInput
	statsFrom    time.Time
	statsTo      time.Time
	refundAmount int
	err          error
}

func (s *stubOrderService) result(id uuid.UUID) (*ordersvc.OrderDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ordersvc.OrderDTO{ID: id}, nil
}

func (s *stubOrderService) ListUserOrders(_ context.Context, _ uuid.UUID, input ordersvc.ListUserOrdersInput) (*ordersvc.OrderList, error) {
	s.userInput = input
	return &ordersvc.OrderList{Orders: []ordersvc.OrderDTO{}}, s.err
}

func (s *stubOrderService) GetOrder(_ context.Context, actor ordersvc.Actor, id uuid.UUID) (*ordersvc.OrderDTO, error) {
	s.actor = actor
	return s.result(id)
}

func (s *stubOrderService) Cancel(_ context.Context, actor ordersvc.Actor, id uuid.UUID, reason string) (*ordersvc.OrderDTO, error) {
	s.actor, s.reason = actor, reason
	return s.result(id)
}

func (s *stubOrderService) RequestReturn(_ context.Context, actor ordersvc.Actor, id uuid.UUID, reason string) (*ordersvc.OrderDTO, error) {
	s.actor, s.reason = actor, reason
	return s.result(id)
}

func (s *stubOrderService) UpdateStatus(_ context.Context, actor ordersvc.Actor, id uuid.UUID, input ordersvc.UpdateStatusInput) (*ordersvc.OrderDTO, error) {
	s.actor, s.statusInput = actor, input
	return s.result(id)
}

func (s *stubOrderService) Refund(_ context.Context, actor ordersvc.Actor, id uuid.UUID, amount int) (*ordersvc.OrderDTO, error) {
	s.actor, s.refundAmount = actor, amount
	return s.result(id)
}

func (s *stubOrderService) ProcessReturn(_ context.Context, actor ordersvc.Actor, id uuid.UUID, input ordersvc.ProcessReturnInput) (*ordersvc.OrderDTO, error) {
	s.actor, s.returnInput = actor, input
	return s.result(id)
}

func (s *stubOrderService) SalesStats(_ context.Context, from, to time.Time) (*ordersvc.SalesStats, error) {
	s.statsFrom, s.statsTo = from, to
	return &ordersvc.SalesStats{From: from, To: to}, s.err
}

func orderParams(id uuid.UUID) map[string]string {
	return map[string]string{"orderId": id.String()}
}

func TestOrderListPassesCursorAndStatus(t *testing.T) {
	svc := &stubOrderService{}
	req := asUser(newRequest(http.MethodGet, "/api/v1/orders?limit=5&cursor=abc&status=shipped", "", nil), uuid.New(), "customer")
	resp := serve(OrderList(svc, nil), req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.userInput.Params.Limit != 5 || svc.userInput.Params.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", svc.userInput.Params)
	}
	if svc.userInput.Status == nil || *svc.userInput.Status != enums.OrderStatusShipped {
		t.Fatalf("unexpected status filter %v", svc.userInput.Status)
	}
}

func TestOrderListRejectsUnknownStatus(t *testing.T) {
	req := asUser(newRequest(http.MethodGet, "/api/v1/orders?status=lost", "", nil), uuid.New(), "customer")
	if resp := serve(OrderList(&stubOrderService{}, nil), req); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderCancelCarriesActor(t *testing.T) {
	userID, orderID := uuid.New(), uuid.New()
	svc := &stubOrderService{}
	req := asUser(newRequest(http.MethodPost, "/", `{"reason":"changed my mind"}`, orderParams(orderID)), userID, "customer")
	resp := serve(OrderCancel(svc, nil), req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.actor.UserID != userID || svc.actor.Role != enums.ActorRoleCustomer || svc.reason != "changed my mind" {
		t.Fatalf("unexpected actor/reason %+v %q", svc.actor, svc.reason)
	}
}

func TestOrderCancelInvalidTransition(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeInvalidTransition, "cannot cancel a shipped order")}
	req := asUser(newRequest(http.MethodPost, "/", `{}`, orderParams(uuid.New())), uuid.New(), "customer")
	resp := serve(OrderCancel(svc, nil), req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if got := decodeError(t, resp); got.Code != string(pkgerrors.CodeInvalidTransition) {
		t.Fatalf("unexpected code %s", got.Code)
	}
}

func TestOrderRequestReturnRequiresReason(t *testing.T) {
	svc := &stubOrderService{}
	req := asUser(newRequest(http.MethodPost, "/", `{"reason":""}`, orderParams(uuid.New())), uuid.New(), "customer")
	if resp := serve(OrderRequestReturn(svc, nil), req); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderRequestReturnWindowExpired(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeReturnWindowExpired, "return window has closed")}
	req := asUser(newRequest(http.MethodPost, "/", `{"reason":"too small"}`, orderParams(uuid.New())), uuid.New(), "customer")
	resp := serve(OrderRequestReturn(svc, nil), req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestAdminOrderUpdateStatusWithShipping(t *testing.T) {
	adminID := uuid.New()
	svc := &stubOrderService{}
	body := `{"status":"shipped","note":"left warehouse","shipping":{"carrier":"UPS","tracking_number":"1Z999"}}`
	req := asUser(newRequest(http.MethodPost, "/", body, orderParams(uuid.New())), adminID, "admin")
	resp := serve(AdminOrderUpdateStatus(svc, nil), req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.statusInput.Status != enums.OrderStatusShipped || svc.statusInput.Shipping == nil || svc.statusInput.Shipping.Carrier != "UPS" {
		t.Fatalf("unexpected status input %+v", svc.statusInput)
	}
	if svc.actor.Role != enums.ActorRoleAdmin {
		t.Fatalf("unexpected actor %+v", svc.actor)
	}
}

func TestAdminOrderRefundRejectsNonPositiveAmount(t *testing.T) {
	svc := &stubOrderService{}
	req := asUser(newRequest(http.MethodPost, "/", `{"amount_cents":0}`, orderParams(uuid.New())), uuid.New(), "admin")
	if resp := serve(AdminOrderRefund(svc, nil), req); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	req = asUser(newRequest(http.MethodPost, "/", `{"amount_cents":1500}`, orderParams(uuid.New())), uuid.New(), "admin")
	if resp := serve(AdminOrderRefund(svc, nil), req); resp.Code != http.StatusOK || svc.refundAmount != 1500 {
		t.Fatalf("unexpected refund: %d %d", resp.Code, svc.refundAmount)
	}
}

func TestAdminOrderProcessReturnParsesDecision(t *testing.T) {
	svc := &stubOrderService{}
	req := asUser(newRequest(http.MethodPost, "/", `{"status":"completed","refund_amount_cents":2599}`, orderParams(uuid.New())), uuid.New(), "admin")
	resp := serve(AdminOrderProcessReturn(svc, nil), req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.returnInput.Status != enums.ReturnStatusCompleted || svc.returnInput.RefundAmountCents == nil || *svc.returnInput.RefundAmountCents != 2599 {
		t.Fatalf("unexpected return input %+v", svc.returnInput)
	}

	req = asUser(newRequest(http.MethodPost, "/", `{"status":"maybe"}`, orderParams(uuid.New())), uuid.New(), "admin")
	if resp := serve(AdminOrderProcessReturn(svc, nil), req); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminOrderStatsDefaultsToThirtyDays(t *testing.T) {
	svc := &stubOrderService{}
	resp := serve(AdminOrderStats(svc, nil), asUser(newRequest(http.MethodGet, "/api/v1/admin/orders/stats?to=2026-04-30", "", nil), uuid.New(), "admin"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	wantTo := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	if !svc.statsTo.Equal(wantTo) || !svc.statsFrom.Equal(wantTo.Add(-30*24*time.Hour)) {
		t.Fatalf("unexpected window %s - %s", svc.statsFrom, svc.statsTo)
	}

	resp = serve(AdminOrderStats(svc, nil), newRequest(http.MethodGet, "/?from=yesterday", "", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
