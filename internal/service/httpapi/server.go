package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
	"github.com/vladislavdragonenkov/orderflow/internal/service/product"
	"github.com/vladislavdragonenkov/orderflow/internal/service/saga"
)

// Server реализует JSON API поверх саги заказов и каталога товаров.
type Server struct {
	saga     saga.Orchestrator
	orders   domain.OrderRepository
	timeline domain.TimelineRepository
	products product.Service
	idemRepo domain.IdempotencyRepository
	logger   *log.Entry
}

// NewServer конструирует API-сервер с зависимостями.
func NewServer(
	orchestrator saga.Orchestrator,
	orders domain.OrderRepository,
	timeline domain.TimelineRepository,
	products product.Service,
	idemRepo domain.IdempotencyRepository,
	logger *log.Entry,
) *Server {
	if logger == nil {
		logger = log.New().WithField("component", "httpapi")
	}
	return &Server{
		saga:     orchestrator,
		orders:   orders,
		timeline: timeline,
		products: products,
		idemRepo: idemRepo,
		logger:   logger,
	}
}

// Handler возвращает маршрутизатор API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/orders", s.withIdempotency(s.handleCreateOrder))
	mux.HandleFunc("GET /api/v1/orders/{id}", s.handleGetOrder)
	mux.HandleFunc("GET /api/v1/orders", s.handleListOrders)
	mux.HandleFunc("POST /api/v1/products", s.handleCreateProduct)
	mux.HandleFunc("GET /api/v1/products/{id}", s.handleGetProduct)
	mux.HandleFunc("GET /api/v1/products", s.handleListProducts)
	mux.HandleFunc("POST /api/v1/products/purchase", s.withIdempotency(s.handlePurchaseProducts))
	return mux
}

type createOrderRequest struct {
	Reference     string          `json:"reference"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	CustomerID    string          `json:"customer_id"`
	Lines         []purchaseLine  `json:"lines"`
}

type purchaseLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int32 `json:"quantity"`
}

type createOrderResponse struct {
	OrderID int64 `json:"order_id"`
}

type orderResponse struct {
	ID            int64               `json:"id"`
	Reference     string              `json:"reference"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	PaymentMethod string              `json:"payment_method"`
	CustomerID    string              `json:"customer_id"`
	Lines         []orderLineResponse `json:"lines"`
	Timeline      []timelineEvent     `json:"timeline,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

type orderLineResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type timelineEvent struct {
	Type     string    `json:"type"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurred"`
}

type createProductRequest struct {
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	AvailableQuantity int32           `json:"available_quantity"`
	Price             decimal.Decimal `json:"price"`
	CategoryID        int64           `json:"category_id"`
}

type productResponse struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	AvailableQuantity int32           `json:"available_quantity"`
	Price             decimal.Decimal `json:"price"`
	CategoryID        int64           `json:"category_id"`
}

type purchaseRequest struct {
	Lines []purchaseLine `json:"lines"`
}

type purchaseResponse struct {
	Products []purchaseResultResponse `json:"products"`
}

type purchaseResultResponse struct {
	ProductID   int64           `json:"product_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int32           `json:"quantity"`
}

type errorResponse struct {
	Error     string          `json:"error"`
	OrderID   int64           `json:"order_id,omitempty"`
	Shortages []stockShortage `json:"shortages,omitempty"`
	Missing   []int64         `json:"missing_product_ids,omitempty"`
}

type stockShortage struct {
	ProductID int64 `json:"product_id"`
	Requested int32 `json:"requested"`
	Available int32 `json:"available"`
}

func (s *Server) handleCreateOrder(r *http.Request) (int, any) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return http.StatusBadRequest, errorResponse{Error: "invalid request body"}
	}

	lines := make([]domain.PurchaseLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, domain.PurchaseLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	orderID, err := s.saga.CreateOrder(domain.OrderRequest{
		Reference:     req.Reference,
		Amount:        req.Amount,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		CustomerID:    req.CustomerID,
		Lines:         lines,
	})
	if err != nil {
		return s.orderError(orderID, err)
	}

	return http.StatusCreated, createOrderResponse{OrderID: orderID}
}

// orderError маппит ошибку саги в HTTP-ответ. Для пост-коммитных сбоев
// (orderID != 0) заказ уже сохранён, идентификатор возвращается вместе с ошибкой.
func (s *Server) orderError(orderID int64, err error) (int, any) {
	resp := errorResponse{Error: err.Error(), OrderID: orderID}

	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		for _, shortage := range insufficient.Shortages {
			resp.Shortages = append(resp.Shortages, stockShortage{
				ProductID: shortage.ProductID,
				Requested: shortage.Requested,
				Available: shortage.Available,
			})
		}
		return http.StatusConflict, resp
	}

	var notFound *domain.ProductNotFoundError
	if errors.As(err, &notFound) {
		resp.Missing = notFound.MissingIDs
		return http.StatusNotFound, resp
	}

	switch {
	case errors.Is(err, domain.ErrCustomerNotFound):
		return http.StatusNotFound, resp
	case errors.Is(err, domain.ErrOrderReferenceTaken):
		return http.StatusConflict, resp
	case errors.Is(err, domain.ErrCustomerLookupFailed),
		errors.Is(err, domain.ErrPaymentRequestFailed),
		errors.Is(err, domain.ErrEventPublishFailed):
		return http.StatusBadGateway, resp
	case errors.Is(err, domain.ErrOrderPersistenceFailed):
		return http.StatusInternalServerError, resp
	case orderID == 0:
		// Остальные ошибки до сохранения — ошибки валидации запроса.
		return http.StatusBadRequest, resp
	default:
		return http.StatusInternalServerError, resp
	}
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid order id"})
		return
	}

	order, err := s.orders.Get(id)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		}
		s.logger.WithError(err).WithField("order_id", id).Error("failed to load order")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load order"})
		return
	}

	writeJSON(w, http.StatusOK, s.toOrderResponse(order, true))
}

func (s *Server) handleListOrders(w http.ResponseWriter, _ *http.Request) {
	orders, err := s.orders.List()
	if err != nil {
		s.logger.WithError(err).Error("failed to list orders")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list orders"})
		return
	}

	result := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		result = append(result, s.toOrderResponse(order, false))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	created, err := s.products.Create(domain.Product{
		Name:              req.Name,
		Description:       req.Description,
		AvailableQuantity: req.AvailableQuantity,
		Price:             req.Price,
		CategoryID:        req.CategoryID,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, toProductResponse(created))
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return
	}

	found, err := s.products.FindByID(id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		}
		s.logger.WithError(err).WithField("product_id", id).Error("failed to load product")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load product"})
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(found))
}

func (s *Server) handleListProducts(w http.ResponseWriter, _ *http.Request) {
	products, err := s.products.List()
	if err != nil {
		s.logger.WithError(err).Error("failed to list products")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list products"})
		return
	}

	result := make([]productResponse, 0, len(products))
	for _, p := range products {
		result = append(result, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePurchaseProducts(r *http.Request) (int, any) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return http.StatusBadRequest, errorResponse{Error: "invalid request body"}
	}

	lines := make([]domain.PurchaseLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, domain.PurchaseLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	results, err := s.products.Purchase(lines)
	if err != nil {
		return s.orderError(0, err)
	}

	resp := purchaseResponse{Products: make([]purchaseResultResponse, 0, len(results))}
	for _, result := range results {
		resp.Products = append(resp.Products, purchaseResultResponse{
			ProductID:   result.ProductID,
			Name:        result.Name,
			Description: result.Description,
			Price:       result.Price,
			Quantity:    result.Quantity,
		})
	}
	return http.StatusOK, resp
}

func (s *Server) toOrderResponse(order domain.Order, withTimeline bool) orderResponse {
	resp := orderResponse{
		ID:            order.ID,
		Reference:     order.Reference,
		TotalAmount:   order.TotalAmount,
		PaymentMethod: string(order.PaymentMethod),
		CustomerID:    order.CustomerID,
		Lines:         make([]orderLineResponse, 0, len(order.Lines)),
		CreatedAt:     order.CreatedAt,
	}
	for _, line := range order.Lines {
		resp.Lines = append(resp.Lines, orderLineResponse{
			ID:        line.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}
	if withTimeline {
		resp.Timeline = s.buildTimeline(order.Reference)
	}
	return resp
}

func (s *Server) buildTimeline(reference string) []timelineEvent {
	if s.timeline == nil {
		return nil
	}
	events, err := s.timeline.List(reference)
	if err != nil {
		s.logger.WithError(err).WithField("reference", reference).Warn("failed to list timeline events")
		return nil
	}
	result := make([]timelineEvent, 0, len(events))
	for _, event := range events {
		result = append(result, timelineEvent{
			Type:     event.Type,
			Reason:   event.Reason,
			Occurred: event.Occurred,
		})
	}
	return result
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		AvailableQuantity: p.AvailableQuantity,
		Price:             p.Price,
		CategoryID:        p.CategoryID,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("failed to encode response body")
	}
}
