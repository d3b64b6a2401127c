package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/profitus-pos/internal/httpx/middlewares"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.Trace)
	r.Use(middlewares.AttachRequestMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", handler.SearchProducts)
		r.Post("/", handler.CreateProduct)
		r.Get("/low-stock", handler.ListLowStock)
		r.Get("/{id}", handler.GetProduct)
		r.Put("/{id}", handler.UpdateProduct)
		r.Delete("/{id}", handler.DeleteProduct)
	})

	r.Get("/rate", handler.GetRate)
	r.Put("/rate", handler.SetRate)

	r.Get("/settings/{key}", handler.GetSetting)
	r.Put("/settings/{key}", handler.PutSetting)

	r.Route("/carts", func(r chi.Router) {
		r.Post("/", handler.CreateCart)
		r.Get("/{id}", handler.GetCart)
		r.Post("/{id}/lines", handler.AddLine)
		r.Put("/{id}/lines/{productID}", handler.SetLineQuantity)
		r.Post("/{id}/lines/{productID}/adjust", handler.AdjustLineQuantity)
		r.Delete("/{id}/lines/{productID}", handler.RemoveLine)
		r.Post("/{id}/checkout", handler.Checkout)
	})

	r.Route("/sales", func(r chi.Router) {
		r.Get("/", handler.ListSales)
		r.Get("/{id}", handler.GetSale)
		r.Put("/{id}/lines/{lineID}", handler.EditSaleLine)
		r.Delete("/{id}/lines/{lineID}", handler.DeleteSaleLine)
	})

	return r
}
