package http

import (
	_ "embed"
	"net/http"

	"github.com/go-openapi/runtime/middleware"
	gohandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
	"github.com/kahvecikaan/product-catalog/internal/metrics"
	websocketTransport "github.com/kahvecikaan/product-catalog/internal/transport/websocket"
)

//go:embed swagger.yaml
var swaggerSpec []byte

// RouterOptions carries the handlers and settings NewRouter wires together
type RouterOptions struct {
	Products  *ProductHandler
	Images    *ImageHandler
	WebSocket *websocketTransport.Handler
	Logger    hclog.Logger

	// CORSOrigins lists the origins allowed to call the API from a browser.
	// When empty no CORS headers are sent.
	CORSOrigins []string
}

func NewRouter(opts RouterOptions) http.Handler {
	router := mux.NewRouter()

	mw := NewMiddleware(opts.Logger)

	// Apply global middleware
	router.Use(mw.LoggingMiddleware)
	router.Use(metrics.Middleware)

	ph := opts.Products

	api := router.PathPrefix("/api").Subrouter()
	api.Use(mw.ContentTypeMiddleware)

	getRouter := api.Methods(http.MethodGet).Subrouter()
	getRouter.HandleFunc("/products", ph.ListProducts)
	getRouter.HandleFunc("/products/{id}", ph.GetProduct)

	// Routes with a request body decode it before the handler runs
	postRouter := api.Methods(http.MethodPost).Subrouter()
	postRouter.HandleFunc("/products", ph.CreateProduct)
	postRouter.Use(mw.CreateBodyMiddleware)

	patchRouter := api.Methods(http.MethodPatch).Subrouter()
	patchRouter.HandleFunc("/products/{id}", ph.UpdateProduct)
	patchRouter.Use(mw.PatchBodyMiddleware)

	api.HandleFunc("/products/{id}", ph.DeleteProduct).Methods(http.MethodDelete)

	router.HandleFunc("/health", ph.Health).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	if opts.WebSocket != nil {
		router.HandleFunc("/ws", opts.WebSocket.HandleWebSocket).Methods(http.MethodGet)
	}

	if ih := opts.Images; ih != nil {
		router.HandleFunc("/images/{id}/{filename}", ih.Upload).Methods(http.MethodPost)
		router.Handle("/images/{id}/{filename}", gohandlers.CompressHandler(http.HandlerFunc(ih.Download))).Methods(http.MethodGet)
	}

	// Swagger specification and Redoc UI
	router.HandleFunc("/swagger.yaml", serveSwagger).Methods(http.MethodGet)

	redocOpts := middleware.RedocOpts{SpecURL: "/swagger.yaml", Title: "Product Catalog API"}
	router.Handle("/docs", middleware.Redoc(redocOpts, nil)).Methods(http.MethodGet)

	var handler http.Handler = router
	if len(opts.CORSOrigins) > 0 {
		handler = gohandlers.CORS(
			gohandlers.AllowedOrigins(opts.CORSOrigins),
			gohandlers.AllowedMethods([]string{
				http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
			}),
			gohandlers.AllowedHeaders([]string{"Content-Type", requestIDHeader}),
			gohandlers.ExposedHeaders([]string{requestIDHeader}),
		)(handler)
	}

	recoveryLogger := opts.Logger.StandardLogger(&hclog.StandardLoggerOptions{ForceLevel: hclog.Error})
	return gohandlers.RecoveryHandler(gohandlers.RecoveryLogger(recoveryLogger))(handler)
}

func serveSwagger(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(swaggerSpec)
}
