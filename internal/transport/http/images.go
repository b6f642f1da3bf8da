package http

import (
	"errors"
	"net/http"
	"net/url"
	"path"

	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
	"github.com/kahvecikaan/product-catalog/internal/files"
	"github.com/kahvecikaan/product-catalog/internal/service"
)

// ImageHandler reads and writes product images
type ImageHandler struct {
	productService service.ProductService
	store          files.Storage
	logger         hclog.Logger
}

func NewImageHandler(ps service.ProductService, store files.Storage, log hclog.Logger) *ImageHandler {
	return &ImageHandler{
		productService: ps,
		store:          store,
		logger:         log,
	}
}

// DeleteAll removes every image stored for a product. Failures are logged
// only; the product itself is already gone.
func (h *ImageHandler) DeleteAll(id string) {
	if err := h.store.DeleteAll(id); err != nil {
		h.logger.Error("Unable to remove images of deleted product", "id", id, "error", err)
	}
}

// Upload handles POST /images/{id}/{filename}
//
// swagger:route POST /images/{id}/{filename} images uploadImage
//
// Stores the raw request body as an image of an existing product.
//
// Responses:
//
//	201: imageResponse
//	400: errorResponse
//	404: errorResponse
//	413: errorResponse
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, fn := vars["id"], vars["filename"]

	h.logger.Debug("Handle image upload", "id", id, "filename", fn)

	// images may only be attached to products that exist
	if _, err := h.productService.GetProduct(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := h.store.Save(id, fn, r.Body); err != nil {
		h.writeStorageError(w, id, fn, err)
		return
	}

	writeJSON(w, http.StatusCreated, ImageResponse{URL: imageURL(r, id, fn)})
}

// imageURL builds an absolute link to an image from the scheme and host the
// request arrived on, so it can be stored as a product's imageUrl.
func imageURL(r *http.Request, id, fn string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}

	u := url.URL{Scheme: scheme, Host: r.Host, Path: path.Join("/images", id, fn)}
	return u.String()
}

// Download handles GET /images/{id}/{filename}
func (h *ImageHandler) Download(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, fn := vars["id"], vars["filename"]

	h.logger.Debug("Handle image download", "id", id, "filename", fn)

	// images of deleted products are not served
	if _, err := h.productService.GetProduct(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	f, err := h.store.Get(id, fn)
	if err != nil {
		h.writeStorageError(w, id, fn, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.writeStorageError(w, id, fn, err)
		return
	}

	http.ServeContent(w, r, fn, info.ModTime(), f)
}

func (h *ImageHandler) writeStorageError(w http.ResponseWriter, id, fn string, err error) {
	switch {
	case errors.Is(err, files.ErrInvalidName):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorKindBadRequest, Message: err.Error()})
	case errors.Is(err, files.ErrFileTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: ErrorKindTooLarge, Message: err.Error()})
	case errors.Is(err, files.ErrFileNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: ErrorKindNotFound, Message: err.Error()})
	default:
		h.logger.Error("Unable to access image", "id", id, "filename", fn, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrorKindServer})
	}
}
