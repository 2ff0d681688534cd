package blobstore

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler exposes blob upload and download. Upload returns the content hash
// the caller then passes to the record submission endpoint.
type Handler struct {
	store BlobStore
}

func NewHandler(store BlobStore) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/blobs", h.Upload)
	api.GET("/blobs/:hash", h.Download)
}

func (h *Handler) Upload(c echo.Context) error {
	body := http.MaxBytesReader(nil, c.Request().Body, MaxBlobSize+1)
	data, err := io.ReadAll(body)
	if err != nil {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "blob too large")
	}

	hash, err := h.store.Put(c.Request().Context(), data)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyBlob):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrBlobTooLarge):
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"content_hash": hash,
		"size":         len(data),
	})
}

func (h *Handler) Download(c echo.Context) error {
	data, err := h.store.Get(c.Request().Context(), c.Param("hash"))
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "blob not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Blob(http.StatusOK, "application/octet-stream", data)
}
