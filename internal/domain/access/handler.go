package access

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/caretrail/caretrail/internal/domain/accesslog"
	"github.com/caretrail/caretrail/internal/domain/actor"
	"github.com/caretrail/caretrail/internal/domain/consent"
	"github.com/caretrail/caretrail/internal/domain/record"
	"github.com/caretrail/caretrail/internal/platform/auth"
	"github.com/caretrail/caretrail/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/actors", h.RegisterActor)
	api.GET("/actors", h.ListActors)
	api.GET("/actors/:address", h.GetActor)

	api.POST("/consents", h.GrantConsent)
	api.DELETE("/consents/:patient/:provider", h.RevokeConsent)
	api.GET("/patients/:address/consents", h.ListConsents)

	api.POST("/records", h.SubmitRecord)
	api.GET("/patients/:address/records", h.ListPatientRecords)
	api.PATCH("/records/:id", h.UpdateRecord)
	api.DELETE("/records/:id", h.ArchiveRecord)
	api.GET("/records/:id/logs", h.ListAccessLogs)
}

type registerActorRequest struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Role    string `json:"role"`
}

func (h *Handler) RegisterActor(c echo.Context) error {
	var req registerActorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	a, err := h.svc.Register(c.Request().Context(), req.Address, req.Name, actor.Role(req.Role))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListActors(c echo.Context) error {
	pg := pagination.FromContext(c)
	actors, total, err := h.svc.ListActors(c.Request().Context(), pg)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(actors, total, pg))
}

func (h *Handler) GetActor(c echo.Context) error {
	a, err := h.svc.Lookup(c.Request().Context(), c.Param("address"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, a)
}

type grantRequest struct {
	PatientAddress  string `json:"patient_address"`
	ProviderAddress string `json:"provider_address"`
}

func (h *Handler) GrantConsent(c echo.Context) error {
	var req grantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.PatientAddress == "" || req.ProviderAddress == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_address and provider_address are required")
	}

	// Only the patient themselves may grant.
	caller := auth.ActorAddressFromContext(c.Request().Context())
	if caller != req.PatientAddress {
		return echo.NewHTTPError(http.StatusForbidden, "only the patient may grant access")
	}

	if err := h.svc.Grant(c.Request().Context(), req.PatientAddress, req.ProviderAddress); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RevokeConsent(c echo.Context) error {
	patient := c.Param("patient")
	provider := c.Param("provider")

	caller := auth.ActorAddressFromContext(c.Request().Context())
	if caller != patient {
		return echo.NewHTTPError(http.StatusForbidden, "only the patient may revoke access")
	}

	if err := h.svc.Revoke(c.Request().Context(), patient, provider); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListConsents(c echo.Context) error {
	patient := c.Param("address")
	caller := auth.ActorAddressFromContext(c.Request().Context())
	if caller != patient {
		return echo.NewHTTPError(http.StatusForbidden, "only the patient may list their consents")
	}

	edges, err := h.svc.ListConsents(c.Request().Context(), patient)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, edges)
}

type submitRecordRequest struct {
	PatientAddress string `json:"patient_address"`
	ContentHash    string `json:"content_hash"`
	RecordType     string `json:"record_type"`
	Description    string `json:"description"`
}

func (h *Handler) SubmitRecord(c echo.Context) error {
	var req submitRecordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.PatientAddress == "" || req.ContentHash == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_address and content_hash are required")
	}

	uploader := auth.ActorAddressFromContext(c.Request().Context())
	entry, err := h.svc.SubmitRecord(c.Request().Context(),
		req.PatientAddress, uploader, req.ContentHash,
		record.Type(req.RecordType), req.Description, c.RealIP())
	if err != nil {
		if errors.Is(err, ErrAuditAppendFailed) {
			// Record is durable, audit is pending. Degraded success.
			return c.JSON(http.StatusAccepted, entry)
		}
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, entry)
}

func (h *Handler) ListPatientRecords(c echo.Context) error {
	requester := auth.ActorAddressFromContext(c.Request().Context())
	includeArchived := c.QueryParam("include_archived") == "true"
	pg := pagination.FromContext(c)

	entries, total, err := h.svc.FetchPatientRecords(c.Request().Context(),
		c.Param("address"), requester, includeArchived, pg, c.RealIP())
	if err != nil {
		if errors.Is(err, ErrAuditAppendFailed) {
			// Records were read, some views are not yet in the trail.
			return c.JSON(http.StatusAccepted, pagination.NewResponse(entries, total, pg))
		}
		return mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, pg))
}

type updateRecordRequest struct {
	Description string `json:"description"`
}

func (h *Handler) UpdateRecord(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}
	var req updateRecordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	requester := auth.ActorAddressFromContext(c.Request().Context())
	entry, err := h.svc.UpdateRecord(c.Request().Context(), id, requester, req.Description, c.RealIP())
	if err != nil {
		if errors.Is(err, ErrAuditAppendFailed) {
			return c.JSON(http.StatusAccepted, entry)
		}
		return mapError(err)
	}
	return c.JSON(http.StatusOK, entry)
}

func (h *Handler) ArchiveRecord(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}

	requester := auth.ActorAddressFromContext(c.Request().Context())
	if err := h.svc.ArchiveRecord(c.Request().Context(), id, requester, c.RealIP()); err != nil {
		if errors.Is(err, ErrAuditAppendFailed) {
			return c.NoContent(http.StatusAccepted)
		}
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListAccessLogs(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}

	requester := auth.ActorAddressFromContext(c.Request().Context())
	logs, err := h.svc.FetchAccessLogs(c.Request().Context(), id, requester)
	if err != nil {
		return mapError(err)
	}
	if logs == nil {
		logs = []*accesslog.Entry{}
	}
	return c.JSON(http.StatusOK, logs)
}

// mapError converts domain sentinels to HTTP errors so callers can tell
// "fix your input" from "get a grant first" from "this will never succeed".
func mapError(err error) error {
	switch {
	case errors.Is(err, actor.ErrAlreadyRegistered):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, actor.ErrInvalidRole),
		errors.Is(err, actor.ErrEmptyAddress),
		errors.Is(err, record.ErrInvalidType),
		errors.Is(err, record.ErrEmptyContentHash):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, actor.ErrNotFound),
		errors.Is(err, record.ErrNotFound),
		errors.Is(err, accesslog.ErrRecordNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotAuthorized),
		errors.Is(err, consent.ErrNotAPatient),
		errors.Is(err, consent.ErrTargetIsPatient):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, consent.ErrNotRegistered):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
