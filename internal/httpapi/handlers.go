package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/service/register"
)

// VersionHeader содержит текущую версию списка товаров.
const VersionHeader = "X-Products-Version"

const (
	msgProductAdded       = "Product added"
	msgCheckoutSuccessful = "Checkout successful"
	msgProductsCleared    = "all products cleared"
)

type clearResponse struct {
	Status string `json:"status"`
}

// API обслуживает эндпоинты регистратора.
type API struct {
	service *register.Service
	logger  *log.Entry
}

// NewAPI создаёт обработчики поверх сервиса регистратора.
func NewAPI(service *register.Service, logger *log.Entry) *API {
	if logger == nil {
		logger = log.WithField("component", "httpapi")
	}
	return &API{service: service, logger: logger}
}

func (a *API) addProduct(w http.ResponseWriter, r *http.Request) {
	body, ok := a.readBody(w, r)
	if !ok {
		return
	}

	version, err := a.service.AddProduct(r.Context(), body)
	if err != nil {
		a.internalError(w, r, err)
		return
	}

	a.logger.WithFields(log.Fields{
		"request_id": RequestIDFromContext(r.Context()),
		"product":    string(body),
	}).Info("product added")

	setVersion(w, version)
	writeText(w, http.StatusOK, msgProductAdded)
}

func (a *API) listProducts(w http.ResponseWriter, r *http.Request) {
	items, version, err := a.service.ListProducts(r.Context())
	if err != nil {
		a.internalError(w, r, err)
		return
	}

	setVersion(w, version)
	writeJSON(w, http.StatusOK, items)
}

func (a *API) clearProducts(w http.ResponseWriter, r *http.Request) {
	var (
		version uint64
		err     error
	)

	if raw := r.URL.Query().Get("version"); raw != "" {
		expected, parseErr := strconv.ParseUint(raw, 10, 64)
		if parseErr != nil {
			WriteJSONError(w, http.StatusBadRequest, "invalid_version", parseErr.Error())
			return
		}
		version, err = a.service.ClearProductsIfVersion(r.Context(), expected)
	} else {
		version, err = a.service.ClearProducts(r.Context())
	}

	if err != nil {
		if domain.IsVersionConflict(err) {
			setVersion(w, version)
			WriteJSONError(w, http.StatusConflict, "version_conflict", fmt.Sprintf("current version is %d", version))
			return
		}
		a.internalError(w, r, err)
		return
	}

	setVersion(w, version)
	writeJSON(w, http.StatusOK, clearResponse{Status: msgProductsCleared})
}

func (a *API) recordCheckout(w http.ResponseWriter, r *http.Request) {
	body, ok := a.readBody(w, r)
	if !ok {
		return
	}

	if _, err := a.service.RecordCheckout(r.Context(), body); err != nil {
		a.internalError(w, r, err)
		return
	}

	writeText(w, http.StatusOK, msgCheckoutSuccessful)
}

func (a *API) readBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	body, err := ReadBody(w, r)
	switch {
	case err == nil:
		return body, true
	case errors.Is(err, domain.ErrBodyTooLarge):
		WriteJSONError(w, http.StatusRequestEntityTooLarge, "payload_too_large", err.Error())
	case errors.Is(err, domain.ErrInvalidBody):
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
	default:
		WriteJSONError(w, http.StatusBadRequest, "bad_request", err.Error())
	}
	return nil, false
}

func (a *API) internalError(w http.ResponseWriter, r *http.Request, err error) {
	a.logger.WithError(err).WithField("request_id", RequestIDFromContext(r.Context())).Error("request failed")
	WriteJSONError(w, http.StatusInternalServerError, "internal_error", "")
}

func setVersion(w http.ResponseWriter, version uint64) {
	w.Header().Set(VersionHeader, strconv.FormatUint(version, 10))
}
