package controllers

import (
	"net/http"

	json "github.com/goccy/go-json"

	"ard/internal/models"
	"ard/internal/providers"
	"ard/internal/reply"
	"ard/internal/reply/interfaces"
	"ard/internal/services"
)

const maxRequestBodySize = 1 << 20 // 1 MB

// ApiController exposes the account record over HTTP: the change path every
// external editor goes through. A successful update is persisted and then
// applied to the running dispatcher, which re-evaluates the inbound
// subscription and, on the strike-out off-to-on edge, reconciles from history.
type ApiController struct {
	logger     providers.Logger
	service    services.RuleServiceInterface
	store      interfaces.AccountStoreInterface
	persister  interfaces.PersisterInterface
	dispatcher *reply.Dispatcher
}

func NewApiController(logger providers.Logger, service services.RuleServiceInterface, store interfaces.AccountStoreInterface, persister interfaces.PersisterInterface, dispatcher *reply.Dispatcher) *ApiController {
	return &ApiController{
		logger:     logger,
		service:    service,
		store:      store,
		persister:  persister,
		dispatcher: dispatcher,
	}
}

func (ac *ApiController) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, ac.service.Snapshot())
}

func (ac *ApiController) SetConfig(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var raw models.RawAccountConfig
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	incoming := raw.Normalized()

	uin := ac.service.Uin()
	if uin == "" {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	// Drain any pending runtime write first so the merge below sees current
	// strike state rather than a stale on-disk copy.
	if err := ac.persister.Flush(); err != nil {
		ac.logger.Warnf(providers.TypeApp, "pre-update flush failed: %s", err)
	}

	latest, err := ac.store.Load(uin)
	if err != nil {
		ac.logger.Errorf(providers.TypeApp, "config update: load failed: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	merged := models.MergeEditorFields(latest, incoming)
	saved, err := ac.store.Save(uin, merged)
	if err != nil {
		ac.logger.Errorf(providers.TypeApp, "config update: save failed: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.dispatcher.ApplyConfig(saved)
	writeJSON(w, saved)
}

func writeJSON(w http.ResponseWriter, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}
