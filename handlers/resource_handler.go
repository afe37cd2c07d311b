package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/upb/compliance-data-agent/middleware"
	"github.com/upb/compliance-data-agent/models"
	"github.com/upb/compliance-data-agent/repositories"
	"github.com/upb/compliance-data-agent/services/idempotency"
	"github.com/upb/compliance-data-agent/services/policy"
	"github.com/upb/compliance-data-agent/utils"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	idempotencyKeyHeader = "Idempotency-Key"
)

// AuditRecorder is the audit sink controllers write to. Record never fails
// from the caller's point of view.
type AuditRecorder interface {
	Record(event *models.AuditEvent)
}

// PolicyChecker answers whether an actor role may perform an action.
type PolicyChecker interface {
	Check(ctx context.Context, action, resource, role string) policy.Decision
}

// ResourceHandler exposes the versioned CRUD surface for one resource type.
// All resource types share this handler; the ResourceSpec carries everything
// that differs between them.
type ResourceHandler struct {
	spec     models.ResourceSpec
	store    repositories.ResourceRepository
	recorder AuditRecorder
	oracle   PolicyChecker
	idem     *idempotency.Cache
	logger   *zap.Logger
}

// NewResourceHandler creates a new ResourceHandler for the given spec.
func NewResourceHandler(
	spec models.ResourceSpec,
	store repositories.ResourceRepository,
	recorder AuditRecorder,
	oracle PolicyChecker,
	idem *idempotency.Cache,
	logger *zap.Logger,
) *ResourceHandler {
	return &ResourceHandler{
		spec:     spec,
		store:    store,
		recorder: recorder,
		oracle:   oracle,
		idem:     idem,
		logger:   logger.With(zap.String("resource", spec.Name)),
	}
}

// Mount registers the CRUD routes on the given router.
func (h *ResourceHandler) Mount(r chi.Router) {
	r.Post("/", h.HandleCreate)
	r.Get("/", h.HandleList)
	r.Get("/{id}", h.HandleGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
}

// MountReadOnly registers only list and get, for the internal surface.
func (h *ResourceHandler) MountReadOnly(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Get("/{id}", h.HandleGet)
}

// HandleCreate handles POST /<resource>
func (h *ResourceHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	event := h.newEvent(r, "create")

	tenantID := resolveTenant(r)
	if tenantID == "" {
		h.audit(event.WithOutcome(models.AuditOutcomeFailure, "missing_tenant"))
		_ = utils.WriteBadRequest(w, "bad_request", "tenant_id is required")
		return
	}
	event.TenantID = tenantID

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.audit(event.WithOutcome(models.AuditOutcomeFailure, "invalid_json"))
		_ = utils.WriteBadRequest(w, "bad_request", "Request body must be a JSON object")
		return
	}

	// Replayed create: echo the original identity, touch nothing in the store.
	idemKey := r.Header.Get(idempotencyKeyHeader)
	if idemKey != "" {
		cacheKey := idempotency.Key{TenantID: tenantID, Resource: h.spec.Name, IdempotencyKey: idemKey}
		if entry, ok := h.idem.Get(cacheKey); ok {
			h.audit(event.WithTarget(entry.ID).WithOutcome(models.AuditOutcomeSuccess, "idempotent_hit"))
			data := map[string]any{
				"id":         entry.ID,
				"idempotent": true,
			}
			if h.spec.NaturalKey != "" {
				data[h.spec.NaturalKey] = entry.NaturalKey
			}
			_ = utils.WriteOK(w, data)
			return
		}
	}

	if reason, msg := h.validateCreate(body); reason != "" {
		h.audit(event.WithOutcome(models.AuditOutcomeFailure, reason))
		_ = utils.WriteValidationError(w, msg)
		return
	}

	record, err := h.store.Create(ctx, h.spec, tenantID, body)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			h.audit(event.WithOutcome(models.AuditOutcomeConflict, "duplicate_natural_key"))
			_ = utils.WriteConflict(w, "conflict", "A record with the same unique key already exists")
			return
		}
		h.logger.Error("create failed",
			zap.String("request_id", event.RequestID),
			zap.Error(err))
		h.audit(event.WithOutcome(models.AuditOutcomeFailure, "store_error"))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	var id uuid.UUID
	if s, ok := record["id"].(string); ok {
		id, _ = uuid.Parse(s)
	}
	if idemKey != "" {
		naturalKey := ""
		if h.spec.NaturalKey != "" {
			naturalKey, _ = record[h.spec.NaturalKey].(string)
		}
		h.idem.Put(
			idempotency.Key{TenantID: tenantID, Resource: h.spec.Name, IdempotencyKey: idemKey},
			idempotency.Entry{ID: id, NaturalKey: naturalKey},
		)
	}

	h.audit(event.WithTarget(id).WithOutcome(models.AuditOutcomeSuccess, "created"))
	_ = utils.WriteCreated(w, record)
}

// HandleList handles GET /<resource>
func (h *ResourceHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	event := h.newEvent(r, "list")

	tenantID := resolveTenant(r)
	if tenantID == "" {
		h.audit(event.WithOutcome(models.AuditOutcomeFailure, "missing_tenant"))
		_ = utils.WriteBadRequest(w, "bad_request", "tenant_id is required")
		return
	}
	event.TenantID = tenantID

	q := h.parseListQuery(r, tenantID)

	page, err := h.store.List(ctx, h.spec, q)
	if err != nil {
		h.logger.Error("list failed",
			zap.String("request_id", event.RequestID),
			zap.Error(err))
		h.audit(event.WithOutcome(models.AuditOutcomeFailure, "store_error"))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	h.audit(event.WithOutcome(models.AuditOutcomeSuccess, "listed"))
	_ = utils.WriteOK(w, page)
}

// HandleGet handles GET /<resource>/{id}
func (h *ResourceHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	event := h.newEvent(r, "get")

	tenantID := resolveTenant(r)
	if tenantID == "" {
		h.audit(event.WithOutcome(models.AuditOutcomeFailure, "missing_tenant"))
		_ = utils.WriteBadRequest(w, "bad_request", "tenant_id is required")
		return
	}
	event.TenantID = tenantID

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.audit(event.WithOutcome(models.AuditOutcomeFailure, "invalid_id"))
		_ = utils.WriteBadRequest(w, "bad_request", "Invalid id format")
		return
	}
	event.WithTarget(id)

	record, err := h.store.Get(ctx, h.spec, tenantID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			h.audit(event.WithOutcome(models.AuditOutcomeNotFound, "not_found"))
			_ = utils.WriteNotFound(w, "")
			return
		}
		h.logger.Error("get failed",
			zap.String("request_id", event.RequestID),
			zap.Error(err))
		h.audit(event.WithOutcome(models.AuditOutcomeFailure, "store_error"))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	h.audit(event.WithOutcome(models.AuditOutcomeSuccess, "fetched"))
	_ = utils.WriteOK(w, record)
}

// HandleUpdate handles PUT /<resource>/{id}
func (h *ResourceHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	event := h.newEvent(r, "update")

	tenantID := resolveTenant(r)
	if tenantID == "" {
		h.audit(event.WithOutcome(models.AuditOutcomeFailure, "missing_tenant"))
		_ = utils.WriteBadRequest(w, "bad_request", "tenant_id is required")
		return
	}
	event.TenantID = tenantID

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.audit(event.WithOutcome(models.AuditOutcomeFailure, "invalid_id"))
		_ = utils.WriteBadRequest(w, "bad_request", "Invalid id format")
		return
	}
	event.WithTarget(id)

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.audit(event.WithOutcome(models.AuditOutcomeFailure, "invalid_json"))
		_ = utils.WriteBadRequest(w, "bad_request", "Request body must be a JSON object")
		return
	}

	expectedVersion, ok := extractVersion(body)
	if !ok {
		h.audit(event.WithOutcome(models.AuditOutcomeFailure, "missing_version"))
		_ = utils.WriteBadRequest(w, "missing_version", "Body must include the current integer version")
		return
	}

	// Keep only allow-listed fields; unknown names are dropped silently.
	fields := make(map[string]any)
	changed := make([]string, 0, len(body))
	for name, value := range body {
		if !h.spec.IsUpdatable(name) {
			continue
		}
		fields[name] = value
		changed = append(changed, name)
	}
	if len(fields) == 0 {
		h.audit(event.WithOutcome(models.AuditOutcomeFailure, "no_updatable_fields"))
		_ = utils.WriteBadRequest(w, "no_updatable_fields", "No updatable fields supplied")
		return
	}

	if reason, msg := h.validateEnums(fields); reason != "" {
		h.audit(event.WithOutcome(models.AuditOutcomeFailure, reason))
		_ = utils.WriteValidationError(w, msg)
		return
	}

	record, err := h.store.Update(ctx, h.spec, tenantID, id, expectedVersion, fields)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrConflict):
			h.audit(event.WithOutcome(models.AuditOutcomeConflict, "version_conflict_or_not_found"))
			_ = utils.WriteConflict(w, "version_conflict_or_not_found",
				"Record was modified concurrently, does not exist, or is deleted")
		case errors.Is(err, repositories.ErrDuplicate):
			h.audit(event.WithOutcome(models.AuditOutcomeConflict, "duplicate_natural_key"))
			_ = utils.WriteConflict(w, "conflict", "A record with the same unique key already exists")
		default:
			h.logger.Error("update failed",
				zap.String("request_id", event.RequestID),
				zap.Error(err))
			h.audit(event.WithOutcome(models.AuditOutcomeFailure, "store_error"))
			_ = utils.WriteInternalServerError(w, "")
		}
		return
	}

	h.audit(event.WithChanges(changed).WithOutcome(models.AuditOutcomeSuccess, "updated"))
	_ = utils.WriteOK(w, record)
}

// HandleDelete handles DELETE /<resource>/{id}
func (h *ResourceHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	event := h.newEvent(r, "delete")

	tenantID := resolveTenant(r)
	if tenantID == "" {
		h.audit(event.WithOutcome(models.AuditOutcomeFailure, "missing_tenant"))
		_ = utils.WriteBadRequest(w, "bad_request", "tenant_id is required")
		return
	}
	event.TenantID = tenantID

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.audit(event.WithOutcome(models.AuditOutcomeFailure, "invalid_id"))
		_ = utils.WriteBadRequest(w, "bad_request", "Invalid id format")
		return
	}
	event.WithTarget(id)

	if h.spec.PolicyGated {
		role := ""
		if actor := middleware.GetActorFromContext(ctx); actor != nil {
			role = actor.Role
		}
		decision := h.oracle.Check(ctx, "delete", h.spec.Name, role)
		event.WithDecision(decision.Decision)
		if !decision.Allowed {
			h.audit(event.WithOutcome(models.AuditOutcomeForbidden, decision.Reason))
			_ = utils.WriteForbidden(w, "Delete denied by policy")
			return
		}
		event.Reason = decision.Reason
	}

	if err := h.store.Delete(ctx, h.spec, tenantID, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			h.audit(event.WithOutcome(models.AuditOutcomeNotFound, "not_found"))
			_ = utils.WriteNotFound(w, "")
			return
		}
		h.logger.Error("delete failed",
			zap.String("request_id", event.RequestID),
			zap.Error(err))
		h.audit(event.WithOutcome(models.AuditOutcomeFailure, "store_error"))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	h.audit(event.WithOutcome(models.AuditOutcomeSuccess, "deleted"))
	_ = utils.WriteOK(w, map[string]any{"deleted": true, "id": id})
}

// newEvent starts an audit event for one attempt, stamped with the actor and
// request id already resolved by the middleware chain.
func (h *ResourceHandler) newEvent(r *http.Request, action string) *models.AuditEvent {
	ctx := r.Context()
	event := models.NewAuditEvent("", action, h.spec.Name).
		WithRequest(chimiddleware.GetReqID(ctx))
	if actor := middleware.GetActorFromContext(ctx); actor != nil {
		event.WithActor(actor.Role, actor.ID, actor.Email, actor.IP)
	}
	return event
}

func (h *ResourceHandler) audit(event *models.AuditEvent) {
	h.recorder.Record(event)
}

// validateCreate enforces the required-field and enum-membership rules.
func (h *ResourceHandler) validateCreate(body map[string]any) (reason, message string) {
	for _, name := range h.spec.Required {
		value, present := body[name]
		if !present || value == nil {
			return "validation_error", name + " is required"
		}
		if s, isString := value.(string); isString && s == "" {
			return "validation_error", name + " is required"
		}
	}
	return h.validateEnums(body)
}

// validateEnums checks supplied values against the per-field value
// restrictions (status enums, access levels).
func (h *ResourceHandler) validateEnums(fields map[string]any) (reason, message string) {
	for name, allowed := range h.spec.FilterValues {
		value, present := fields[name]
		if !present {
			continue
		}
		s, isString := value.(string)
		if !isString {
			return "validation_error", name + " must be a string"
		}
		valid := false
		for _, a := range allowed {
			if s == a {
				valid = true
				break
			}
		}
		if !valid {
			return "validation_error", name + " has an unsupported value"
		}
	}
	return "", ""
}

// parseListQuery resolves search, filters, sort, and pagination parameters
// against the spec's allow-lists.
func (h *ResourceHandler) parseListQuery(r *http.Request, tenantID string) models.ListQuery {
	query := r.URL.Query()

	page, err := strconv.Atoi(query.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(query.Get("page_size"))
	if err != nil || pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	filters := make(map[string]string)
	for _, name := range h.spec.Filterable {
		value := query.Get(name)
		if value == "" {
			continue
		}
		if h.spec.AcceptsFilter(name, value) {
			filters[name] = value
		}
	}

	return models.ListQuery{
		TenantID:  tenantID,
		Search:    query.Get("search"),
		Filters:   filters,
		SortBy:    query.Get("sort_by"),
		SortOrder: query.Get("sort_order"),
		Page:      page,
		PageSize:  pageSize,
	}
}

// resolveTenant returns the tenant scope for the request: the context value
// set by the internal middleware wins over the public query parameter.
func resolveTenant(r *http.Request) string {
	if tenantID := middleware.GetTenantIDFromContext(r.Context()); tenantID != "" {
		return tenantID
	}
	return r.URL.Query().Get("tenant_id")
}

// extractVersion pulls the required integer version out of an update body and
// removes it from the field set. JSON numbers arrive as float64; a fractional
// version is rejected.
func extractVersion(body map[string]any) (int, bool) {
	raw, present := body["version"]
	if !present {
		return 0, false
	}
	delete(body, "version")

	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
