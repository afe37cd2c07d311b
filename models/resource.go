package models

import "strings"

// Record is a generic resource row keyed by external field name.
// Common columns (id, tenant_id, version, created_at, updated_at) are always
// present; payload keys depend on the ResourceSpec.
type Record map[string]any

// DeleteMode controls whether a resource is soft-deleted or removed outright.
type DeleteMode string

const (
	DeleteModeSoft DeleteMode = "soft"
	DeleteModeHard DeleteMode = "hard"
)

// Field maps an external field name to its database column.
// The mapping is static so client input can never select a column.
type Field struct {
	Name   string
	Column string

	// ReadOnly marks columns the service writes itself. They are returned
	// on reads but a create request cannot seed them.
	ReadOnly bool
}

// ResourceSpec describes one tenant-scoped resource type: its table, payload
// fields, and the allow-lists that drive dynamic query construction.
type ResourceSpec struct {
	// Name is the external resource name used in routes and audit events.
	Name string

	// Table is the backing Postgres table.
	Table string

	// Fields is the ordered payload column set (excludes the common columns
	// id, tenant_id, version, created_at, updated_at, deleted_at).
	Fields []Field

	// Required lists external field names that must be present on create.
	Required []string

	// Updatable lists external field names accepted by Update. Anything else
	// in the request body is silently ignored.
	Updatable []string

	// Filterable lists external field names accepted as equality filters on
	// List. Unknown filter keys are silently ignored.
	Filterable []string

	// FilterValues optionally restricts accepted values per filterable field.
	// A value outside the list drops the filter rather than erroring.
	FilterValues map[string][]string

	// Searchable lists external text fields covered by free-text search.
	Searchable []string

	// Sortable lists external field names accepted as sort columns. A
	// requested column outside this list falls back to DefaultSort.
	Sortable []string

	// DefaultSort is the external field name used when no valid sort is
	// requested.
	DefaultSort string

	// NaturalKey is the external name of the per-tenant unique field
	// (email, document_number), or empty when the resource has none.
	NaturalKey string

	// DeleteMode selects soft or hard delete for this resource.
	DeleteMode DeleteMode

	// DeletedStatus, when non-empty, is the terminal value written to the
	// status column on soft delete.
	DeletedStatus string

	// PolicyGated marks resources whose deletes require a policy decision.
	PolicyGated bool
}

// commonColumns are present on every resource table and may be sorted on.
var commonColumns = map[string]string{
	"id":         "id",
	"tenant_id":  "tenant_id",
	"version":    "version",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// Column resolves an external field name to its column, covering both payload
// fields and the common columns.
func (s ResourceSpec) Column(name string) (string, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Column, true
		}
	}
	if col, ok := commonColumns[name]; ok {
		return col, true
	}
	return "", false
}

// SortColumn resolves the requested sort field against the Sortable
// allow-list, falling back to DefaultSort.
func (s ResourceSpec) SortColumn(requested string) string {
	for _, name := range s.Sortable {
		if name == requested {
			if col, ok := s.Column(name); ok {
				return col
			}
		}
	}
	col, _ := s.Column(s.DefaultSort)
	return col
}

// SortDirection normalizes a requested sort order to ASC or DESC (default DESC).
func SortDirection(requested string) string {
	if strings.EqualFold(requested, "asc") {
		return "ASC"
	}
	return "DESC"
}

// IsUpdatable reports whether the external field may be changed by Update.
func (s ResourceSpec) IsUpdatable(name string) bool {
	for _, f := range s.Updatable {
		if f == name {
			return true
		}
	}
	return false
}

// AcceptsFilter reports whether the field/value pair passes the filter
// allow-lists.
func (s ResourceSpec) AcceptsFilter(name, value string) bool {
	found := false
	for _, f := range s.Filterable {
		if f == name {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	allowed, restricted := s.FilterValues[name]
	if !restricted {
		return true
	}
	for _, v := range allowed {
		if v == value {
			return true
		}
	}
	return false
}

// ListQuery carries the tenant scope, filters, sort, and pagination for List.
type ListQuery struct {
	TenantID  string
	Search    string
	Filters   map[string]string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// Offset returns the row offset for the requested page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// Page is one page of records plus pagination totals.
type Page struct {
	Items      []Record `json:"items"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
	Total      int      `json:"total"`
	TotalPages int      `json:"totalPages"`
}

// TotalPages computes ceil(total/pageSize).
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
