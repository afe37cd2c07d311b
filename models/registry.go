package models

// Registry lists every resource type exposed by the service. Each entry is an
// instance of the same versioned/audited CRUD pattern; only the field
// allow-lists and delete policy differ.
var Registry = []ResourceSpec{
	{
		Name:  "employees",
		Table: "employees",
		Fields: []Field{
			{Name: "first_name", Column: "first_name"},
			{Name: "last_name", Column: "last_name"},
			{Name: "email", Column: "email"},
			{Name: "department", Column: "department"},
			{Name: "position", Column: "position"},
			{Name: "hire_date", Column: "hire_date"},
			{Name: "status", Column: "status"},
			{Name: "metadata", Column: "metadata"},
		},
		Required:   []string{"email", "first_name", "last_name"},
		Updatable:  []string{"first_name", "last_name", "department", "position", "hire_date", "status", "metadata"},
		Filterable: []string{"department", "position", "status"},
		FilterValues: map[string][]string{
			"status": {"active", "on_leave", "inactive"},
		},
		Searchable:    []string{"first_name", "last_name", "email"},
		Sortable:      []string{"created_at", "updated_at", "last_name", "hire_date"},
		DefaultSort:   "created_at",
		NaturalKey:    "email",
		DeleteMode:    DeleteModeSoft,
		DeletedStatus: "inactive",
		PolicyGated:   true,
	},
	{
		Name:  "agent_users",
		Table: "agent_users",
		Fields: []Field{
			{Name: "email", Column: "email"},
			{Name: "name", Column: "name"},
			{Name: "role", Column: "role"},
			{Name: "status", Column: "status"},
			{Name: "last_login_at", Column: "last_login_at"},
		},
		Required:   []string{"email", "name"},
		Updatable:  []string{"name", "role", "status", "last_login_at"},
		Filterable: []string{"role", "status"},
		FilterValues: map[string][]string{
			"status": {"active", "disabled"},
		},
		Searchable:    []string{"email", "name"},
		Sortable:      []string{"created_at", "updated_at", "name"},
		DefaultSort:   "created_at",
		NaturalKey:    "email",
		DeleteMode:    DeleteModeSoft,
		DeletedStatus: "disabled",
		PolicyGated:   true,
	},
	{
		Name:  "documents",
		Table: "documents",
		Fields: []Field{
			{Name: "title", Column: "title"},
			{Name: "category", Column: "category"},
			{Name: "document_number", Column: "document_number"},
			{Name: "status", Column: "status"},
			{Name: "employee_id", Column: "employee_id"},
			{Name: "content_type", Column: "content_type"},
			{Name: "expires_at", Column: "expires_at"},
			{Name: "compliance_score", Column: "compliance_score", ReadOnly: true},
			{Name: "metadata", Column: "metadata"},
		},
		Required:   []string{"title", "category"},
		Updatable:  []string{"title", "category", "status", "employee_id", "content_type", "expires_at", "metadata"},
		Filterable: []string{"category", "status", "employee_id"},
		FilterValues: map[string][]string{
			"status": {"draft", "active", "expired", "archived"},
		},
		Searchable:    []string{"title", "document_number"},
		Sortable:      []string{"created_at", "updated_at", "title", "expires_at"},
		DefaultSort:   "created_at",
		NaturalKey:    "document_number",
		DeleteMode:    DeleteModeSoft,
		DeletedStatus: "archived",
		PolicyGated:   true,
	},
	{
		Name:  "templates",
		Table: "templates",
		Fields: []Field{
			{Name: "name", Column: "name"},
			{Name: "category", Column: "category"},
			{Name: "description", Column: "description"},
			{Name: "status", Column: "status"},
			{Name: "body", Column: "body"},
		},
		Required:   []string{"name", "category"},
		Updatable:  []string{"name", "category", "description", "status", "body"},
		Filterable: []string{"category", "status"},
		FilterValues: map[string][]string{
			"status": {"draft", "published", "retired"},
		},
		Searchable:    []string{"name", "description"},
		Sortable:      []string{"created_at", "updated_at", "name"},
		DefaultSort:   "created_at",
		DeleteMode:    DeleteModeSoft,
		DeletedStatus: "retired",
	},
	{
		Name:  "template_fields",
		Table: "template_fields",
		Fields: []Field{
			{Name: "template_id", Column: "template_id"},
			{Name: "label", Column: "label"},
			{Name: "field_type", Column: "field_type"},
			{Name: "required", Column: "required"},
			{Name: "position", Column: "position"},
			{Name: "options", Column: "options"},
		},
		Required:    []string{"template_id", "label", "field_type"},
		Updatable:   []string{"label", "field_type", "required", "position", "options"},
		Filterable:  []string{"template_id", "field_type"},
		Searchable:  []string{"label"},
		Sortable:    []string{"created_at", "position"},
		DefaultSort: "position",
		DeleteMode:  DeleteModeHard,
	},
	{
		Name:  "document_comments",
		Table: "document_comments",
		Fields: []Field{
			{Name: "document_id", Column: "document_id"},
			{Name: "author_id", Column: "author_id"},
			{Name: "body", Column: "body"},
		},
		Required:    []string{"document_id", "body"},
		Updatable:   []string{"body"},
		Filterable:  []string{"document_id", "author_id"},
		Searchable:  []string{"body"},
		Sortable:    []string{"created_at"},
		DefaultSort: "created_at",
		DeleteMode:  DeleteModeHard,
	},
	{
		Name:  "approvals",
		Table: "approvals",
		Fields: []Field{
			{Name: "document_id", Column: "document_id"},
			{Name: "approver_id", Column: "approver_id"},
			{Name: "status", Column: "status"},
			{Name: "decided_at", Column: "decided_at"},
			{Name: "note", Column: "note"},
		},
		Required:   []string{"document_id", "approver_id"},
		Updatable:  []string{"status", "decided_at", "note"},
		Filterable: []string{"document_id", "approver_id", "status"},
		FilterValues: map[string][]string{
			"status": {"pending", "approved", "rejected"},
		},
		Sortable:    []string{"created_at", "decided_at"},
		DefaultSort: "created_at",
		DeleteMode:  DeleteModeHard,
	},
	{
		Name:  "shares",
		Table: "shares",
		Fields: []Field{
			{Name: "document_id", Column: "document_id"},
			{Name: "recipient_email", Column: "recipient_email"},
			{Name: "access_level", Column: "access_level"},
			{Name: "expires_at", Column: "expires_at"},
		},
		Required:   []string{"document_id", "recipient_email"},
		Updatable:  []string{"access_level", "expires_at"},
		Filterable: []string{"document_id", "access_level"},
		FilterValues: map[string][]string{
			"access_level": {"view", "comment", "edit"},
		},
		Searchable:  []string{"recipient_email"},
		Sortable:    []string{"created_at", "expires_at"},
		DefaultSort: "created_at",
		DeleteMode:  DeleteModeHard,
	},
	{
		Name:  "relationships",
		Table: "relationships",
		Fields: []Field{
			{Name: "employee_id", Column: "employee_id"},
			{Name: "related_type", Column: "related_type"},
			{Name: "related_id", Column: "related_id"},
			{Name: "relation", Column: "relation"},
		},
		Required:    []string{"employee_id", "related_type", "related_id"},
		Updatable:   []string{"relation"},
		Filterable:  []string{"employee_id", "related_type", "related_id"},
		Sortable:    []string{"created_at"},
		DefaultSort: "created_at",
		DeleteMode:  DeleteModeHard,
	},
	{
		Name:  "sections",
		Table: "sections",
		Fields: []Field{
			{Name: "document_id", Column: "document_id"},
			{Name: "title", Column: "title"},
			{Name: "position", Column: "position"},
			{Name: "body", Column: "body"},
		},
		Required:    []string{"document_id", "title"},
		Updatable:   []string{"title", "position", "body"},
		Filterable:  []string{"document_id"},
		Searchable:  []string{"title"},
		Sortable:    []string{"created_at", "position"},
		DefaultSort: "position",
		DeleteMode:  DeleteModeHard,
	},
	{
		Name:  "document_versions",
		Table: "document_versions",
		Fields: []Field{
			{Name: "document_id", Column: "document_id"},
			{Name: "version_label", Column: "version_label"},
			{Name: "storage_key", Column: "storage_key"},
			{Name: "checksum", Column: "checksum"},
			{Name: "created_by", Column: "created_by"},
		},
		Required:    []string{"document_id", "version_label"},
		Updatable:   []string{"storage_key", "checksum"},
		Filterable:  []string{"document_id", "version_label"},
		Sortable:    []string{"created_at"},
		DefaultSort: "created_at",
		DeleteMode:  DeleteModeHard,
	},
	{
		Name:  "compliance_checks",
		Table: "compliance_checks",
		Fields: []Field{
			{Name: "document_id", Column: "document_id"},
			{Name: "check_type", Column: "check_type"},
			{Name: "status", Column: "status"},
			{Name: "score", Column: "score"},
			{Name: "findings", Column: "findings"},
			{Name: "checked_at", Column: "checked_at"},
		},
		Required:   []string{"document_id", "check_type"},
		Updatable:  []string{"status", "score", "findings", "checked_at"},
		Filterable: []string{"document_id", "check_type", "status"},
		FilterValues: map[string][]string{
			"status": {"passed", "failed", "needs_review"},
		},
		Sortable:    []string{"created_at", "checked_at"},
		DefaultSort: "created_at",
		DeleteMode:  DeleteModeHard,
	},
}

// SpecByName looks up a resource spec by its external name.
func SpecByName(name string) (ResourceSpec, bool) {
	for _, s := range Registry {
		if s.Name == name {
			return s, true
		}
	}
	return ResourceSpec{}, false
}
