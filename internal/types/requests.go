package types

import "time"

// ------------------------------
// Query Types
// ------------------------------

// DefaultCaseFilters are the retained case filters of a fresh session.
func DefaultCaseFilters() map[string]string {
	return map[string]string{"page": "1", "per_page": "20", "sort": "updated_at_desc"}
}

// CaseQuery holds per-key overrides merged onto the retained case filters.
type CaseQuery struct {
	Page    Override[int]
	PerPage Override[int]
	Status  Override[CaseStatus]
	Brand   Override[string]
	Sort    Override[string]
	Search  Override[string]
}

// Merge applies q onto retained and returns the new filter set; retained is
// not modified. Caller values win per key.
func (q CaseQuery) Merge(retained map[string]string) map[string]string {
	out := cloneFilters(retained)
	q.Page.applyTo("page", out)
	q.PerPage.applyTo("per_page", out)
	q.Status.applyTo("status", out)
	q.Brand.applyTo("brand", out)
	q.Sort.applyTo("sort", out)
	q.Search.applyTo("search", out)
	return out
}

// DefaultEmailFilters are the retained email filters of a fresh session.
func DefaultEmailFilters() map[string]string {
	return map[string]string{"page": "1", "page_size": "20", "sort_by": "received_at", "sort_order": "desc"}
}

// EmailQuery holds per-key overrides merged onto the retained email filters.
type EmailQuery struct {
	OAuthAccountID Override[string]
	IsRead         Override[bool]
	CaseID         Override[string]
	FromEmail      Override[string]
	Subject        Override[string]
	StartDate      Override[string]
	EndDate        Override[string]
	Page           Override[int]
	PageSize       Override[int]
	SortBy         Override[string]
	SortOrder      Override[string]
}

// Merge applies q onto retained and returns the new filter set.
func (q EmailQuery) Merge(retained map[string]string) map[string]string {
	out := cloneFilters(retained)
	q.OAuthAccountID.applyTo("oauth_account_id", out)
	q.IsRead.applyTo("is_read", out)
	q.CaseID.applyTo("case_id", out)
	q.FromEmail.applyTo("from_email", out)
	q.Subject.applyTo("subject", out)
	q.StartDate.applyTo("start_date", out)
	q.EndDate.applyTo("end_date", out)
	q.Page.applyTo("page", out)
	q.PageSize.applyTo("page_size", out)
	q.SortBy.applyTo("sort_by", out)
	q.SortOrder.applyTo("sort_order", out)
	return out
}

// ------------------------------
// Case Requests
// ------------------------------

// CreateCaseRequest holds parameters for a new case
type CreateCaseRequest struct {
	Title              string         `json:"title"`
	BrandName          string         `json:"brand_name"`
	CollaborationType  string         `json:"collaboration_type,omitempty"`
	Description        string         `json:"description,omitempty"`
	Status             CaseStatus     `json:"status,omitempty"`
	QuotedAmount       *float64       `json:"quoted_amount,omitempty"`
	DeadlineDate       *Date          `json:"deadline_date,omitempty"`
	ContactName        string         `json:"contact_name,omitempty"`
	ContactEmail       string         `json:"contact_email,omitempty"`
	ContactPhone       string         `json:"contact_phone,omitempty"`
	Notes              string         `json:"notes,omitempty"`
	Tags               []string       `json:"tags,omitempty"`
	CollaborationItems []string       `json:"collaboration_items,omitempty"`
	CustomFields       map[string]any `json:"custom_fields,omitempty"`
}

// UpdateCaseRequest is a partial update; nil fields are left alone.
type UpdateCaseRequest struct {
	Title              *string        `json:"title,omitempty"`
	BrandName          *string        `json:"brand_name,omitempty"`
	CollaborationType  *string        `json:"collaboration_type,omitempty"`
	Description        *string        `json:"description,omitempty"`
	Status             *CaseStatus    `json:"status,omitempty"`
	QuotedAmount       *float64       `json:"quoted_amount,omitempty"`
	FinalAmount        *float64       `json:"final_amount,omitempty"`
	DeadlineDate       *Date          `json:"deadline_date,omitempty"`
	ContactName        *string        `json:"contact_name,omitempty"`
	ContactEmail       *string        `json:"contact_email,omitempty"`
	ContactPhone       *string        `json:"contact_phone,omitempty"`
	Notes              *string        `json:"notes,omitempty"`
	Tags               []string       `json:"tags,omitempty"`
	CollaborationItems []string       `json:"collaboration_items,omitempty"`
	CustomFields       map[string]any `json:"custom_fields,omitempty"`
}

// Apply merges the patch into c and stamps UpdatedAt with now.
func (r UpdateCaseRequest) Apply(c Case, now time.Time) Case {
	if r.Title != nil {
		c.Title = *r.Title
	}
	if r.BrandName != nil {
		c.BrandName = *r.BrandName
	}
	if r.CollaborationType != nil {
		c.CollaborationType = *r.CollaborationType
	}
	if r.Status != nil {
		c.Status = *r.Status
	}
	if r.QuotedAmount != nil {
		c.QuotedAmount = Ptr(*r.QuotedAmount)
	}
	if r.FinalAmount != nil {
		c.FinalAmount = Ptr(*r.FinalAmount)
	}
	if r.DeadlineDate != nil {
		c.DeadlineDate = Ptr(*r.DeadlineDate)
	}
	if r.ContactName != nil {
		c.ContactName = *r.ContactName
	}
	if r.ContactEmail != nil {
		c.ContactEmail = *r.ContactEmail
	}
	if r.ContactPhone != nil {
		c.ContactPhone = *r.ContactPhone
	}
	if r.CollaborationItems != nil {
		c.CollaborationItems = append([]string(nil), r.CollaborationItems...)
	}
	c.UpdatedAt = now
	return c
}

// ApplyDetail merges the patch into a case detail.
func (r UpdateCaseRequest) ApplyDetail(d CaseDetail, now time.Time) CaseDetail {
	d.Case = r.Apply(d.Case, now)
	if r.Description != nil {
		d.Description = *r.Description
	}
	if r.Notes != nil {
		d.Notes = *r.Notes
	}
	if r.Tags != nil {
		d.Tags = append([]string(nil), r.Tags...)
	}
	if len(r.CustomFields) > 0 {
		merged := make(map[string]any, len(d.CustomFields)+len(r.CustomFields))
		for k, v := range d.CustomFields {
			merged[k] = v
		}
		for k, v := range r.CustomFields {
			merged[k] = v
		}
		d.CustomFields = merged
	}
	return d
}

// LinkEmailRequest associates an email with a case.
type LinkEmailRequest struct {
	EmailID string `json:"email_id"`
}

// ------------------------------
// Task Requests
// ------------------------------

// CreateTaskRequest holds parameters for a new task
type CreateTaskRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	DueDate      *Date  `json:"due_date,omitempty"`
	DueTime      string `json:"due_time,omitempty"`
	ReminderDays *int   `json:"reminder_days,omitempty"`
}

// UpdateTaskRequest is a partial task update.
type UpdateTaskRequest struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	DueDate     *Date       `json:"due_date,omitempty"`
	DueTime     *string     `json:"due_time,omitempty"`
	Status      *TaskStatus `json:"status,omitempty"`
	Order       *int        `json:"order,omitempty"`
}

// Apply merges the patch into t.
func (r UpdateTaskRequest) Apply(t Task, now time.Time) Task {
	if r.Title != nil {
		t.Title = *r.Title
	}
	if r.Description != nil {
		t.Description = *r.Description
	}
	if r.DueDate != nil {
		t.DueDate = Ptr(*r.DueDate)
	}
	if r.DueTime != nil {
		t.DueTime = *r.DueTime
	}
	if r.Status != nil {
		t.Status = *r.Status
		if t.Status == TaskCompleted && t.CompletedAt == nil {
			t.CompletedAt = Ptr(now)
		}
		if t.Status != TaskCompleted {
			t.CompletedAt = nil
		}
	}
	if r.Order != nil {
		t.Order = *r.Order
	}
	t.UpdatedAt = now
	return t
}

// ReorderTasksRequest carries task ids in their new display order.
type ReorderTasksRequest struct {
	TaskIDs []string `json:"task_ids"`
}

// ------------------------------
// Case Phase Requests
// ------------------------------

// CreateCasePhaseRequest holds parameters for a new case phase
type CreateCasePhaseRequest struct {
	Name            string  `json:"name"`
	StartDate       Date    `json:"start_date"`
	DurationDays    int     `json:"duration_days"`
	Order           *int    `json:"order,omitempty"`
	WorkflowPhaseID *string `json:"workflow_phase_id,omitempty"`
}

// UpdateCasePhaseRequest is a partial phase update.
type UpdateCasePhaseRequest struct {
	Name         *string `json:"name,omitempty"`
	StartDate    *Date   `json:"start_date,omitempty"`
	EndDate      *Date   `json:"end_date,omitempty"`
	DurationDays *int    `json:"duration_days,omitempty"`
	Order        *int    `json:"order,omitempty"`
}

// Apply merges the patch into p. When the start or duration changes and no
// explicit end is given, the inclusive end date is recomputed.
func (r UpdateCasePhaseRequest) Apply(p CasePhase, now time.Time) CasePhase {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.StartDate != nil {
		p.StartDate = *r.StartDate
	}
	if r.DurationDays != nil {
		p.DurationDays = *r.DurationDays
	}
	switch {
	case r.EndDate != nil:
		p.EndDate = *r.EndDate
	case r.StartDate != nil || r.DurationDays != nil:
		p.EndDate = PhaseEnd(p.StartDate, p.DurationDays)
	}
	if r.Order != nil {
		p.Order = *r.Order
	}
	p.UpdatedAt = now
	return p
}

// ApplyTemplateRequest instantiates a workflow template onto a case.
type ApplyTemplateRequest struct {
	WorkflowID string `json:"workflow_id"`
	StartDate  Date   `json:"start_date"`
}

// PhaseEnd returns the inclusive end date of a phase.
func PhaseEnd(start Date, durationDays int) Date {
	if durationDays < 1 {
		durationDays = 1
	}
	return start.AddDays(durationDays - 1)
}

// ------------------------------
// Field Requests
// ------------------------------

// CreateFieldRequest holds parameters for a new custom field
type CreateFieldRequest struct {
	Name         string        `json:"name"`
	Label        string        `json:"label"`
	Type         FieldType     `json:"type"`
	IsRequired   bool          `json:"is_required,omitempty"`
	IsVisible    *bool         `json:"is_visible,omitempty"`
	DefaultValue any           `json:"default_value,omitempty"`
	Options      []FieldOption `json:"options,omitempty"`
	Placeholder  string        `json:"placeholder,omitempty"`
	Description  string        `json:"description,omitempty"`
}

// UpdateFieldRequest is a partial field update.
type UpdateFieldRequest struct {
	Label        *string       `json:"label,omitempty"`
	IsRequired   *bool         `json:"is_required,omitempty"`
	IsVisible    *bool         `json:"is_visible,omitempty"`
	DefaultValue any           `json:"default_value,omitempty"`
	Options      []FieldOption `json:"options,omitempty"`
	Placeholder  *string       `json:"placeholder,omitempty"`
	Description  *string       `json:"description,omitempty"`
	Order        *int          `json:"order,omitempty"`
}

// Apply merges the patch into f.
func (r UpdateFieldRequest) Apply(f CaseField, now time.Time) CaseField {
	if r.Label != nil {
		f.Label = *r.Label
	}
	if r.IsRequired != nil {
		f.IsRequired = *r.IsRequired
	}
	if r.IsVisible != nil {
		f.IsVisible = *r.IsVisible
	}
	if r.DefaultValue != nil {
		f.DefaultValue = r.DefaultValue
	}
	if r.Options != nil {
		f.Options = append([]FieldOption(nil), r.Options...)
	}
	if r.Placeholder != nil {
		f.Placeholder = *r.Placeholder
	}
	if r.Description != nil {
		f.Description = *r.Description
	}
	if r.Order != nil {
		f.Order = *r.Order
	}
	f.UpdatedAt = Ptr(now)
	return f
}

// ReorderFieldsRequest carries field ids in their new display order.
type ReorderFieldsRequest struct {
	FieldIDs []string `json:"field_ids"`
}

// ------------------------------
// Collaboration Item Requests
// ------------------------------

// CreateCollaborationItemRequest holds parameters for a new catalog item.
// Order is filled in by the store from the current sibling set.
type CreateCollaborationItemRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	ParentID    *string `json:"parent_id"`
	WorkflowID  *string `json:"workflow_id,omitempty"`
	Order       int     `json:"order"`
}

// UpdateCollaborationItemRequest is a partial item update. ParentID and
// WorkflowID use Nullable so a patch can move an item to the root level or
// detach its workflow.
type UpdateCollaborationItemRequest struct {
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	Price       *float64           `json:"price,omitempty"`
	ParentID    *Nullable[string] `json:"parent_id,omitempty"`
	WorkflowID  *Nullable[string] `json:"workflow_id,omitempty"`
}

// Apply merges the patch into it.
func (r UpdateCollaborationItemRequest) Apply(it CollaborationItem, now time.Time) CollaborationItem {
	if r.Title != nil {
		it.Title = *r.Title
	}
	if r.Description != nil {
		it.Description = *r.Description
	}
	if r.Price != nil {
		it.Price = *r.Price
	}
	if r.ParentID != nil {
		it.ParentID = clonePtr(r.ParentID.Value)
	}
	if r.WorkflowID != nil {
		it.WorkflowID = clonePtr(r.WorkflowID.Value)
	}
	it.UpdatedAt = now
	return it
}

// ReorderItemsRequest carries one sibling group in its new order.
type ReorderItemsRequest struct {
	ItemIDs  []string `json:"item_ids"`
	ParentID *string  `json:"parent_id"`
}

// ------------------------------
// Workflow Template Requests
// ------------------------------

// CreateWorkflowTemplateRequest holds parameters for a new template
type CreateWorkflowTemplateRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Color       WorkflowColor `json:"color"`
}

// UpdateWorkflowTemplateRequest is a partial template update.
type UpdateWorkflowTemplateRequest struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Color       *WorkflowColor `json:"color,omitempty"`
}

// Apply merges the patch into w.
func (r UpdateWorkflowTemplateRequest) Apply(w WorkflowTemplate, now time.Time) WorkflowTemplate {
	if r.Name != nil {
		w.Name = *r.Name
	}
	if r.Description != nil {
		w.Description = *r.Description
	}
	if r.Color != nil {
		w.Color = *r.Color
	}
	w.UpdatedAt = now
	return w
}

// CreateWorkflowPhaseRequest holds parameters for a new template phase
type CreateWorkflowPhaseRequest struct {
	Name         string `json:"name"`
	DurationDays int    `json:"duration_days"`
	Order        *int   `json:"order,omitempty"`
}

// UpdateWorkflowPhaseRequest is a partial template phase update.
type UpdateWorkflowPhaseRequest struct {
	Name         *string `json:"name,omitempty"`
	DurationDays *int    `json:"duration_days,omitempty"`
	Order        *int    `json:"order,omitempty"`
}

// Apply merges the patch into p.
func (r UpdateWorkflowPhaseRequest) Apply(p WorkflowPhase, now time.Time) WorkflowPhase {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.DurationDays != nil {
		p.DurationDays = *r.DurationDays
	}
	if r.Order != nil {
		p.Order = *r.Order
	}
	p.UpdatedAt = now
	return p
}

// ------------------------------
// Email and Auth Requests
// ------------------------------

// UpdateEmailRequest patches read state or the case link of an email.
type UpdateEmailRequest struct {
	IsRead *bool             `json:"is_read,omitempty"`
	CaseID *Nullable[string] `json:"case_id,omitempty"`
}

// GoogleLoginRequest exchanges a Google credential for a session token.
type GoogleLoginRequest struct {
	Credential string `json:"credential"`
	ClientID   string `json:"clientId"`
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
