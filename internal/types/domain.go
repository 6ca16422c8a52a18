package types

import "time"

// ------------------------------
// Enumerations
// ------------------------------

// CaseStatus is the lifecycle bucket of a case.
type CaseStatus string

const (
	CaseToConfirm  CaseStatus = "to_confirm"
	CaseInProgress CaseStatus = "in_progress"
	CaseCompleted  CaseStatus = "completed"
	CaseCancelled  CaseStatus = "cancelled"
	CaseOther      CaseStatus = "other"
)

// CaseStatuses lists the fixed status buckets in display order.
var CaseStatuses = []CaseStatus{CaseToConfirm, CaseInProgress, CaseCompleted, CaseCancelled, CaseOther}

// TaskStatus is the state of a single task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// FieldType is the input type of a case field definition.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldNumber      FieldType = "number"
	FieldDate        FieldType = "date"
	FieldSelect      FieldType = "select"
	FieldMultiselect FieldType = "multiselect"
	FieldCheckbox    FieldType = "checkbox"
	FieldURL         FieldType = "url"
	FieldEmail       FieldType = "email"
	FieldPhone       FieldType = "phone"
	FieldTextarea    FieldType = "textarea"
)

// WorkflowColor is the palette entry of a workflow template.
type WorkflowColor string

const (
	ColorPrimary   WorkflowColor = "primary"
	ColorSecondary WorkflowColor = "secondary"
	ColorSuccess   WorkflowColor = "success"
	ColorWarning   WorkflowColor = "warning"
	ColorError     WorkflowColor = "error"
	ColorInfo      WorkflowColor = "info"
	ColorNeutral   WorkflowColor = "neutral"
)

// ViewType selects how the case list is presented.
type ViewType string

const (
	ViewBoard ViewType = "board"
	ViewList  ViewType = "list"
)

// ------------------------------
// Core Domain Entities
// ------------------------------

// Case is a tracked brand-collaboration deal.
type Case struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	BrandName          string     `json:"brand_name"`
	CollaborationType  string     `json:"collaboration_type,omitempty"`
	Status             CaseStatus `json:"status"`
	QuotedAmount       *float64   `json:"quoted_amount,omitempty"`
	FinalAmount        *float64   `json:"final_amount,omitempty"`
	Currency           string     `json:"currency,omitempty"`
	DeadlineDate       *Date      `json:"deadline_date,omitempty"`
	ContactName        string     `json:"contact_name,omitempty"`
	ContactEmail       string     `json:"contact_email,omitempty"`
	ContactPhone       string     `json:"contact_phone,omitempty"`
	EmailCount         int        `json:"email_count"`
	TaskCount          int        `json:"task_count"`
	CompletedTaskCount int        `json:"completed_task_count"`
	CollaborationItems []string   `json:"collaboration_items,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// CaseDetail extends Case with the fields only the detail endpoint returns.
type CaseDetail struct {
	Case
	Description              string              `json:"description,omitempty"`
	PaymentStatus            string              `json:"payment_status,omitempty"`
	ContractDate             *Date               `json:"contract_date,omitempty"`
	DeliveryDate             *Date               `json:"delivery_date,omitempty"`
	PublishDate              *Date               `json:"publish_date,omitempty"`
	Notes                    string              `json:"notes,omitempty"`
	Tags                     []string            `json:"tags,omitempty"`
	Source                   string              `json:"source,omitempty"`
	Emails                   []CaseEmail         `json:"emails"`
	Tasks                    []Task              `json:"tasks"`
	Updates                  []CaseUpdate        `json:"updates,omitempty"`
	CollaborationItemsDetail []CollaborationItem `json:"collaboration_items_detail,omitempty"`
	CollaborationItemsTotal  *float64            `json:"collaboration_items_total,omitempty"`
	Phases                   []CasePhase         `json:"phases,omitempty"`
	StartDate                *Date               `json:"start_date,omitempty"`
	CustomFields             map[string]any      `json:"custom_fields,omitempty"`
}

// CaseEmail is the compact email shape embedded in a case detail.
type CaseEmail struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject,omitempty"`
	FromEmail  string    `json:"from_email"`
	FromName   string    `json:"from_name,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
	EmailType  string    `json:"email_type,omitempty"`
}

// CaseUpdate is one entry of a case's change history.
type CaseUpdate struct {
	ID         string    `json:"id"`
	CaseID     string    `json:"case_id"`
	UpdateType string    `json:"update_type"`
	OldValue   string    `json:"old_value,omitempty"`
	NewValue   string    `json:"new_value,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Task belongs to exactly one case; Order sequences it within that case.
type Task struct {
	ID           string     `json:"id"`
	CaseID       string     `json:"case_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	DueDate      *Date      `json:"due_date,omitempty"`
	DueTime      string     `json:"due_time,omitempty"`
	Status       TaskStatus `json:"status"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Order        int        `json:"order"`
	Source       string     `json:"source,omitempty"`
	ReminderDays *int       `json:"reminder_days,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CasePhase is a workflow phase scheduled onto a case timeline.
// EndDate is inclusive: StartDate + DurationDays - 1.
type CasePhase struct {
	ID              string    `json:"id"`
	CaseID          string    `json:"case_id"`
	Name            string    `json:"name"`
	StartDate       Date      `json:"start_date"`
	EndDate         Date      `json:"end_date"`
	DurationDays    int       `json:"duration_days"`
	Order           int       `json:"order"`
	WorkflowPhaseID *string   `json:"workflow_phase_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// FieldOption is one choice of a select or multiselect field.
type FieldOption struct {
	Label string `json:"label"`
	Value any    `json:"value"`
	Color string `json:"color,omitempty"`
}

// CaseField is a schema-level field definition. System fields carry
// SystemColumnName and cannot be deleted; custom fields never carry it.
type CaseField struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Label            string        `json:"label"`
	Type             FieldType     `json:"type"`
	IsSystem         bool          `json:"is_system"`
	SystemColumnName string        `json:"system_column_name,omitempty"`
	IsRequired       bool          `json:"is_required"`
	IsVisible        bool          `json:"is_visible"`
	Order            int           `json:"order"`
	DefaultValue     any           `json:"default_value,omitempty"`
	Options          []FieldOption `json:"options,omitempty"`
	Placeholder      string        `json:"placeholder,omitempty"`
	Description      string        `json:"description,omitempty"`
	CreatedAt        *time.Time    `json:"created_at,omitempty"`
	UpdatedAt        *time.Time    `json:"updated_at,omitempty"`
}

// CollaborationItem is a catalog entry. Items form a forest through ParentID;
// Order is unique only among items sharing the same parent.
type CollaborationItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	ParentID    *string   `json:"parent_id"`
	WorkflowID  *string   `json:"workflow_id,omitempty"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WorkflowTemplate is a reusable ordered sequence of phases.
type WorkflowTemplate struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Color       WorkflowColor   `json:"color"`
	Order       int             `json:"order"`
	Phases      []WorkflowPhase `json:"phases"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// WorkflowPhase is one step of a workflow template.
type WorkflowPhase struct {
	ID                 string    `json:"id"`
	WorkflowTemplateID string    `json:"workflow_template_id"`
	Name               string    `json:"name"`
	DurationDays       int       `json:"duration_days"`
	Order              int       `json:"order"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Email is the list shape of a synced message.
type Email struct {
	ID             string    `json:"id"`
	FromEmail      string    `json:"from_email"`
	FromName       string    `json:"from_name,omitempty"`
	Subject        string    `json:"subject,omitempty"`
	Snippet        string    `json:"snippet,omitempty"`
	ReceivedAt     time.Time `json:"received_at"`
	IsRead         bool      `json:"is_read"`
	HasAttachments bool      `json:"has_attachments"`
	Labels         []string  `json:"labels,omitempty"`
	CaseID         *string   `json:"case_id,omitempty"`
	AIAnalyzed     bool      `json:"ai_analyzed"`
}

// EmailDetail adds body content and provider identifiers.
type EmailDetail struct {
	Email
	OAuthAccountID    string    `json:"oauth_account_id"`
	ProviderMessageID string    `json:"provider_message_id"`
	ThreadID          string    `json:"thread_id,omitempty"`
	ToEmail           string    `json:"to_email,omitempty"`
	BodyText          string    `json:"body_text,omitempty"`
	BodyHTML          string    `json:"body_html,omitempty"`
	AIAnalysisID      string    `json:"ai_analysis_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// GmailStats summarizes the connected mailbox.
type GmailStats struct {
	TotalMessages     int            `json:"total_messages"`
	UnreadMessages    int            `json:"unread_messages"`
	StarredMessages   int            `json:"starred_messages"`
	ImportantMessages int            `json:"important_messages"`
	CategoryCounts    map[string]int `json:"category_counts,omitempty"`
}

// GmailStatus is the email-integration connection state.
type GmailStatus struct {
	Connected    bool        `json:"connected"`
	Email        string      `json:"email,omitempty"`
	LastSyncAt   *time.Time  `json:"last_sync_at,omitempty"`
	SyncStatus   string      `json:"sync_status,omitempty"`
	SyncError    string      `json:"sync_error,omitempty"`
	TokenExpired bool        `json:"token_expired,omitempty"`
	CanSync      bool        `json:"can_sync,omitempty"`
	Stats        *GmailStats `json:"stats,omitempty"`
}

// NotificationPrefs are the per-user notification toggles.
type NotificationPrefs struct {
	EmailOnNewCase       bool `json:"emailOnNewCase,omitempty"`
	EmailOnDeadline      bool `json:"emailOnDeadline,omitempty"`
	BrowserNotifications bool `json:"browserNotifications,omitempty"`
}

// User is the authenticated account.
type User struct {
	ID                string             `json:"id"`
	Email             string             `json:"email"`
	Name              string             `json:"name"`
	ProfilePictureURL string             `json:"profile_picture_url,omitempty"`
	AIInstructions    string             `json:"ai_instructions,omitempty"`
	GoogleID          string             `json:"googleId,omitempty"`
	AIReplyTone       string             `json:"aiReplyTone,omitempty"`
	Timezone          string             `json:"timezone,omitempty"`
	NotificationPrefs *NotificationPrefs `json:"notificationPrefs,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
	LastLoginAt       *time.Time         `json:"lastLoginAt,omitempty"`
}
