package client

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/designcomb/influenter/client/internal/localcache"
	"github.com/designcomb/influenter/client/internal/shardqueue"
	"github.com/designcomb/influenter/client/internal/stores"
	"github.com/designcomb/influenter/client/internal/tree"
	"github.com/designcomb/influenter/client/internal/types"
)

// Public type aliases so SDK consumers can import only the client package.
type (
	// Domain entities
	Case              = types.Case
	CaseDetail        = types.CaseDetail
	CaseEmail         = types.CaseEmail
	CaseUpdate        = types.CaseUpdate
	Task              = types.Task
	CasePhase         = types.CasePhase
	FieldOption       = types.FieldOption
	CaseField         = types.CaseField
	CollaborationItem = types.CollaborationItem
	WorkflowTemplate  = types.WorkflowTemplate
	WorkflowPhase     = types.WorkflowPhase
	Email             = types.Email
	EmailDetail       = types.EmailDetail
	GmailStats        = types.GmailStats
	GmailStatus       = types.GmailStatus
	NotificationPrefs = types.NotificationPrefs
	User              = types.User
	ItemNode          = tree.Node

	// Enumerations
	CaseStatus    = types.CaseStatus
	TaskStatus    = types.TaskStatus
	FieldType     = types.FieldType
	WorkflowColor = types.WorkflowColor
	ViewType      = types.ViewType

	// Queries and requests
	CaseQuery                      = types.CaseQuery
	EmailQuery                     = types.EmailQuery
	CreateCaseRequest              = types.CreateCaseRequest
	UpdateCaseRequest              = types.UpdateCaseRequest
	LinkEmailRequest               = types.LinkEmailRequest
	CreateTaskRequest              = types.CreateTaskRequest
	UpdateTaskRequest              = types.UpdateTaskRequest
	CreateCasePhaseRequest         = types.CreateCasePhaseRequest
	UpdateCasePhaseRequest         = types.UpdateCasePhaseRequest
	ApplyTemplateRequest           = types.ApplyTemplateRequest
	CreateFieldRequest             = types.CreateFieldRequest
	UpdateFieldRequest             = types.UpdateFieldRequest
	CreateCollaborationItemRequest = types.CreateCollaborationItemRequest
	UpdateCollaborationItemRequest = types.UpdateCollaborationItemRequest
	CreateWorkflowTemplateRequest  = types.CreateWorkflowTemplateRequest
	UpdateWorkflowTemplateRequest  = types.UpdateWorkflowTemplateRequest
	CreateWorkflowPhaseRequest     = types.CreateWorkflowPhaseRequest
	UpdateWorkflowPhaseRequest     = types.UpdateWorkflowPhaseRequest

	// Responses
	Pagination      = types.Pagination
	EmailPagination = types.EmailPagination

	// Values
	Date = types.Date

	// Stores
	Status   = stores.Status
	Origin   = stores.Origin
	Recorder = stores.Recorder
	Cache    = localcache.Cache
	Job      = shardqueue.Job
)

// Result is the outcome of a store operation.
type Result[T any] = stores.Result[T]

// Nullable is a JSON value that may be explicitly null.
type Nullable[T any] = types.Nullable[T]

// Override sets or clears one list filter.
type Override[T any] = types.Override[T]

const (
	CaseToConfirm  = types.CaseToConfirm
	CaseInProgress = types.CaseInProgress
	CaseCompleted  = types.CaseCompleted
	CaseCancelled  = types.CaseCancelled
	CaseOther      = types.CaseOther

	TaskPending    = types.TaskPending
	TaskInProgress = types.TaskInProgress
	TaskCompleted  = types.TaskCompleted
	TaskCancelled  = types.TaskCancelled
)

// CaseStatuses lists the fixed status buckets in display order.
var CaseStatuses = types.CaseStatuses

const (
	Confirmed   = stores.Confirmed
	Provisional = stores.Provisional
	Cached      = stores.Cached
)

// Ptr, Set, Clear, Some and Null build optional request values.
func Ptr[T any](v T) *T { return types.Ptr(v) }
func Set[T any](v T) Override[T] { return types.Set(v) }
func Clear[T any]() Override[T] { return types.Clear[T]() }
func Some[T any](v T) *Nullable[T] { return types.Some(v) }
func Null[T any]() *Nullable[T] { return types.Null[T]() }
func ParseDate(s string) (Date, error) { return types.ParseDate(s) }

// OpenCache opens the SQLite cache inside dir, or inside ~/.influenter
// (INFLUENTER_CACHE_DIR) when dir is empty.
func OpenCache(dir string, logger zerolog.Logger) (*Cache, error) {
	path, err := localcache.DBPath(dir)
	if err != nil {
		return nil, fmt.Errorf("cache path: %w", err)
	}
	b, err := localcache.OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	c, err := localcache.New(b, 0, localcache.WithLogger(logger))
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	logger.Debug().Str("path", path).Msg("local cache opened")
	return c, nil
}

// MemoryCache returns a cache that lives only as long as the process.
func MemoryCache() *Cache {
	// memory backed New cannot fail
	c, _ := localcache.New(localcache.NewMemory(), 0)
	return c
}
