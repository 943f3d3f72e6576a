package dto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"polytask/domain/models"
)

type CreateTaskRequest struct {
	Name        models.TranslatedString `json:"name" validate:"required"`
	Description models.TranslatedString `json:"description"`
	Status      string                  `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority    string                  `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueDate     *time.Time              `json:"dueDate"`
	ParentID    *uuid.UUID              `json:"parentId"`
}

// UpdateTaskRequest is a partial update: nil means "not provided". The clear
// flags distinguish "not provided" from "set to null" for the nullable fields.
type UpdateTaskRequest struct {
	Name        models.TranslatedString `json:"name"`
	Description models.TranslatedString `json:"description"`
	Status      *string                 `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority    *string                 `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueDate     *time.Time              `json:"dueDate"`
	ParentID    *uuid.UUID              `json:"parentId"`
	ClearDue    bool                    `json:"clearDueDate"`
	ClearParent bool                    `json:"clearParent"`
}

// MoveTaskRequest ย้าย task ไปอยู่ใต้ parent ใหม่ (nil = ทำให้เป็น root)
type MoveTaskRequest struct {
	ParentID *uuid.UUID `json:"parentId"`
}

// ReorderSubtasksRequest — ลำดับใหม่ของ subtask IDs ทั้งหมดใต้ parent เดียวกัน
type ReorderSubtasksRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}

type TaskResponse struct {
	ID          uuid.UUID               `json:"id"`
	Name        models.TranslatedString `json:"name"`
	Description models.TranslatedString `json:"description"`
	// Display fields resolved against the request locale (with fallback).
	DisplayName        string     `json:"displayName"`
	DisplayDescription string     `json:"displayDescription"`
	Status             string     `json:"status"`
	Priority           string     `json:"priority"`
	DueDate            *time.Time `json:"dueDate"`
	ParentID           *uuid.UUID `json:"parentId"`
	Position           int        `json:"position"`
	UserID             uuid.UUID  `json:"userId"`
	State              string     `json:"state"`
	SubtaskCount       int        `json:"subtaskCount"`
	CompletionPercent  int        `json:"completionPercent"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

type TaskStatsResponse struct {
	Total      int64            `json:"total"`
	ByStatus   map[string]int64 `json:"byStatus"`
	ByPriority map[string]int64 `json:"byPriority"`
	Overdue    int64            `json:"overdue"`
	// CompletionPercent = completed / total ของ active tasks ทั้งหมด
	CompletionPercent int `json:"completionPercent"`
}

// FieldChange คือค่าเก่า/ใหม่ของ field ที่เปลี่ยนใน update
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Task lifecycle event types
const (
	TaskEventCreated  = "created"
	TaskEventUpdated  = "updated"
	TaskEventDeleted  = "deleted"
	TaskEventRestored = "restored"
)

// TaskEvent is published on the task event channel after each successful
// mutation; Changes is populated for updates only.
type TaskEvent struct {
	Type       string                 `json:"type"`
	UserID     uuid.UUID              `json:"userId"`
	Task       TaskResponse           `json:"task"`
	Changes    map[string]FieldChange `json:"changes,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
}

// ========== Filter ==========

// Hierarchy scopes
const (
	ScopeAll      = "all"
	ScopeRoot     = "root"
	ScopeSubtasks = "subtasks"
)

// TaskFilter คือเงื่อนไขการ list tasks ทั้งหมด (ต่อ request, ไม่ persist)
type TaskFilter struct {
	Status           string     `query:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority         string     `query:"priority" validate:"omitempty,oneof=low medium high urgent"`
	ParentID         string     `query:"parentId" validate:"omitempty,uuid"`
	Scope            string     `query:"scope" validate:"omitempty,oneof=all root subtasks"`
	DueFrom          *time.Time `query:"dueFrom"`
	DueTo            *time.Time `query:"dueTo"`
	Search           string     `query:"search" validate:"omitempty,max=200"`
	AllLocales       bool       `query:"allLocales"` // search ทุก locale แทน current+fallback
	IncludeCompleted bool       `query:"includeCompleted"`
	IncludeDeleted   bool       `query:"includeDeleted"`
	Page             int        `query:"page" validate:"omitempty,min=1"`
	Limit            int        `query:"limit" validate:"omitempty,min=1,max=100"`
	SortBy           string     `query:"sortBy" validate:"omitempty,oneof=created_at updated_at due_date priority status name"`
	SortDir          string     `query:"sortDir" validate:"omitempty,oneof=asc desc"`
}

// Normalize applies defaults and bounds so that equal effective filters are
// also byte-equal for signature purposes.
func (f *TaskFilter) Normalize() {
	if f.Scope == "" {
		f.Scope = ScopeAll
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.SortBy == "" {
		f.SortBy = "created_at"
	}
	if f.SortDir == "" {
		f.SortDir = "desc"
	}
	f.Search = strings.TrimSpace(f.Search)
}

// Validate checks cross-field constraints not expressible as struct tags.
func (f *TaskFilter) Validate() map[string]string {
	if f.DueFrom != nil && f.DueTo != nil && f.DueFrom.After(*f.DueTo) {
		return map[string]string{"dueFrom": "must be before or equal to dueTo"}
	}
	return nil
}

func (f *TaskFilter) HasSearch() bool {
	return strings.TrimSpace(f.Search) != ""
}

func (f *TaskFilter) ParentUUID() *uuid.UUID {
	if f.ParentID == "" {
		return nil
	}
	id, err := uuid.Parse(f.ParentID)
	if err != nil {
		return nil
	}
	return &id
}

// Signature returns the cache key component for this filter: a sha256 over an
// explicit canonical ordering of every field. The resolved locale participates
// because locale-scoped search changes the result set. This ordering is part of
// the cache contract — append new fields at the end, never reorder.
func (f *TaskFilter) Signature(locale string) string {
	fmtTime := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.UTC().Format(time.RFC3339Nano)
	}

	canonical := strings.Join([]string{
		"status=" + f.Status,
		"priority=" + f.Priority,
		"parent=" + f.ParentID,
		"scope=" + f.Scope,
		"dueFrom=" + fmtTime(f.DueFrom),
		"dueTo=" + fmtTime(f.DueTo),
		"search=" + strings.ToLower(strings.TrimSpace(f.Search)),
		fmt.Sprintf("allLocales=%t", f.AllLocales),
		fmt.Sprintf("includeCompleted=%t", f.IncludeCompleted),
		fmt.Sprintf("includeDeleted=%t", f.IncludeDeleted),
		fmt.Sprintf("page=%d", f.Page),
		fmt.Sprintf("limit=%d", f.Limit),
		"sortBy=" + f.SortBy,
		"sortDir=" + f.SortDir,
		"locale=" + locale,
	}, "|")

	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
