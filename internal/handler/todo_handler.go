package handler

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskmaster/internal/middleware"
	"github.com/hitoshi/taskmaster/internal/model"
	"github.com/hitoshi/taskmaster/internal/todo"
)

// TodoStoreInterface はタスクハンドラーが必要とするストアインターフェース。
type TodoStoreInterface interface {
	Add(ctx context.Context, title, description string, deadline time.Time, userID string) model.Todo
	Toggle(ctx context.Context, id string)
	UpdateDeadline(ctx context.Context, id string, newDeadline time.Time)
	Update(ctx context.Context, id string, updates todo.Updates)
	All() []model.Todo
	Upcoming() []model.Todo
	Completed() []model.Todo
	WeeklyStats() model.WeeklyStats
}

// TodoHandler はタスク管理のHTTPハンドラー。
type TodoHandler struct {
	store TodoStoreInterface
}

// NewTodoHandler はTodoHandlerを生成する。
func NewTodoHandler(store TodoStoreInterface) *TodoHandler {
	return &TodoHandler{store: store}
}

// createTodoRequest はタスク作成リクエストボディ。
type createTodoRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
}

// updateTodoRequest はタスク編集リクエストボディ。nilのフィールドは変更しない。
type updateTodoRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Deadline    *time.Time `json:"deadline"`
}

// deadlineRequest は期限変更リクエストボディ。
type deadlineRequest struct {
	Deadline time.Time `json:"deadline"`
}

// List は全タスクを表示順で返す。
// 未完了タスクが完了済みタスクより先、各グループ内は期限昇順。
// この並び順はストアの保持順ではなく読み出し面で適用される。
// GET /api/todos
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	todos := h.store.All()

	sort.SliceStable(todos, func(i, j int) bool {
		if todos[i].Completed != todos[j].Completed {
			return !todos[i].Completed
		}
		return todos[i].Deadline.Before(todos[j].Deadline)
	})

	writeJSONResponse(w, http.StatusOK, map[string]any{"todos": todos})
}

// Create は新しいタスクを追加する。
// POST /api/todos
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("タイトルは必須です"))
		return
	}
	if req.Deadline.IsZero() {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("期限は必須です"))
		return
	}

	// タスクの所有者はアクティブユーザー。セッションが無くても空IDで追加できる。
	userID, _ := middleware.UserIDFromContext(r.Context())

	created := h.store.Add(r.Context(), req.Title, req.Description, req.Deadline, userID)
	writeJSONResponse(w, http.StatusCreated, created)
}

// Update はタスクのフィールドを無条件にマージ更新する。
// 期限変更済みフラグの影響を受けない編集経路。
// PATCH /api/todos/{id}
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateTodoRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	h.store.Update(r.Context(), id, todo.Updates{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
	})

	w.WriteHeader(http.StatusNoContent)
}

// Toggle はタスクの完了状態を反転する。
// POST /api/todos/{id}/toggle
func (h *TodoHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.store.Toggle(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// UpdateDeadline はタスクの期限を変更する。タスクごとに1回だけ有効で、
// 2回目以降は何も変更されない。
// PUT /api/todos/{id}/deadline
func (h *TodoHandler) UpdateDeadline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req deadlineRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Deadline.IsZero() {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("期限は必須です"))
		return
	}

	h.store.UpdateDeadline(r.Context(), id, req.Deadline)
	w.WriteHeader(http.StatusNoContent)
}

// Upcoming は期限が3日以内の未完了タスクを返す。
// GET /api/todos/upcoming
func (h *TodoHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{"todos": h.store.Upcoming()})
}

// Completed は完了済みタスクを返す。
// GET /api/todos/completed
func (h *TodoHandler) Completed(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{"todos": h.store.Completed()})
}

// WeeklyStats は前週のタスク統計を返す。
// GET /api/todos/stats/weekly
func (h *TodoHandler) WeeklyStats(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, h.store.WeeklyStats())
}
