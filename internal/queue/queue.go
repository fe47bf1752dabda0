// Package queue implementa la cola de trabajo fire-and-forget para emails
// y notificaciones. El request de auth que dispara el side effect nunca
// espera ni falla por la cola: encolar es no bloqueante y los errores solo
// se loguean.
package queue

import (
	"context"
	"encoding/json"
	"time"
)

// Kinds de job.
const (
	KindEmail      = "email"
	KindNotifyUser = "notify_user"
	KindNotifyRole = "notify_role"
)

// Job es el sobre serializado que viaja por la cola.
type Job struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// EmailJob pide el envío de un email renderizado desde un template.
type EmailJob struct {
	Template   string            `json:"template"`
	Data       map[string]string `json:"data"`
	Subject    string            `json:"subject"`
	Recipients []string          `json:"recipients"`
}

// NotifyUserJob notifica a un usuario puntual.
type NotifyUserJob struct {
	TriggeredBy int64  `json:"triggered_by"`
	Category    string `json:"category"`
	UserID      int64  `json:"user_id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
}

// NotifyRoleJob notifica a todos los usuarios de uno o más roles.
type NotifyRoleJob struct {
	TriggeredBy int64    `json:"triggered_by"`
	Category    string   `json:"category"`
	Roles       []string `json:"roles"`
	Title       string   `json:"title"`
	Body        string   `json:"body"`
}

// Enqueuer es la cara que ven los services. Ninguna operación bloquea
// ni retorna error: el contrato es fire-and-forget.
type Enqueuer interface {
	EnqueueEmail(ctx context.Context, job EmailJob)
	EnqueueNotifyUser(ctx context.Context, job NotifyUserJob)
	EnqueueNotifyRole(ctx context.Context, job NotifyRoleJob)
}

// Noop descarta todo. Útil en tests y en el seed CLI.
type Noop struct{}

func (Noop) EnqueueEmail(context.Context, EmailJob)           {}
func (Noop) EnqueueNotifyUser(context.Context, NotifyUserJob) {}
func (Noop) EnqueueNotifyRole(context.Context, NotifyRoleJob) {}
