// Package ai defines how chat replies are produced on behalf of a worker.
package ai

import "context"

type Role string

const (
	RoleSystem   Role = "system"
	RoleCustomer Role = "customer"
	RoleWorker   Role = "worker"
)

type Message struct {
	Role Role
	Text string
	// Image is a data URL, empty when the message has no attachment.
	Image string
}

type ReplyRequest struct {
	WorkerName string
	Profession string
	Location   string
	History    []Message
	Message    Message
}

type Responder interface {
	Reply(ctx context.Context, req ReplyRequest) (string, error)
}
