// FILE: internal/entity/document_entity.go
package entity

import "time"

type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusDone     DocumentStatus = "done"
	DocumentStatusRejected DocumentStatus = "rejected"
)

type Document struct {
	Id         string
	Name       string
	UploadedAt time.Time
	UploadedBy string
	Status     DocumentStatus
}

func (d Document) IsPending() bool {
	return d.Status == DocumentStatusPending
}

// DocumentStats mirrors the counters shown above the document table.
type DocumentStats struct {
	Total   int
	Done    int
	Pending int
	Other   int
}
