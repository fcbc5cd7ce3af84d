// FILE: internal/service/document_service.go
package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"kasbi-client/internal/constant"
	"kasbi-client/internal/dto"
	"kasbi-client/internal/entity"
	"kasbi-client/internal/mapper"
	"kasbi-client/internal/pkg/httpclient"
	"kasbi-client/internal/pkg/logger"
	"kasbi-client/internal/pkg/validation"

	"github.com/patrickmn/go-cache"
)

const documentModule = "DocumentService"

// A deleted id stays hidden this long, which outlives any list request that
// was already in flight when the delete went through.
const tombstoneTTL = 2 * time.Minute

type IDocumentService interface {
	List(ctx context.Context, page dto.PageQuery) ([]entity.Document, error)
	Upload(ctx context.Context, fileName string, content io.Reader) error
	Delete(ctx context.Context, doc entity.Document, confirmer Confirmer) error
}

type documentService struct {
	client     IAPIClient
	mapper     *mapper.DocumentMapper
	tombstones *cache.Cache
	logger     logger.ILogger
}

func NewDocumentService(client IAPIClient, log logger.ILogger) IDocumentService {
	return &documentService{
		client:     client,
		mapper:     mapper.NewDocumentMapper(),
		tombstones: cache.New(tombstoneTTL, 2*tombstoneTTL),
		logger:     log,
	}
}

func pageValues(p dto.PageQuery) url.Values {
	v := url.Values{}
	v.Set("offset", strconv.Itoa(p.Offset))
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	v.Set("descending", strconv.FormatBool(p.Descending))
	return v
}

// List returns one page, minus anything deleted from this client recently.
func (s *documentService) List(ctx context.Context, page dto.PageQuery) ([]entity.Document, error) {
	var res dto.DocumentListResponse
	err := s.client.DoJSON(ctx, &httpclient.Request{
		Method: http.MethodGet,
		Path:   constant.PathAdminDocuments,
		Query:  pageValues(page),
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	docs := s.mapper.ToEntities(res.DocumentItems)
	visible := docs[:0]
	for _, d := range docs {
		if _, deleted := s.tombstones.Get(d.Id); deleted {
			continue
		}
		visible = append(visible, d)
	}
	return visible, nil
}

func (s *documentService) Upload(ctx context.Context, fileName string, content io.Reader) error {
	if strings.TrimSpace(fileName) == "" {
		return validation.New("file", "name is required")
	}

	_, err := s.client.Do(ctx, &httpclient.Request{
		Method: http.MethodPost,
		Path:   constant.PathAdminInsertDocument,
		File:   &httpclient.FilePart{FieldName: "file", FileName: fileName, Content: content},
	})
	if err != nil {
		s.logger.Error(documentModule, "Upload failed", map[string]interface{}{"file": fileName, "error": err.Error()})
		return fmt.Errorf("failed to upload %s: %w", fileName, err)
	}

	s.logger.Info(documentModule, "Document uploaded", map[string]interface{}{"file": fileName})
	return nil
}

// Delete asks first; a declined prompt returns ErrCancelled without any
// request.
func (s *documentService) Delete(ctx context.Context, doc entity.Document, confirmer Confirmer) error {
	if err := confirm(ctx, confirmer, fmt.Sprintf("Hapus dokumen %q?", doc.Name)); err != nil {
		return err
	}

	_, err := s.client.Do(ctx, &httpclient.Request{
		Method: http.MethodDelete,
		Path:   constant.PathAdminDeleteDocument,
		Body:   dto.DeleteDocumentRequest{DocumentId: dto.FlexibleId(doc.Id)},
	})
	if err != nil {
		s.logger.Error(documentModule, "Delete failed", map[string]interface{}{"document_id": doc.Id, "error": err.Error()})
		return fmt.Errorf("failed to delete document %s: %w", doc.Id, err)
	}

	s.tombstones.SetDefault(doc.Id, struct{}{})
	s.logger.Info(documentModule, "Document deleted", map[string]interface{}{"document_id": doc.Id})
	return nil
}

// FilterDocuments keeps documents whose name or uploader contains query
// (case-insensitive) and, when status is set, whose status matches.
func FilterDocuments(docs []entity.Document, query string, status entity.DocumentStatus) []entity.Document {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]entity.Document, 0, len(docs))
	for _, d := range docs {
		if status != "" && d.Status != status {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(d.Name), query) &&
			!strings.Contains(strings.ToLower(d.UploadedBy), query) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func DocumentStatsOf(docs []entity.Document) entity.DocumentStats {
	stats := entity.DocumentStats{Total: len(docs)}
	for _, d := range docs {
		switch d.Status {
		case entity.DocumentStatusDone:
			stats.Done++
		case entity.DocumentStatusPending:
			stats.Pending++
		default:
			stats.Other++
		}
	}
	return stats
}

func anyPending(docs []entity.Document) bool {
	for _, d := range docs {
		if d.IsPending() {
			return true
		}
	}
	return false
}
