package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"kasbi-client/internal/dto"
	"kasbi-client/internal/entity"
	"kasbi-client/internal/route"
	"kasbi-client/internal/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func (a *app) docsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Manage the documents KASBI answers from",
	}
	cmd.AddCommand(a.docsListCmd(), a.docsUploadCmd(), a.docsDeleteCmd(), a.docsWatchCmd())
	return cmd
}

func statusColor(s entity.DocumentStatus) *color.Color {
	switch s {
	case entity.DocumentStatusDone:
		return green
	case entity.DocumentStatusPending:
		return yellow
	}
	return color.New(color.FgRed)
}

func (a *app) printDocuments(docs []entity.Document) {
	for _, d := range docs {
		fmt.Fprintf(a.out, "%-6s %-32s %-12s ", d.Id, d.Name, d.UploadedBy)
		statusColor(d.Status).Fprintf(a.out, "%-9s", d.Status)
		if !d.UploadedAt.IsZero() {
			fmt.Fprintf(a.out, " %s", d.UploadedAt.Format("2006-01-02 15:04"))
		}
		fmt.Fprintln(a.out)
	}
}

func (a *app) printStats(stats entity.DocumentStats) {
	faint.Fprintf(a.out, "Total %d, selesai %d, diproses %d, lainnya %d\n", stats.Total, stats.Done, stats.Pending, stats.Other)
}

func (a *app) docsListCmd() *cobra.Command {
	var (
		page   dto.PageQuery
		search string
		status string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List uploaded documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.enter(ctx, route.AdminDocuments); err != nil {
				return err
			}
			if page.Limit == 0 {
				page.Limit = a.container.Config.Admin.PageSize
			}

			docs, err := a.container.Documents.List(ctx, page)
			if err != nil {
				return err
			}
			shown := service.FilterDocuments(docs, search, entity.DocumentStatus(status))
			a.printDocuments(shown)
			a.printStats(service.DocumentStatsOf(docs))
			return nil
		},
	}

	cmd.Flags().IntVar(&page.Offset, "offset", 0, "Rows to skip")
	cmd.Flags().IntVar(&page.Limit, "limit", 0, "Rows to fetch (defaults to DOCUMENT_PAGE_SIZE)")
	cmd.Flags().BoolVar(&page.Descending, "desc", false, "Newest first")
	cmd.Flags().StringVar(&search, "search", "", "Filter by name or uploader")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status: pending, done or rejected")
	return cmd
}

func (a *app) docsUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a document for ingestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.enter(ctx, route.AdminDocuments); err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			name := filepath.Base(args[0])
			if err := a.container.Documents.Upload(ctx, name, f); err != nil {
				return err
			}
			green.Fprintf(a.out, "%s diunggah, menunggu diproses.\n", name)
			return nil
		},
	}
}

func (a *app) docsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.enter(ctx, route.AdminDocuments); err != nil {
				return err
			}

			doc := entity.Document{Id: args[0], Name: args[0]}
			// look the name up so the prompt shows something readable
			if docs, err := a.container.Documents.List(ctx, dto.PageQuery{Limit: 100, Descending: true}); err == nil {
				for _, d := range docs {
					if d.Id == doc.Id {
						doc = d
						break
					}
				}
			}

			err := a.container.Documents.Delete(ctx, doc, a)
			if errors.Is(err, service.ErrCancelled) {
				fmt.Fprintln(a.out, "Dibatalkan.")
				return nil
			}
			if err != nil {
				return err
			}
			green.Fprintf(a.out, "%s dihapus.\n", doc.Name)
			return nil
		},
	}
}

func (a *app) docsWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Refresh the document list until nothing is pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.enter(ctx, route.AdminDocuments); err != nil {
				return err
			}

			var lastErr error
			poller := a.container.NewDocumentPoller(func(u service.DocumentUpdate) {
				if u.Err != nil {
					lastErr = u.Err
					yellow.Fprintf(a.errOut, "Gagal memuat dokumen: %v\n", u.Err)
					return
				}
				lastErr = nil
				a.printDocuments(u.Docs)
				a.printStats(u.Stats)
				fmt.Fprintln(a.out)
			})

			<-poller.Start(ctx)
			return lastErr
		},
	}
}
