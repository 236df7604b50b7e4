package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/ragdesk/internal/client/models"
)

// Upload sends a local file: upload <file> [dir] [tags].
func (a *App) Upload(ctx context.Context, args []string) error {
	path := args[0]
	req := models.UploadRequest{DirectoryPath: "/"}
	if len(args) > 1 {
		req.DirectoryPath = args[1]
	}
	if len(args) > 2 {
		req.Tags = strings.Join(args[2:], ",")
	}

	name := filepath.Base(path)
	progress := func(p int) {
		fmt.Fprintf(a.out, "\rUploading %s: %3d%%", name, p)
	}
	err := a.fileService.UploadFile(ctx, path, req, progress)
	fmt.Fprintln(a.out)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Uploaded %s to %s\n", name, req.DirectoryPath)
	return nil
}

// Docs lists documents: docs [dir].
func (a *App) Docs(ctx context.Context, args []string) error {
	dir := ""
	if len(args) > 0 {
		dir = args[0]
	}
	docs, err := a.fileService.ListDocs(ctx, dir)
	if err != nil {
		return err
	}
	a.printDocs(docs)
	return nil
}

func (a *App) printDocs(docs []models.DocInfo) {
	if len(docs) == 0 {
		fmt.Fprintln(a.out, "No documents")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILE\tDIR\tCHUNKS\tTAGS\tUPDATED")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			d.DocID, d.Filename, d.DirectoryPath, d.ChunkCount, strings.Join(d.TagList(), ","), d.UpdatedAt)
	}
	_ = tw.Flush()
}

// Chunks shows the chunks of one document: chunks <doc-id>.
func (a *App) Chunks(ctx context.Context, args []string) error {
	chunks, err := a.fileService.DocChunks(ctx, args[0])
	if err != nil {
		return err
	}
	for i, c := range chunks {
		fmt.Fprintf(a.out, "#%d %s\n%s\n\n", i+1, c.ChunkID, preview(c.Content, 300))
	}
	fmt.Fprintf(a.out, "%d chunk(s)\n", len(chunks))
	return nil
}

// RemoveDoc deletes a document after confirmation: rmdoc <doc-id>.
func (a *App) RemoveDoc(ctx context.Context, args []string) error {
	ok, err := Confirm(a.reader, fmt.Sprintf("Delete document %s?", args[0]), a.out)
	if err != nil || !ok {
		return err
	}
	if err := a.fileService.DeleteDoc(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deleted")
	return nil
}

// Mkdir creates a directory: mkdir <dir>.
func (a *App) Mkdir(ctx context.Context, args []string) error {
	if err := a.fileService.CreateDir(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created %s\n", args[0])
	return nil
}

// Dirs lists subdirectories: dirs [dir].
func (a *App) Dirs(ctx context.Context, args []string) error {
	dir := ""
	if len(args) > 0 {
		dir = args[0]
	}
	listing, err := a.fileService.ListDirs(ctx, dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\n", listing.Path)
	for _, d := range listing.Directories {
		fmt.Fprintf(a.out, "  %s/\n", strings.TrimSuffix(d, "/"))
	}
	return nil
}

// preview shortens s to at most n runes on one line.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
