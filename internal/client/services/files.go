package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dmitrijs2005/ragdesk/internal/client/api"
	"github.com/dmitrijs2005/ragdesk/internal/client/models"
)

// FileService manages the server-side directory tree and its documents.
type FileService interface {
	CreateDir(ctx context.Context, path string) error
	ListDirs(ctx context.Context, path string) (*models.DirListing, error)
	Upload(ctx context.Context, filename string, content io.Reader, req models.UploadRequest, onProgress func(int)) error
	UploadFile(ctx context.Context, localPath string, req models.UploadRequest, onProgress func(int)) error
	ListDocs(ctx context.Context, directoryPath string) ([]models.DocInfo, error)
	DocChunks(ctx context.Context, docID string) ([]models.ChunkInfo, error)
	DeleteDoc(ctx context.Context, docID string) error
}

type fileService struct {
	api API
}

func NewFileService(api API) FileService {
	return &fileService{api: api}
}

func (s *fileService) CreateDir(ctx context.Context, path string) error {
	return s.api.Post(ctx, "/files/dirs", models.CreateDirRequest{DirectoryPath: path}, nil)
}

// ListDirs lists the subdirectories of path; "" means the root.
func (s *fileService) ListDirs(ctx context.Context, path string) (*models.DirListing, error) {
	var query url.Values
	if path != "" {
		query = url.Values{"path": {path}}
	}
	var out models.DirListing
	if err := s.api.Get(ctx, "/files/dirs", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *fileService) Upload(ctx context.Context, filename string, content io.Reader, req models.UploadRequest, onProgress func(int)) error {
	form := (&api.Form{}).
		AddFile("file", filename, content).
		AddField("directory_path", req.DirectoryPath)
	if req.Tags != "" {
		form.AddField("tags", req.Tags)
	}
	if req.Index != nil {
		form.AddField("index", strconv.FormatBool(*req.Index))
	}
	return s.api.Upload(ctx, "/files/upload", form, onProgress, nil)
}

func (s *fileService) UploadFile(ctx context.Context, localPath string, req models.UploadRequest, onProgress func(int)) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer func() { _ = f.Close() }()
	return s.Upload(ctx, filepath.Base(localPath), f, req, onProgress)
}

// ListDocs lists documents under directoryPath; "" lists all of them.
func (s *fileService) ListDocs(ctx context.Context, directoryPath string) ([]models.DocInfo, error) {
	var query url.Values
	if directoryPath != "" {
		query = url.Values{"directory_path": {directoryPath}}
	}
	var out []models.DocInfo
	if err := s.api.Get(ctx, "/files/docs", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *fileService) DocChunks(ctx context.Context, docID string) ([]models.ChunkInfo, error) {
	var out []models.ChunkInfo
	if err := s.api.Get(ctx, "/files/docs/"+url.PathEscape(docID)+"/chunks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *fileService) DeleteDoc(ctx context.Context, docID string) error {
	return s.api.Delete(ctx, "/files/docs/"+url.PathEscape(docID), nil)
}
