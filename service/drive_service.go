package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"sku-generator/config"
	"sku-generator/logger"
	"sku-generator/models"
)

const folderMimeType = "application/vnd.google-apps.folder"

// DriveService is a FileStore over Google Drive. Paths are resolved by name
// from the configured root folder; resolved folder IDs are cached.
type DriveService struct {
	client *drive.Service
	rootID string
	logger *zap.Logger

	mu      sync.Mutex
	folders map[string]string
}

var _ FileStore = (*DriveService)(nil)

// GoogleClientOptions returns the credential options shared by the Drive and
// Sheets clients. With neither set, application default credentials apply.
func GoogleClientOptions(cfg config.DriveConfig) []option.ClientOption {
	switch {
	case cfg.CredentialsJSON != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cfg.CredentialsJSON))}
	case cfg.CredentialsPath != "":
		return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsPath)}
	}
	return nil
}

// NewDriveService creates a DriveService rooted at cfg.RootFolderID.
func NewDriveService(ctx context.Context, cfg config.DriveConfig, log *zap.Logger, opts ...option.ClientOption) (*DriveService, error) {
	if len(opts) == 0 {
		opts = append(GoogleClientOptions(cfg), option.WithScopes(drive.DriveScope))
	}
	client, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	rootID := cfg.RootFolderID
	if rootID == "" {
		rootID = "root"
	}
	return &DriveService{
		client:  client,
		rootID:  rootID,
		logger:  logger.OrNop(log),
		folders: make(map[string]string),
	}, nil
}

// List returns the direct children of the folder at p, sorted by name.
func (ds *DriveService) List(ctx context.Context, p string) ([]models.FileEntry, error) {
	p = cleanPath(p)
	folderID, err := ds.folderID(ctx, p)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("'%s' in parents and trashed=false", folderID)
	var entries []models.FileEntry
	pageToken := ""
	for {
		call := ds.client.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name, mimeType, size)").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		r, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", displayPath(p), err)
		}
		for _, f := range r.Files {
			entries = append(entries, models.FileEntry{
				Name:     f.Name,
				Path:     path.Join(p, f.Name),
				IsFolder: f.MimeType == folderMimeType,
				Size:     f.Size,
			})
		}

		pageToken = r.NextPageToken
		if pageToken == "" {
			break
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Download returns the content of the file at p.
func (ds *DriveService) Download(ctx context.Context, p string) ([]byte, error) {
	f, err := ds.lookup(ctx, cleanPath(p))
	if err != nil {
		return nil, err
	}

	resp, err := ds.client.Files.Get(f.Id).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", p, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	return data, nil
}

// SharedLink grants anyone-with-the-link read access and returns a direct
// download URL.
func (ds *DriveService) SharedLink(ctx context.Context, p string) (string, error) {
	f, err := ds.lookup(ctx, cleanPath(p))
	if err != nil {
		return "", err
	}

	perm := &drive.Permission{Type: "anyone", Role: "reader"}
	if _, err := ds.client.Permissions.Create(f.Id, perm).Fields("id").Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("failed to share %s: %w", p, err)
	}
	return fmt.Sprintf("https://drive.google.com/uc?export=download&id=%s", f.Id), nil
}

// Move re-parents and renames src to dst. When dst is taken, " (n)" is
// appended to the name.
func (ds *DriveService) Move(ctx context.Context, src, dst string) (string, error) {
	src, dst = cleanPath(src), cleanPath(dst)
	f, err := ds.lookup(ctx, src)
	if err != nil {
		return "", err
	}
	srcParent, err := ds.folderID(ctx, parentPath(src))
	if err != nil {
		return "", err
	}
	dstParent, err := ds.folderID(ctx, parentPath(dst))
	if err != nil {
		return "", err
	}

	base := path.Base(dst)
	name := base
	for i := 1; ; i++ {
		existing, err := ds.child(ctx, dstParent, name)
		if errors.Is(err, ErrNotFound) {
			break
		}
		if err != nil {
			return "", err
		}
		if existing.Id == f.Id {
			return path.Join(parentPath(dst), name), nil
		}
		name = fmt.Sprintf("%s (%d)", base, i)
	}

	call := ds.client.Files.Update(f.Id, &drive.File{Name: name}).Fields("id, name").Context(ctx)
	if dstParent != srcParent {
		call = call.AddParents(dstParent).RemoveParents(srcParent)
	}
	if _, err := call.Do(); err != nil {
		return "", fmt.Errorf("failed to move %s: %w", src, err)
	}
	ds.forget(src)

	final := path.Join(parentPath(dst), name)
	ds.logger.Info("📦 Moved", zap.String("from", src), zap.String("to", final))
	return final, nil
}

// Delete removes the file or folder at p.
func (ds *DriveService) Delete(ctx context.Context, p string) error {
	p = cleanPath(p)
	f, err := ds.lookup(ctx, p)
	if err != nil {
		return err
	}
	if err := ds.client.Files.Delete(f.Id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", p, err)
	}
	ds.forget(p)
	return nil
}

// EnsureFolder creates every missing folder along p.
func (ds *DriveService) EnsureFolder(ctx context.Context, p string) error {
	p = cleanPath(p)
	parentID := ds.rootID
	current := ""
	for _, segment := range splitPath(p) {
		current = path.Join(current, segment)
		if id, ok := ds.cached(current); ok {
			parentID = id
			continue
		}

		f, err := ds.child(ctx, parentID, segment)
		switch {
		case errors.Is(err, ErrNotFound):
			created, err := ds.client.Files.Create(&drive.File{
				Name:     segment,
				MimeType: folderMimeType,
				Parents:  []string{parentID},
			}).Fields("id").Context(ctx).Do()
			if err != nil {
				return fmt.Errorf("failed to create folder %s: %w", current, err)
			}
			ds.logger.Info("📁 Created folder", zap.String("path", current))
			parentID = created.Id
		case err != nil:
			return err
		case f.MimeType != folderMimeType:
			return fmt.Errorf("%s exists and is not a folder", current)
		default:
			parentID = f.Id
		}
		ds.remember(current, parentID)
	}
	return nil
}

// Exists reports whether p resolves to a file or folder.
func (ds *DriveService) Exists(ctx context.Context, p string) (bool, error) {
	_, err := ds.lookup(ctx, cleanPath(p))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// lookup resolves a cleaned path to its Drive file.
func (ds *DriveService) lookup(ctx context.Context, p string) (*drive.File, error) {
	if p == "" {
		return &drive.File{Id: ds.rootID, MimeType: folderMimeType}, nil
	}
	parentID, err := ds.folderID(ctx, parentPath(p))
	if err != nil {
		return nil, err
	}
	f, err := ds.child(ctx, parentID, path.Base(p))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	return f, err
}

// folderID resolves a cleaned folder path, walking from the root.
func (ds *DriveService) folderID(ctx context.Context, p string) (string, error) {
	if p == "" {
		return ds.rootID, nil
	}
	if id, ok := ds.cached(p); ok {
		return id, nil
	}

	parentID, err := ds.folderID(ctx, parentPath(p))
	if err != nil {
		return "", err
	}
	f, err := ds.child(ctx, parentID, path.Base(p))
	if errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("folder %s: %w", p, ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	if f.MimeType != folderMimeType {
		return "", fmt.Errorf("%s is not a folder", p)
	}
	ds.remember(p, f.Id)
	return f.Id, nil
}

func (ds *DriveService) child(ctx context.Context, parentID, name string) (*drive.File, error) {
	query := fmt.Sprintf("'%s' in parents and name = '%s' and trashed=false", parentID, escapeQuery(name))
	r, err := ds.client.Files.List().
		Q(query).
		Fields("files(id, name, mimeType, size)").
		PageSize(10).
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up %s: %w", name, err)
	}
	for _, f := range r.Files {
		if f.Name == name {
			return f, nil
		}
	}
	if len(r.Files) > 0 {
		return r.Files[0], nil
	}
	return nil, ErrNotFound
}

func (ds *DriveService) cached(p string) (string, bool) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	id, ok := ds.folders[p]
	return id, ok
}

func (ds *DriveService) remember(p, id string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.folders[p] = id
}

// forget drops p and everything below it from the folder cache.
func (ds *DriveService) forget(p string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	for k := range ds.folders {
		if k == p || strings.HasPrefix(k, p+"/") {
			delete(ds.folders, k)
		}
	}
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// cleanPath normalises p to "a/b/c" with no leading or trailing slash. The
// root is "".
func cleanPath(p string) string {
	return strings.Trim(path.Clean("/"+p), "/")
}

func parentPath(p string) string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

func splitPath(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func displayPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
