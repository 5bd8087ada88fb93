package drive

import (
	"context"

	"github.com/andresuchdata/autopo-py/restockd/internal/storage"
)

// Folder exposes one Drive folder as a flat artifact listing. Object keys are
// Drive file ids; names are the Drive titles.
type Folder struct {
	service  *Service
	folderID string
}

func NewFolder(s *Service, folderID string) *Folder {
	return &Folder{service: s, folderID: folderID}
}

func (f *Folder) List(ctx context.Context) ([]storage.ObjectInfo, error) {
	files, err := f.service.ListFiles(ctx, f.folderID)
	if err != nil {
		return nil, err
	}
	out := make([]storage.ObjectInfo, 0, len(files))
	for _, file := range files {
		if file.IsFolder() {
			continue
		}
		out = append(out, storage.ObjectInfo{Key: file.ID, Name: file.Name, Size: file.Size})
	}
	return out, nil
}

func (f *Folder) Fetch(ctx context.Context, obj storage.ObjectInfo, destPath string) error {
	return f.service.DownloadTo(ctx, obj.Key, destPath)
}
