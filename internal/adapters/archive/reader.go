package archive

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"catalog-sync/internal/adapters/media"
	"catalog-sync/internal/domain/model"
	"catalog-sync/pkg/errors"
)

// Archive is an opened export ZIP.
type Archive struct {
	Document *model.ExportDocument
	media    map[string]*zip.File
}

// ReadZIP opens an export archive. A missing or unreadable data.json is a
// structural error.
func ReadZIP(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &errors.ErrStructural{Message: "cannot open archive", Err: err}
	}

	var dataFile *zip.File
	mediaFiles := make(map[string]*zip.File)
	for _, f := range zr.File {
		switch {
		case f.Name == DataFile:
			dataFile = f
		case path.Dir(f.Name)+"/" == MediaDir && !f.FileInfo().IsDir():
			mediaFiles[path.Base(f.Name)] = f
		}
	}
	if dataFile == nil {
		return nil, &errors.ErrStructural{Message: "archive does not contain " + DataFile}
	}

	rc, err := dataFile.Open()
	if err != nil {
		return nil, &errors.ErrStructural{Message: "cannot open " + DataFile, Err: err}
	}
	defer rc.Close()

	doc, err := ReadJSON(rc)
	if err != nil {
		return nil, err
	}
	return &Archive{Document: doc, media: mediaFiles}, nil
}

// ReadJSON decodes a bare export document.
func ReadJSON(r io.Reader) (*model.ExportDocument, error) {
	var doc model.ExportDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &errors.ErrStructural{Message: "cannot parse " + DataFile, Err: err}
	}
	if doc.SchemaVersion == "" {
		return nil, &errors.ErrStructural{Message: DataFile + " has no schemaVersion"}
	}
	return &doc, nil
}

// MediaFile returns the bytes of media/<name>.
func (a *Archive) MediaFile(name string) ([]byte, error) {
	f, ok := a.media[name]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "media", ID: name}
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open media %s: %w", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, media.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read media %s: %w", name, err)
	}
	if len(data) > media.MaxFileSize {
		return nil, fmt.Errorf("media %s exceeds %d bytes", name, media.MaxFileSize)
	}
	return data, nil
}

func (a *Archive) MediaCount() int {
	return len(a.media)
}
