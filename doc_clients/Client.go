package doc_clients

import (
	"time"
)

// Client : Like an OOP interface
type Client interface {
	ReadPath(string) ([]byte, error)
	WriteToPath(string, []byte) error
	ListFiles(string) ([]string, error)
	GetFileInfo(string) (DocInfo, error)
}

type DocInfo struct {
	Path    string
	ModTime time.Time
	Size    int64
}

func GetClient(docType string) Client {
	switch docType {
	case "", "file":
		return &FileClient{}
	}
	// Only local files at this moment
	panic("Unknown type: " + docType + ".")
}
