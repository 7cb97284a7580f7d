package history

import (
	"encoding/json"
	"time"

	"github.com/apiarycd/repocache/internal/git"
	"github.com/apiarycd/repocache/internal/storage"
)

const (
	prefix       = "cache:"
	prefixByName = prefix + "name:"
)

type recordModel struct {
	storage.BaseEntity

	Name   string `json:"name"`
	URL    string `json:"url"`
	Branch string `json:"branch"`
	Path   string `json:"path"`

	State      git.State  `json:"state"`
	Commit     string     `json:"commit"`
	LastError  string     `json:"last_error,omitempty"`
	LastSyncAt *time.Time `json:"last_sync_at"`
}

func (m *recordModel) StorageKey() string {
	return prefixByName + m.Name
}

func (m *recordModel) MarshalStorage() ([]byte, error) {
	return json.Marshal(m)
}

func (m *recordModel) UnmarshalStorage(data []byte) error {
	return json.Unmarshal(data, m)
}

func newRecordModel(record *Record) *recordModel {
	if record == nil {
		return nil
	}

	return &recordModel{
		BaseEntity: storage.BaseEntity{
			ID:        record.ID,
			CreatedAt: record.CreatedAt,
			UpdatedAt: record.UpdatedAt,
		},
		Name:       record.Name,
		URL:        record.URL,
		Branch:     record.Branch,
		Path:       record.Path,
		State:      record.State,
		Commit:     record.Commit,
		LastError:  record.LastError,
		LastSyncAt: record.LastSyncAt,
	}
}

func newRecord(model *recordModel) *Record {
	if model == nil {
		return nil
	}

	return &Record{
		ID:         model.ID,
		Name:       model.Name,
		URL:        model.URL,
		Branch:     model.Branch,
		Path:       model.Path,
		State:      model.State,
		Commit:     model.Commit,
		LastError:  model.LastError,
		LastSyncAt: model.LastSyncAt,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}
