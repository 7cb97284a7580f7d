package badgerfx

// Entity is a value persisted by Repository.
type Entity interface {
	// StorageKey returns the primary key of the entity.
	StorageKey() string
	MarshalStorage() ([]byte, error)
	UnmarshalStorage(data []byte) error
}
