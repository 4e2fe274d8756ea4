package domain

// Column type tags
const (
	ColumnTypeText       = "text"
	ColumnTypeStructured = "structured"
)

// ImportJob describes one request to load a remote object into a new list.
// JobID doubles as the idempotency key.
type ImportJob struct {
	JobID            string       `json:"jobId" validate:"required,uuid"`
	ListName         string       `json:"listName" validate:"required,min=1,max=100"`
	FirstRowIsHeader bool         `json:"firstRowIsHeader"`
	Columns          []ColumnSpec `json:"columns" validate:"required,min=1,unique=Key,dive"`
	ObjectRef        ObjectRef    `json:"objectRef"`
	UserID           string       `json:"userId" validate:"required"`
}

// ColumnSpec defines one column of a list. Key is the field name used in stored rows.
type ColumnSpec struct {
	Name  string `json:"name" db:"name" validate:"required"`
	Key   string `json:"key" db:"key" validate:"required"`
	Type  string `json:"type" db:"type" validate:"required,oneof=text structured"`
	Order int    `json:"order" db:"display_order"`
}

// ObjectRef points at the source object in remote storage
type ObjectRef struct {
	ContainerID string `json:"containerId" validate:"required"`
	Key         string `json:"key" validate:"required"`
}

// JobMessage is an import job delivered from RabbitMQ
type JobMessage struct {
	Job         ImportJob
	DeliveryTag uint64
	Redelivered bool
}
