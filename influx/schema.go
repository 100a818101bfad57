package influx

// MeasurementSchema describes one measurement: its tag keys and its field
// keys with declared types where the backend reports them. It is derived on
// demand by composing GetTags and GetFields, never persisted.
type MeasurementSchema struct {
	Measurement string            `json:"measurement"`
	Tags        []string          `json:"tags"`
	Fields      map[string]string `json:"fields"`
	Database    string            `json:"database,omitempty"`
}
