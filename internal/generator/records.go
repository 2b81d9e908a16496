package generator

// Status classifies the outcome of one dispatched call.
type Status string

const (
	StatusSuccess     Status = "success"
	StatusError       Status = "error"
	StatusUnavailable Status = "unavailable"
)

// Stub responses are placeholders, so their confidence sits at the
// midpoint rather than claiming anything.
const stubConfidence = 0.5

// StubRecord is the envelope every dispatched call returns. The JSON
// keys mirror the dictionaries the generated adapter emits, so a record
// serialised here matches one produced by the scaffold at runtime.
type StubRecord struct {
	Module     string   `json:"module_name"`
	Class      string   `json:"class_name"`
	Method     string   `json:"method_name"`
	Status     Status   `json:"status"`
	Data       any      `json:"data"`
	Evidence   []string `json:"evidence"`
	Confidence float64  `json:"confidence"`
	Elapsed    float64  `json:"execution_time"`
}

func stubRecord(module string, target StubTarget) StubRecord {
	return StubRecord{
		Module:     module,
		Class:      target.Class,
		Method:     target.Method,
		Status:     StatusSuccess,
		Data:       map[string]any{"stub": true},
		Evidence:   []string{"placeholder stub for " + target.String()},
		Confidence: stubConfidence,
	}
}

func unavailableRecord(module string) StubRecord {
	return StubRecord{
		Module:   module,
		Status:   StatusUnavailable,
		Evidence: []string{"backend module " + module + " could not be bound"},
	}
}

func unknownRecord(module, method string) StubRecord {
	return StubRecord{
		Module:   module,
		Method:   method,
		Status:   StatusError,
		Evidence: []string{"no stub registered for method key: " + method},
	}
}
