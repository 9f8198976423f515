package engine

import "encoding/json"

// Envelope is the uniform wrapper every exposed operation returns. Exactly one
// of Data or Error is populated; RowsAffected is set for write operations.
type Envelope struct {
	Success      bool   `json:"success"`
	Data         any    `json:"data,omitempty"`
	Error        string `json:"error,omitempty"`
	RowsAffected *int64 `json:"rows_affected,omitempty"`
}

func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

func OKRows(n int64) Envelope {
	return Envelope{Success: true, RowsAffected: &n}
}

func Fail(err error) Envelope {
	return Envelope{Success: false, Error: err.Error()}
}

// JSON renders the envelope for transport. Encoding an envelope cannot fail
// for the value shapes the aggregator produces; a marshal error degrades to an
// error envelope rather than panicking.
func (e Envelope) JSON() string {
	b, err := json.Marshal(e)
	if err != nil {
		b, _ = json.Marshal(Envelope{Success: false, Error: "encoding result: " + err.Error()})
	}
	return string(b)
}
