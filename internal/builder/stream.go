package builder

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/pkg/jsonmessage"
)

// Record is one decoded message of a build or push stream. At most one of
// the fields is relevant: Err wins, then Digest, then Log, then Status.
type Record struct {
	Log    string
	Err    string
	Status string
	Digest string
}

// recordStream reads the daemon's JSON message stream once, front to back.
type recordStream struct {
	dec *json.Decoder
}

func newRecordStream(r io.Reader) *recordStream {
	return &recordStream{dec: json.NewDecoder(r)}
}

// Next returns io.EOF once the stream is exhausted.
func (s *recordStream) Next() (Record, error) {
	var msg jsonmessage.JSONMessage
	if err := s.dec.Decode(&msg); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, err
	}

	rec := Record{
		Log:    msg.Stream,
		Status: msg.Status,
	}

	switch {
	case msg.Error != nil && msg.Error.Message != "":
		rec.Err = strings.TrimSpace(msg.Error.Message)
	case msg.ErrorMessage != "":
		rec.Err = strings.TrimSpace(msg.ErrorMessage)
	}

	if msg.Aux != nil {
		var push types.PushResult
		if err := json.Unmarshal(*msg.Aux, &push); err == nil {
			rec.Digest = push.Digest
		}
	}

	return rec, nil
}
