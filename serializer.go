package relq

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
)

// Serializer converts a Message to and from the byte representation an
// adapter persists. redisqueue uses it to encode the full Message into its
// hash. pgqueue stores the message fields in separate columns and the
// in-memory adapter keeps cloned Messages; neither uses a Serializer.
type Serializer[ID comparable] interface {
	Marshal(msg *Message[ID]) ([]byte, error)
	Unmarshal(data []byte) (*Message[ID], error)
}

// JSONSerializer is the default Serializer. It is the right choice whenever
// messages should remain human-readable in ad-hoc inspection (redis-cli,
// psql) and portable across non-Go consumers.
type JSONSerializer[ID comparable] struct{}

func (JSONSerializer[ID]) Marshal(msg *Message[ID]) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONSerializer[ID]) Unmarshal(data []byte) (*Message[ID], error) {
	var msg Message[ID]
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// GobSerializer trades portability for speed and a more compact wire size;
// both ends of the wire must be Go.
type GobSerializer[ID comparable] struct{}

func (GobSerializer[ID]) Marshal(msg *Message[ID]) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (GobSerializer[ID]) Unmarshal(data []byte) (*Message[ID], error) {
	var msg Message[ID]
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
