package observe

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/roach88/ldgraph/internal/ld"
)

// DomainObservation separates observation ids from other content hashes.
// Version suffix enables future algorithm migration.
const DomainObservation = "ldgraph/observation/v1"

// Kind is the mutation an observation asserts.
type Kind int

const (
	// Add asserts that the property has Value.
	Add Kind = iota + 1
	// Delete retracts every lower-priority observation of the property.
	Delete
	// Replace asserts Value instead of PreviousValue (nil = any value).
	Replace
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case Add:
		return "add"
	case Delete:
		return "delete"
	case Replace:
		return "replace"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "add":
		return Add, nil
	case "delete":
		return Delete, nil
	case "replace":
		return Replace, nil
	default:
		return 0, fmt.Errorf("unknown observation kind %q", s)
	}
}

// Observation is one logged assertion about one property value.
type Observation struct {
	ID            string    // Content-addressed hash
	Kind          Kind
	Target        ld.Key
	PropertyID    string
	Value         ld.Value  // nil for Delete
	PreviousValue ld.Value  // Replace only; nil = wildcard
	Credibility   float64   // [0,1]
	Timestamp     time.Time
	Source        string
	Group         string    // observationGroup: same-batch observations never outrank each other
	Index         int       // Position within the group
}

// Metadata is the provenance attached to a batch of observations.
type Metadata struct {
	Credibility float64   `json:"credibility" yaml:"credibility"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
	Source      string    `json:"source,omitempty" yaml:"source,omitempty"`
}

// MetadataError reports unusable observation metadata.
type MetadataError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *MetadataError) Error() string {
	return fmt.Sprintf("observation metadata %s: %s", e.Field, e.Reason)
}

// Validate checks credibility is within [0,1] and a timestamp is set.
func (m Metadata) Validate() error {
	if m.Credibility < 0 || m.Credibility > 1 || m.Credibility != m.Credibility {
		return &MetadataError{Field: "credibility", Reason: fmt.Sprintf("%v outside [0,1]", m.Credibility)}
	}
	if m.Timestamp.IsZero() {
		return &MetadataError{Field: "timestamp", Reason: "not set"}
	}
	return nil
}

// ComputeID returns the content-addressed id of o (ignoring o.ID).
// Format: hex(SHA256(domain + 0x00 + canonical JSON)).
func ComputeID(o Observation) (string, error) {
	rec := ld.NewRecord(
		ld.P("kind", ld.String(o.Kind.String())),
		ld.P("target_type", ld.String(o.Target.Type)),
		ld.P("target_id", ld.String(o.Target.ID)),
		ld.P("property", ld.String(o.PropertyID)),
		ld.P("value", o.Value),
		ld.P("previous_value", o.PreviousValue),
		ld.P("credibility", ld.Number(o.Credibility)),
		ld.P("timestamp", ld.NewDate(o.Timestamp)),
		ld.P("source", ld.String(o.Source)),
		ld.P("group", ld.String(o.Group)),
		ld.P("index", ld.Number(o.Index)),
	)
	canonical, err := ld.Canonical(rec)
	if err != nil {
		return "", fmt.Errorf("observation id: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(DomainObservation))
	h.Write([]byte{0x00}) // Null separator prevents domain/data boundary ambiguity
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func newObservation(kind Kind, target ld.Key, prop string, value, prev ld.Value, meta Metadata, group string, index int) (Observation, error) {
	o := Observation{
		Kind:          kind,
		Target:        target,
		PropertyID:    prop,
		Value:         ld.CloneValue(value),
		PreviousValue: ld.CloneValue(prev),
		Credibility:   meta.Credibility,
		Timestamp:     meta.Timestamp,
		Source:        meta.Source,
		Group:         group,
		Index:         index,
	}
	id, err := ComputeID(o)
	if err != nil {
		return Observation{}, err
	}
	o.ID = id
	return o, nil
}
