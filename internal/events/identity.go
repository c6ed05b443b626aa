// Ring Automation Bridge - Ring Security Events to Webhooks
// Copyright 2026 Slav Pilus (slavpilus)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slavpilus/ring-automation-bridge

package events

import (
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// motionBucket is the width of the last-resort time bucket for motion
// events that carry no usable identifier. Two unidentifiable motion events
// from the same device inside one bucket collapse into one key. That
// false-merge is accepted: the alternative is repeat delivery on every
// redundant detection path.
const motionBucket = 5 * time.Second

// genericKeyLen is how much of the serialized data the generic fallback
// keeps. Intentionally weak; most event types carry an id and collisions
// are preferred over missed dedup.
const genericKeyLen = 50

// Resolver derives a stable deduplication key from an event's type and
// best-available fields. Resolution is deterministic for identical input,
// except the last-resort motion fallback which is stable only within one
// motionBucket.
type Resolver struct {
	now func() time.Time
}

// NewResolver creates a resolver using the wall clock.
func NewResolver() *Resolver {
	return &Resolver{now: time.Now}
}

// NewResolverWithClock creates a resolver with an injected clock for tests.
func NewResolverWithClock(now func() time.Time) *Resolver {
	return &Resolver{now: now}
}

// extractor attempts to derive a key suffix from event data.
// Extractors are pure; they return ("", false) when their fields are absent.
type extractor func(d Data) (string, bool)

// motionExtractors is the ordered fallback chain for motion_detected
// identity, tried in order with first match winning. Order encodes id
// quality: explicit ids first, device+time composites next, nested raw
// records last.
var motionExtractors = []extractor{
	fieldKey("id"),
	fieldKey("dingId"),
	pairKey("cameraId", "timestamp"),
	pairKey("deviceId", "timestamp"),
	createdAtKey,
	nestedKey("eventData"),
	nestedKey("dingData"),
}

// Resolve derives the identity key for an event.
func (r *Resolver) Resolve(eventType string, data Data) string {
	if eventType == TypeMotionDetected {
		for _, ex := range motionExtractors {
			if suffix, ok := ex(data); ok {
				return "motion-" + suffix
			}
		}
		return "motion-" + r.motionTimeBucketKey(data)
	}

	if id, ok := fieldString(data["id"]); ok {
		return eventType + "-" + id
	}
	if id, ok := fieldString(data["alarmId"]); ok {
		return eventType + "-" + id
	}
	return eventType + "-" + genericKey(data)
}

// motionTimeBucketKey is the last resort for unidentifiable motion:
// device name plus the current time rounded down to the bucket width.
func (r *Resolver) motionTimeBucketKey(data Data) string {
	name, ok := fieldString(data["cameraName"])
	if !ok {
		name, ok = fieldString(data["deviceName"])
	}
	if !ok {
		name = "unknown"
	}

	bucketMs := motionBucket.Milliseconds()
	approx := r.now().UnixMilli() / bucketMs * bucketMs
	return name + "-" + strconv.FormatInt(approx, 10)
}

// fieldKey returns an extractor for a single field.
func fieldKey(field string) extractor {
	return func(d Data) (string, bool) {
		return fieldString(d[field])
	}
}

// pairKey returns an extractor requiring both fields to be present.
func pairKey(first, second string) extractor {
	return func(d Data) (string, bool) {
		a, ok := fieldString(d[first])
		if !ok {
			return "", false
		}
		b, ok := fieldString(d[second])
		if !ok {
			return "", false
		}
		return a + "-" + b, true
	}
}

// createdAtKey keys on the event creation time combined with the camera name.
func createdAtKey(d Data) (string, bool) {
	created, ok := fieldString(d["eventCreatedAt"])
	if !ok {
		return "", false
	}
	name, _ := fieldString(d["cameraName"])
	return name + "-" + created, true
}

// nestedKey returns an extractor that digs an identifier out of a nested
// raw record (history entry or ding) attached to the event.
func nestedKey(field string) extractor {
	return func(d Data) (string, bool) {
		nested, ok := d[field].(map[string]any)
		if !ok {
			if nd, isData := d[field].(Data); isData {
				nested = map[string]any(nd)
			} else {
				return "", false
			}
		}
		if id, ok := fieldString(nested["id"]); ok {
			return id, true
		}
		return fieldString(nested["id_str"])
	}
}

// genericKey serializes the data mapping and truncates it. JSON encoding
// sorts map keys, so identical data yields an identical key.
func genericKey(data Data) string {
	raw, err := json.Marshal(data)
	if err != nil {
		return "unserializable"
	}
	if len(raw) > genericKeyLen {
		raw = raw[:genericKeyLen]
	}
	return string(raw)
}

// fieldString converts a loosely-typed field value to its string form.
// Empty strings, nil, and zero numbers report absent; a zero id is a
// struct default, not a real identifier. Numeric JSON values arrive as
// float64; integral ones are formatted without an exponent so keys match
// across sources that carry the same id as string or number.
func fieldString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		if val == "" {
			return "", false
		}
		return val, true
	case int:
		if val == 0 {
			return "", false
		}
		return strconv.Itoa(val), true
	case int64:
		if val == 0 {
			return "", false
		}
		return strconv.FormatInt(val, 10), true
	case float64:
		if val == 0 {
			return "", false
		}
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10), true
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case json.Number:
		if val.String() == "" {
			return "", false
		}
		return val.String(), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return fmt.Sprint(val), true
	}
}
