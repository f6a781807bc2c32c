package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rahul/maintbot/internal/schedule"
)

// The registry file is shared with other tools, so fields this package does
// not model are carried through a load/save cycle untouched.

var (
	equipmentKeys = []string{"equipment_name", "serial_number", "location", "last_maintenance_date", "maintenance_schedule"}
	scheduleKeys  = []string{"tasks", "last_maintenance_date"}
)

func (e *Equipment) UnmarshalJSON(data []byte) error {
	type fields Equipment
	var f struct {
		fields
		Schedule map[string]json.RawMessage `json:"maintenance_schedule"`
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	extra, err := unknownFields(data, equipmentKeys)
	if err != nil {
		return err
	}

	*e = Equipment(f.fields)
	e.Extra = extra
	e.Schedule = make(map[schedule.Frequency]Schedule, len(f.Schedule))
	for key, msg := range f.Schedule {
		freq := schedule.Frequency(key)
		if !freq.Valid() {
			if e.otherSchedules == nil {
				e.otherSchedules = make(map[string]json.RawMessage)
			}
			e.otherSchedules[key] = msg
			continue
		}
		var s Schedule
		if err := json.Unmarshal(msg, &s); err != nil {
			return fmt.Errorf("maintenance_schedule %s: %w", key, err)
		}
		e.Schedule[freq] = s
	}
	return nil
}

func (e Equipment) MarshalJSON() ([]byte, error) {
	type fields Equipment
	sched := make(map[string]json.RawMessage, len(e.Schedule)+len(e.otherSchedules))
	for key, msg := range e.otherSchedules {
		sched[key] = msg
	}
	for f, s := range e.Schedule {
		b, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		sched[string(f)] = b
	}
	obj, err := json.Marshal(struct {
		fields
		Schedule map[string]json.RawMessage `json:"maintenance_schedule"`
	}{fields(e), sched})
	if err != nil {
		return nil, err
	}
	return appendFields(obj, e.Extra)
}

func (s *Schedule) UnmarshalJSON(data []byte) error {
	type fields Schedule
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	extra, err := unknownFields(data, scheduleKeys)
	if err != nil {
		return err
	}
	*s = Schedule(f)
	s.Extra = extra
	return nil
}

func (s Schedule) MarshalJSON() ([]byte, error) {
	type fields Schedule
	obj, err := json.Marshal(fields(s))
	if err != nil {
		return nil, err
	}
	return appendFields(obj, s.Extra)
}

// unknownFields returns the members of the JSON object data not named in
// known, or nil when there are none.
func unknownFields(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// appendFields adds extra members, sorted by key, to the end of a marshaled
// object.
func appendFields(obj []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return obj, nil
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(bytes.TrimSuffix(bytes.TrimSpace(obj), []byte("}")))
	empty := buf.Len() == 1
	for _, k := range keys {
		if !empty {
			buf.WriteByte(',')
		}
		empty = false
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
