package model

import (
	"encoding/json"
	"sort"
)

// RawTable is one parsed export: the detected header and the rows bound to it.
// It is built once per blob and not modified afterwards.
type RawTable struct {
	Delimiter      rune                `json:"-"`
	HeaderRowIndex int                 `json:"headerRowIndex"`
	Headers        []string            `json:"headers"`
	Rows           []map[string]string `json:"rows"`
}

// HasHeader reports whether h is one of the table headers.
func (t RawTable) HasHeader(h string) bool {
	for _, x := range t.Headers {
		if x == h {
			return true
		}
	}
	return false
}

// Role names a semantic column.
type Role string

const (
	RoleEntity    Role = "entity"
	RoleValue     Role = "value"
	RoleQuantity  Role = "quantity"
	RoleDate      Role = "date"
	RoleUnit      Role = "unit"
	RoleProcess   Role = "process"
	RoleLot       Role = "lot"
	RoleGroup     Role = "group"
	RoleUnitPrice Role = "unitPrice"
	RoleYear      Role = "year"
	RoleMonth     Role = "month"
)

// ComponentRole is the role of a cost component column ("component:mp").
func ComponentRole(name string) Role { return Role("component:" + name) }

// ColumnRoleMap maps each requested role to a header. Unresolved roles are
// kept with an empty header and marshal as null.
type ColumnRoleMap map[Role]string

// Get returns the header bound to r and whether it resolved.
func (m ColumnRoleMap) Get(r Role) (string, bool) {
	h, ok := m[r]
	return h, ok && h != ""
}

// Unresolved lists the roles that were requested but not found.
func (m ColumnRoleMap) Unresolved() []Role {
	var out []Role
	for r, h := range m {
		if h == "" {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Components returns component name -> header for resolved component roles.
func (m ColumnRoleMap) Components() map[string]string {
	out := map[string]string{}
	for r, h := range m {
		if h == "" || len(r) <= len("component:") || r[:len("component:")] != "component:" {
			continue
		}
		out[string(r[len("component:"):])] = h
	}
	return out
}

func (m ColumnRoleMap) MarshalJSON() ([]byte, error) {
	out := make(map[string]*string, len(m))
	for r, h := range m {
		if h == "" {
			out[string(r)] = nil
			continue
		}
		v := h
		out[string(r)] = &v
	}
	return json.Marshal(out)
}

func (m *ColumnRoleMap) UnmarshalJSON(b []byte) error {
	var in map[string]*string
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*m = make(ColumnRoleMap, len(in))
	for r, h := range in {
		if h == nil {
			(*m)[Role(r)] = ""
			continue
		}
		(*m)[Role(r)] = *h
	}
	return nil
}
