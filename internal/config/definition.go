package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/virtual-office/internal/office"
)

// OfficeDefinition is the YAML document describing the office: its
// admission window, the fixed room layout, and the employee directory.
type OfficeDefinition struct {
	WorkingHours WorkingHoursDefinition `yaml:"workingHours"`
	Rooms        []RoomDefinition       `yaml:"rooms"`
	Employees    []EmployeeDefinition   `yaml:"employees"`
}

// WorkingHoursDefinition is the wire form of the admission window.
type WorkingHoursDefinition struct {
	Enabled bool   `yaml:"enabled"`
	Start   string `yaml:"start"`
	End     string `yaml:"end"`
}

// RoomDefinition declares a room present at office start.
type RoomDefinition struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Capacity int    `yaml:"capacity"`
}

// EmployeeDefinition declares a directory account. Either a precomputed
// argon2id hash or a plaintext password (hashed at load) must be set.
type EmployeeDefinition struct {
	ID           string `yaml:"id"`
	Email        string `yaml:"email"`
	DisplayName  string `yaml:"displayName"`
	Role         string `yaml:"role"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"passwordHash"`
}

// ParseOfficeDefinition decodes and validates a definition payload.
func ParseOfficeDefinition(data []byte) (OfficeDefinition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return OfficeDefinition{}, fmt.Errorf("office definition is empty")
	}
	var def OfficeDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return OfficeDefinition{}, fmt.Errorf("decode office definition: %w", err)
	}
	if err := def.validate(); err != nil {
		return OfficeDefinition{}, err
	}
	return def, nil
}

// LoadOfficeDefinition reads and parses a definition file from disk.
func LoadOfficeDefinition(path string) (OfficeDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return OfficeDefinition{}, fmt.Errorf("read office definition %s: %w", path, err)
	}
	def, err := ParseOfficeDefinition(data)
	if err != nil {
		return OfficeDefinition{}, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

func (d OfficeDefinition) validate() error {
	if d.WorkingHours.Enabled {
		start, err := office.ParseClock(d.WorkingHours.Start)
		if err != nil {
			return fmt.Errorf("workingHours.start: %w", err)
		}
		end, err := office.ParseClock(d.WorkingHours.End)
		if err != nil {
			return fmt.Errorf("workingHours.end: %w", err)
		}
		if start >= end {
			return fmt.Errorf("workingHours: start %q must be before end %q", d.WorkingHours.Start, d.WorkingHours.End)
		}
	}
	for i, room := range d.Rooms {
		if strings.TrimSpace(room.Name) == "" {
			return fmt.Errorf("rooms[%d]: name is required", i)
		}
		if kind := office.RoomKind(room.Kind); !kind.Valid() {
			return fmt.Errorf("rooms[%d]: unknown kind %q", i, room.Kind)
		}
		if room.Capacity < 0 {
			return fmt.Errorf("rooms[%d]: capacity must not be negative", i)
		}
	}
	for i, emp := range d.Employees {
		if strings.TrimSpace(emp.Email) == "" {
			return fmt.Errorf("employees[%d]: email is required", i)
		}
		if strings.TrimSpace(emp.DisplayName) == "" {
			return fmt.Errorf("employees[%d]: displayName is required", i)
		}
		role := office.Role(emp.Role)
		if !role.Valid() || role == office.RoleVisitor {
			return fmt.Errorf("employees[%d]: invalid role %q", i, emp.Role)
		}
		if emp.Password == "" && emp.PasswordHash == "" {
			return fmt.Errorf("employees[%d]: password or passwordHash is required", i)
		}
	}
	return nil
}

// Policy converts the definition's working hours into the runtime form.
// Call only after validation.
func (d OfficeDefinition) Policy() (office.WorkingHours, error) {
	if !d.WorkingHours.Enabled {
		return office.WorkingHours{}, nil
	}
	start, err := office.ParseClock(d.WorkingHours.Start)
	if err != nil {
		return office.WorkingHours{}, err
	}
	end, err := office.ParseClock(d.WorkingHours.End)
	if err != nil {
		return office.WorkingHours{}, err
	}
	return office.WorkingHours{Enabled: true, Start: start, End: end}, nil
}
