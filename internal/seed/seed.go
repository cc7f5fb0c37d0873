// Package seed provides the initial sectors and operator accounts a fresh
// store starts with.
package seed

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/queue-service/internal/domain"
)

// ReceptionSectorID identifies the default reception sector.
const ReceptionSectorID = "reception"

// DefaultSectors is the registry content used when no seed file is given.
func DefaultSectors() []domain.Sector {
	return []domain.Sector{{
		ID:          ReceptionSectorID,
		Name:        "Recepção",
		Prefix:      "REC",
		Color:       "#6366f1",
		IsVisible:   true,
		IsReception: true,
		Counters:    2,
	}}
}

// DemoUser is an account created on an empty user store.
type DemoUser struct {
	Name     string
	Email    string
	Role     domain.UserRole
	SectorID *string
}

// DemoUsers returns one account per role.
func DemoUsers() []DemoUser {
	reception := ReceptionSectorID
	return []DemoUser{
		{Name: "Administrador", Email: "admin@example.com", Role: domain.RoleAdmin},
		{Name: "Atendente", Email: "attendant@example.com", Role: domain.RoleAttendant, SectorID: &reception},
		{Name: "Recepcionista", Email: "receptionist@example.com", Role: domain.RoleReceptionist},
	}
}

type sectorFile struct {
	Sectors []sectorEntry `yaml:"sectors"`
}

type sectorEntry struct {
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	Prefix           string   `yaml:"prefix"`
	Color            string   `yaml:"color"`
	Visible          *bool    `yaml:"visible"`
	Tags             []string `yaml:"tags"`
	AllowedForwardTo []string `yaml:"allowedForwardTo"`
	Reception        bool     `yaml:"reception"`
	Counters         int      `yaml:"counters"`
}

// LoadSectors reads a YAML sector list from path.
func LoadSectors(path string) ([]domain.Sector, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sectors file: %w", err)
	}
	return ParseSectors(raw)
}

// ParseSectors decodes a YAML document of the form:
//
//	sectors:
//	  - id: reception
//	    name: Recepção
//	    prefix: REC
//	    reception: true
//	    counters: 2
//
// Sectors are visible unless `visible: false` is set.
func ParseSectors(raw []byte) ([]domain.Sector, error) {
	var file sectorFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode sectors file: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Sectors))
	sectors := make([]domain.Sector, 0, len(file.Sectors))
	for i, entry := range file.Sectors {
		id := strings.TrimSpace(entry.ID)
		if id == "" || strings.TrimSpace(entry.Name) == "" || strings.TrimSpace(entry.Prefix) == "" {
			return nil, fmt.Errorf("sector %d: id, name and prefix are required", i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("sector %d: duplicate id %q", i, id)
		}
		if entry.Counters < 0 {
			return nil, fmt.Errorf("sector %q: counters must not be negative", id)
		}
		seen[id] = struct{}{}

		visible := true
		if entry.Visible != nil {
			visible = *entry.Visible
		}
		color := entry.Color
		if color == "" {
			color = "#6366f1"
		}
		sectors = append(sectors, domain.Sector{
			ID:               id,
			Name:             strings.TrimSpace(entry.Name),
			Prefix:           strings.TrimSpace(entry.Prefix),
			Color:            color,
			IsVisible:        visible,
			Tags:             entry.Tags,
			AllowedForwardTo: entry.AllowedForwardTo,
			IsReception:      entry.Reception,
			Counters:         entry.Counters,
		})
	}
	return sectors, nil
}
