package explain

import (
	"fmt"
	"strings"

	"github.com/kilianp07/virtos/core/model"
)

var topologies = map[model.Architecture][]string{
	model.ArchVirtos: {
		"Grid", "  |", "Shared PCS", "  |", "Charge Array ---- Battery (DC-coupled)",
		"  |", "Dispensers", "  |", "Vehicles",
	},
	model.ArchGridOnly: {
		"Grid", "  |", "Charger PCS", "  |", "Dispensers", "  |", "Vehicles",
	},
	model.ArchACCoupled: {
		"Grid ---- AC BESS (behind meter)", "  |", "Charger PCS", "  |", "Dispensers", "  |", "Vehicles",
	},
}

// Topology returns a plain-text single line diagram of the architecture.
func Topology(arch model.Architecture) string {
	lines, ok := topologies[arch]
	if !ok {
		return "Unknown architecture"
	}
	return strings.Join(lines, "\n")
}

// ConstraintStack lists, top to bottom, the caps that apply to a site under
// arch.
func ConstraintStack(site model.SiteSpec, arch model.Architecture) []string {
	var lines []string
	for i, s := range site.Segments {
		name := s.ID
		if name == "" {
			name = fmt.Sprintf("segment-%d", i+1)
		}
		voltage := s.VehicleVoltageV
		if voltage <= 0 {
			voltage = model.DefaultVehicleVoltageV
		}
		module := s.ModuleSKU
		if module == "" {
			module = "default module"
		}
		lines = append(lines,
			fmt.Sprintf("%s: cable cap %s @ %.0f V", name, s.CableSKU, voltage),
			fmt.Sprintf("%s: array cap %d x %s", name, s.ModuleCount, module),
			fmt.Sprintf("%s: PCS cap %s", name, s.PCSSKU),
		)
		if s.DispenserSKU != "" {
			lines = append(lines, fmt.Sprintf("%s: dispenser cap %s", name, s.DispenserSKU))
		}
		if arch == model.ArchVirtos && s.BatterySKU != "" {
			lines = append(lines, fmt.Sprintf("%s: battery %s (DC-coupled)", name, s.BatterySKU))
		}
	}
	lines = append(lines, fmt.Sprintf("Grid import cap: %g kW (site)", site.GridConnectionKW))

	switch arch {
	case model.ArchVirtos:
		lines = append(lines, fmt.Sprintf("Shared PCS cap: %g kW (site, hard cap)", site.SharedUpstreamKW))
		if site.GridCharging.Enabled {
			lines = append(lines, fmt.Sprintf("Grid charging enabled up to %g kW (target %g%% SoC)",
				site.GridCharging.MaxPowerKW, site.GridCharging.TargetSoCPct))
		} else {
			lines = append(lines, "Grid charging disabled")
		}
	case model.ArchACCoupled:
		sku := site.ACBattery.BatterySKU
		if sku == "" {
			sku = "none"
		}
		lines = append(lines,
			fmt.Sprintf("AC BESS: %s", sku),
			fmt.Sprintf("AC inverter cap: %g kW", site.ACBattery.InverterKW),
		)
	}
	return lines
}
