package report

import (
	"encoding/csv"
	"sort"
	"strconv"
	"strings"

	"clanwarden/internal/coc"
)

func buildReport(members []memberUnits) (*Report, error) {
	petSet := make(map[string]bool, len(knownPets))
	for _, pet := range knownPets {
		petSet[pet] = true
	}

	offense, err := buildTable(members, func(m memberUnits) []coc.Unit {
		var units []coc.Unit
		units = append(units, m.Troops...)
		units = append(units, m.Spells...)
		units = append(units, m.Heroes...)
		units = append(units, m.HeroEquipment...)
		return units
	})
	if err != nil {
		return nil, err
	}

	troops, err := buildTable(members, func(m memberUnits) []coc.Unit { return m.Troops })
	if err != nil {
		return nil, err
	}
	spells, err := buildTable(members, func(m memberUnits) []coc.Unit { return m.Spells })
	if err != nil {
		return nil, err
	}
	heroes, err := buildTable(members, func(m memberUnits) []coc.Unit {
		return filterUnits(m.Heroes, func(u coc.Unit) bool { return !petSet[u.Name] })
	})
	if err != nil {
		return nil, err
	}
	pets, err := buildTable(members, func(m memberUnits) []coc.Unit {
		return filterUnits(m.Heroes, func(u coc.Unit) bool { return petSet[u.Name] })
	})
	if err != nil {
		return nil, err
	}
	equipment, err := buildTable(members, func(m memberUnits) []coc.Unit { return m.HeroEquipment })
	if err != nil {
		return nil, err
	}

	return &Report{
		Offense:       offense,
		Troops:        troops,
		Spells:        spells,
		Heroes:        heroes,
		Pets:          pets,
		HeroEquipment: equipment,
	}, nil
}

// buildTable renders one CSV table: the header is the sorted union of unit
// names across all members, each row is a member with their level per unit,
// 0 for units the member does not have.
func buildTable(members []memberUnits, pick func(memberUnits) []coc.Unit) (string, error) {
	nameSet := make(map[string]bool)
	for _, member := range members {
		for _, unit := range pick(member) {
			nameSet[unit.Name] = true
		}
	}
	names := make([]string, 0, len(nameSet))
	for name := range nameSet {
		names = append(names, name)
	}
	sort.Strings(names)

	var builder strings.Builder
	writer := csv.NewWriter(&builder)

	header := append([]string{"Name"}, names...)
	if err := writer.Write(header); err != nil {
		return "", err
	}

	for _, member := range members {
		levels := make(map[string]int)
		for _, unit := range pick(member) {
			levels[unit.Name] = unit.Level
		}
		row := make([]string, 0, len(names)+1)
		row = append(row, member.Name)
		for _, name := range names {
			row = append(row, strconv.Itoa(levels[name]))
		}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}

	writer.Flush()
	return builder.String(), writer.Error()
}

func filterUnits(units []coc.Unit, keep func(coc.Unit) bool) []coc.Unit {
	var kept []coc.Unit
	for _, unit := range units {
		if keep(unit) {
			kept = append(kept, unit)
		}
	}
	return kept
}
