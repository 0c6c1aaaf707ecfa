package timetable

import "sort"

type rankedSection struct {
	section Section
	fitting int
}

// OrderSections returns a copy of sections with the hardest to place first:
// ascending by the number of classrooms large enough to hold them. Ties keep
// their input order.
func OrderSections(sections []Section, rooms []Classroom) []Section {
	ranked := make([]rankedSection, len(sections))
	for i, section := range sections {
		ranked[i] = rankedSection{section: section, fitting: len(candidateRooms(rooms, section, fitsHard))}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].fitting < ranked[j].fitting
	})

	ordered := make([]Section, len(ranked))
	for i, item := range ranked {
		ordered[i] = item.section
	}
	return ordered
}
